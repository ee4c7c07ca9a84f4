package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"

	"github.com/shopspring/decimal"
)

func TestCapturePaymentSendsMinorUnitAndRecordsCaptured(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	if _, err := fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    money(500),
		Currency:  "INR",
	}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	result, err := fx.svc.CapturePayment(CapturePaymentInput{PaymentID: "pay_1", Amount: money(500)})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if len(fx.gateway.captures) != 1 {
		t.Fatalf("expected one capture call")
	}
	call := fx.gateway.captures[0]
	if call.PaymentID != "pay_1" || call.AmountMinor != 50000 || call.Currency != "INR" {
		t.Fatalf("unexpected capture call: %+v", call)
	}
	if !result.Record.IsCaptured() || !result.Record.Captured || result.Record.OrderID != "order_1" {
		t.Fatalf("unexpected record: %+v", result.Record)
	}
	if result.Payment.Raw["status"] != "captured" {
		t.Fatalf("processor response should be returned: %+v", result.Payment)
	}
}

func TestCapturePaymentUpstreamFailureNoWrite(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	fx.gateway.captureErr = fmt.Errorf("%w: The requested payment is not authorized", razorpay.ErrProcessorRejected)

	_, err := fx.svc.CapturePayment(CapturePaymentInput{PaymentID: "pay_1", Amount: money(500)})
	if !errors.Is(err, ErrUpstream) || errors.Is(err, ErrPersistence) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if fx.countRecords(t) != 0 {
		t.Fatalf("failed capture must not write")
	}
	if len(fx.queue.payloads) != 0 {
		t.Fatalf("upstream failure must not enqueue reconciliation")
	}
}

func TestCapturePaymentPersistenceFailureEnqueuesReconcile(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	fx.svc.recordRepo = &failingRecordRepo{PaymentRecordRepository: fx.records, err: errors.New("disk full")}

	_, err := fx.svc.CapturePayment(CapturePaymentInput{PaymentID: "pay_9", Amount: money(250), Currency: "INR"})
	if !errors.Is(err, ErrPersistence) || errors.Is(err, ErrUpstream) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(fx.gateway.captures) != 1 {
		t.Fatalf("processor capture should have happened")
	}
	if len(fx.queue.payloads) != 1 {
		t.Fatalf("expected reconcile task, got %d", len(fx.queue.payloads))
	}
	payload := fx.queue.payloads[0]
	if payload.PaymentID != "pay_9" || payload.Amount != "250.00" || payload.Currency != "INR" {
		t.Fatalf("unexpected reconcile payload: %+v", payload)
	}

	fx.svc.recordRepo = fx.records
	amount, err := ParseReconcileAmount(payload.Amount)
	if err != nil {
		t.Fatalf("parse amount failed: %v", err)
	}
	record, err := fx.svc.ReconcileCapture(ReconcileCaptureInput{
		PaymentID: payload.PaymentID,
		Amount:    amount,
		Currency:  payload.Currency,
	})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !record.IsCaptured() || !record.Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected reconciled record: %+v", record)
	}
	if _, err := fx.svc.ReconcileCapture(ReconcileCaptureInput{PaymentID: payload.PaymentID, Amount: amount}); err != nil {
		t.Fatalf("repeated reconcile should be idempotent, got %v", err)
	}
	if fx.countRecords(t) != 1 {
		t.Fatalf("expected one record after reconcile")
	}
}

func TestCapturePaymentPersistenceFailureQueueDisabled(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	fx.queue.enabled = false
	fx.svc.recordRepo = &failingRecordRepo{PaymentRecordRepository: fx.records, err: errors.New("db down")}

	if _, err := fx.svc.CapturePayment(CapturePaymentInput{PaymentID: "pay_1", Amount: money(1)}); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(fx.queue.payloads) != 0 {
		t.Fatalf("disabled queue must not receive tasks")
	}
}

func TestCapturePaymentValidation(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	cases := []CapturePaymentInput{
		{PaymentID: " ", Amount: money(1)},
		{PaymentID: "pay_1", Amount: money(0)},
		{PaymentID: "pay_1", Amount: money(-5)},
		{PaymentID: "pay_wrap", Amount: models.Money{Decimal: decimal.RequireFromString("184467440737095517.16")}},
		{PaymentID: "pay_wrap", Amount: models.Money{Decimal: decimal.RequireFromString("100000000000000000")}},
	}
	for i, input := range cases {
		if _, err := fx.svc.CapturePayment(input); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
	if len(fx.gateway.captures) != 0 {
		t.Fatalf("gateway must not be called on invalid input")
	}
}

func TestCapturePaymentUsesStoredCurrency(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	if _, err := fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    money(10),
		Currency:  "usd",
	}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := fx.svc.CapturePayment(CapturePaymentInput{PaymentID: "pay_1", Amount: money(10)}); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if fx.gateway.captures[0].Currency != "USD" {
		t.Fatalf("expected stored currency, got %s", fx.gateway.captures[0].Currency)
	}
	record, err := fx.records.GetByPaymentID(context.Background(), "pay_1")
	if err != nil || record == nil || record.Status != constants.PaymentStatusCaptured {
		t.Fatalf("expected captured record, got %+v err=%v", record, err)
	}
}
