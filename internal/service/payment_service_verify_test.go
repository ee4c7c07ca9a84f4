package service

import (
	"errors"
	"testing"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"

	"github.com/shopspring/decimal"
)

func clientSignature(orderID, paymentID string) string {
	return razorpay.ComputeSignature(testKeySecret, razorpay.ClientVerificationMessage(orderID, paymentID))
}

func TestVerifyClientPaymentPersistsVerified(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)

	record, err := fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    money(1000),
		Currency:  "INR",
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if record.Status != constants.PaymentStatusVerified || record.Captured {
		t.Fatalf("unexpected status: %+v", record)
	}
	if !record.Amount.Equal(decimal.NewFromInt(1000)) || record.OrderID != "order_1" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Signature != clientSignature("order_1", "pay_1") {
		t.Fatalf("signature should be stored for audit")
	}
}

func TestVerifyClientPaymentTamperedNeverWrites(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	valid := clientSignature("order_1", "pay_1")
	flipped := []byte(valid)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	cases := []VerifyPaymentInput{
		{OrderID: "order_1", PaymentID: "pay_2", Signature: valid},
		{OrderID: "order_2", PaymentID: "pay_1", Signature: valid},
		{OrderID: "order_1", PaymentID: "pay_1", Signature: ""},
		{OrderID: "order_1", PaymentID: "pay_1", Signature: razorpay.ComputeSignature("wrong", []byte("order_1|pay_1"))},
		{OrderID: "order_1", PaymentID: "pay_1", Signature: string(flipped)},
	}
	for i, input := range cases {
		input.Amount = money(1000)
		if _, err := fx.svc.VerifyClientPayment(input); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("case %d expected invalid signature, got %v", i, err)
		}
	}
	if fx.countRecords(t) != 0 {
		t.Fatalf("tampered verification must not persist")
	}
}

func TestVerifyClientPaymentDoesNotRegressCaptured(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	body := capturedWebhookBody("pay_1", 100000, "INR")
	if _, err := fx.svc.HandleWebhook(WebhookInput{Body: body, Signature: webhookSignature(body)}); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}

	record, err := fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    money(999),
	})
	if err != nil {
		t.Fatalf("verify after capture should succeed, got %v", err)
	}
	if record.Status != constants.PaymentStatusCaptured || !record.Captured {
		t.Fatalf("status regressed: %+v", record)
	}
	if !record.Amount.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("captured amount must be untouched, got %s", record.Amount.String())
	}
	if fx.countRecords(t) != 1 {
		t.Fatalf("expected a single record")
	}
}

func TestVerifyClientPaymentValidation(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)

	_, err := fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "",
		Signature: clientSignature("order_1", ""),
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing payment id, got %v", err)
	}

	_, err = fx.svc.VerifyClientPayment(VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    models.Money{Decimal: decimal.NewFromInt(-1)},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
	if fx.countRecords(t) != 0 {
		t.Fatalf("invalid requests must not persist")
	}
}

func TestVerifyClientPaymentRepeatOverwritesVerified(t *testing.T) {
	fx := newPaymentServiceFixture(t, nil)
	input := VerifyPaymentInput{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: clientSignature("order_1", "pay_1"),
		Amount:    money(100),
	}
	if _, err := fx.svc.VerifyClientPayment(input); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	input.Amount = money(200)
	record, err := fx.svc.VerifyClientPayment(input)
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}
	if !record.Amount.Equal(decimal.NewFromInt(200)) || fx.countRecords(t) != 1 {
		t.Fatalf("repeat verify should overwrite the verified record: %+v", record)
	}
}
