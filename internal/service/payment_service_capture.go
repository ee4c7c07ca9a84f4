package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"
	"github.com/paybridge/internal/queue"
	"github.com/paybridge/internal/repository"

	"github.com/shopspring/decimal"
)

// CapturePaymentInput 捕获支付输入，金额为主货币单位
type CapturePaymentInput struct {
	PaymentID string
	Amount    models.Money
	Currency  string
	Context   context.Context
}

// CapturePaymentResult 捕获结果
type CapturePaymentResult struct {
	Payment *razorpay.Payment
	Record  *models.PaymentRecord
}

// ReconcileCaptureInput 捕获补偿输入
type ReconcileCaptureInput struct {
	PaymentID string
	OrderID   string
	Amount    models.Money
	Currency  string
	Context   context.Context
}

// CapturePayment 调用处理方捕获支付并记录 captured 状态。
// 处理方成功而本地写入失败时返回 ErrPersistence，并投递补偿任务。
func (s *PaymentService) CapturePayment(input CapturePaymentInput) (*CapturePaymentResult, error) {
	ctx := contextOrBackground(input.Context)
	paymentID := strings.TrimSpace(input.PaymentID)
	log := paymentLogger(
		"payment_id", paymentID,
		"amount", input.Amount.String(),
	)
	if paymentID == "" {
		log.Warnw("payment_capture_missing_payment_id")
		return nil, fmt.Errorf("%w: payment id is required", ErrValidation)
	}
	if !input.Amount.IsPositive() {
		log.Warnw("payment_capture_invalid_amount")
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	amountMinor, err := input.Amount.ToMinor()
	if err != nil {
		log.Warnw("payment_capture_invalid_amount", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	currency := s.captureCurrency(ctx, paymentID, input.Currency)

	payment, err := s.gateway.CapturePayment(ctx, paymentID, amountMinor, currency)
	if err != nil {
		log.Errorw("payment_capture_gateway_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	log.Infow("payment_capture_gateway_succeeded",
		"amount_minor", amountMinor,
		"currency", currency,
		"gateway_status", payment.Status,
	)

	record := &models.PaymentRecord{
		OrderID:   strings.TrimSpace(payment.OrderID),
		PaymentID: paymentID,
		Amount:    models.NewMoneyFromDecimal(input.Amount.Decimal),
		Currency:  currency,
		Status:    constants.PaymentStatusCaptured,
	}
	current, _, err := s.recordRepo.UpsertByPaymentID(ctx, record, repository.CapturedColumns)
	if err != nil {
		log.Errorw("payment_capture_persist_failed",
			"error", err,
			"gateway_captured", true,
		)
		s.enqueueCaptureReconcile(queue.CaptureReconcilePayload{
			PaymentID: paymentID,
			OrderID:   record.OrderID,
			Amount:    input.Amount.String(),
			Currency:  currency,
		})
		return nil, fmt.Errorf("%w: payment %s captured by processor but not recorded: %v", ErrPersistence, paymentID, err)
	}
	log.Infow("payment_captured", "status", current.Status)
	return &CapturePaymentResult{Payment: payment, Record: current}, nil
}

// ReconcileCapture 重放处理方已接受的捕获，按状态推进规则幂等
func (s *PaymentService) ReconcileCapture(input ReconcileCaptureInput) (*models.PaymentRecord, error) {
	paymentID := strings.TrimSpace(input.PaymentID)
	log := paymentLogger("payment_id", paymentID)
	if paymentID == "" {
		log.Warnw("payment_capture_reconcile_missing_payment_id")
		return nil, fmt.Errorf("%w: payment id is required", ErrValidation)
	}
	record := &models.PaymentRecord{
		OrderID:   strings.TrimSpace(input.OrderID),
		PaymentID: paymentID,
		Amount:    models.NewMoneyFromDecimal(input.Amount.Decimal),
		Currency:  s.resolveCurrency(input.Currency),
		Status:    constants.PaymentStatusCaptured,
	}
	current, applied, err := s.recordRepo.UpsertByPaymentID(contextOrBackground(input.Context), record, repository.CapturedColumns)
	if err != nil {
		log.Errorw("payment_capture_reconcile_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Infow("payment_capture_reconciled",
		"applied", applied,
		"status", current.Status,
	)
	return current, nil
}

// ParseReconcileAmount 解析补偿任务中的金额字符串
func ParseReconcileAmount(raw string) (models.Money, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.Money{}, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return models.Money{}, fmt.Errorf("%w: amount is invalid", ErrValidation)
	}
	return models.NewMoneyFromDecimal(amount), nil
}

func (s *PaymentService) captureCurrency(ctx context.Context, paymentID, requested string) string {
	if strings.TrimSpace(requested) != "" {
		return s.resolveCurrency(requested)
	}
	existing, err := s.recordRepo.GetByPaymentID(ctx, paymentID)
	if err == nil && existing != nil && strings.TrimSpace(existing.Currency) != "" {
		return existing.Currency
	}
	return s.defaultCurrency
}

func (s *PaymentService) enqueueCaptureReconcile(payload queue.CaptureReconcilePayload) {
	log := paymentLogger("payment_id", payload.PaymentID)
	if s.reconcileQueue == nil || !s.reconcileQueue.Enabled() {
		log.Warnw("payment_capture_reconcile_skipped", "reason", "queue_disabled")
		return
	}
	if err := s.reconcileQueue.EnqueueCaptureReconcile(payload); err != nil {
		log.Errorw("payment_capture_reconcile_enqueue_failed", "error", err)
		return
	}
	log.Infow("payment_capture_reconcile_enqueued")
}
