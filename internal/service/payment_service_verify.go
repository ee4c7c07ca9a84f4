package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"
	"github.com/paybridge/internal/repository"
)

// VerifyPaymentInput checkout 回调核验输入，金额为主货币单位
type VerifyPaymentInput struct {
	OrderID   string
	PaymentID string
	Signature string
	Amount    models.Money
	Currency  string
	Context   context.Context
}

// VerifyClientPayment 校验客户端回调签名并记录 verified 状态。
// 已捕获的记录不会被降级，此时返回当前记录。
func (s *PaymentService) VerifyClientPayment(input VerifyPaymentInput) (*models.PaymentRecord, error) {
	orderID := strings.TrimSpace(input.OrderID)
	paymentID := strings.TrimSpace(input.PaymentID)
	log := paymentLogger(
		"order_id", orderID,
		"payment_id", paymentID,
		"signature", logger.Mask(input.Signature),
	)

	if !razorpay.VerifyClientSignature(s.keySecret, orderID, paymentID, input.Signature) {
		log.Warnw("payment_verify_signature_invalid")
		return nil, ErrInvalidSignature
	}
	if orderID == "" || paymentID == "" {
		log.Warnw("payment_verify_missing_identifier")
		return nil, fmt.Errorf("%w: order id and payment id are required", ErrValidation)
	}
	if input.Amount.IsNegative() {
		log.Warnw("payment_verify_invalid_amount", "amount", input.Amount.String())
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	record := &models.PaymentRecord{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: strings.TrimSpace(input.Signature),
		Amount:    models.NewMoneyFromDecimal(input.Amount.Decimal),
		Currency:  s.resolveCurrency(input.Currency),
		Status:    constants.PaymentStatusVerified,
	}
	current, applied, err := s.recordRepo.UpsertByPaymentID(contextOrBackground(input.Context), record, repository.VerifiedColumns)
	if err != nil {
		log.Errorw("payment_verify_persist_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !applied {
		log.Infow("payment_verify_skipped_advanced_status", "status", current.Status)
		return current, nil
	}
	log.Infow("payment_verified",
		"amount", current.Amount.String(),
		"currency", current.Currency,
	)
	return current, nil
}
