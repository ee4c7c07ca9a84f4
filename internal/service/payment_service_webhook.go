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

// WebhookInput webhook 投递输入，Body 为未经解析的原始请求体
type WebhookInput struct {
	Body      []byte
	Signature string
	EventID   string
	Context   context.Context
}

// WebhookResult webhook 处理结果
type WebhookResult struct {
	Event     string
	PaymentID string
	Processed bool // 是否写入了支付记录
	Duplicate bool // 事件已处理过，直接确认
	Record    *models.PaymentRecord
}

// HandleWebhook 验签后处理 webhook，仅 payment.captured 触发写入，其余事件直接确认
func (s *PaymentService) HandleWebhook(input WebhookInput) (*WebhookResult, error) {
	ctx := contextOrBackground(input.Context)
	eventID := strings.TrimSpace(input.EventID)
	log := paymentLogger(
		"event_id", eventID,
		"body_size", len(input.Body),
	)

	if !razorpay.VerifyWebhookSignature(s.webhookSecret, input.Body, input.Signature) {
		log.Warnw("payment_webhook_signature_invalid", "signature", logger.Mask(input.Signature))
		return nil, ErrInvalidSignature
	}

	if s.eventMarker != nil && eventID != "" {
		seen, err := s.eventMarker.Seen(ctx, eventID)
		if err != nil {
			log.Warnw("payment_webhook_replay_check_failed", "error", err)
		} else if seen {
			log.Infow("payment_webhook_duplicate_ignored")
			return &WebhookResult{Duplicate: true}, nil
		}
	}

	event, err := razorpay.ParseWebhookEvent(input.Body)
	if err != nil {
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	log = log.With(
		"event", event.Event,
		"payment_id", event.PaymentID,
	)
	result := &WebhookResult{Event: event.Event, PaymentID: event.PaymentID}

	if event.Event != constants.WebhookEventPaymentCaptured {
		log.Infow("payment_webhook_event_ignored")
		s.recordWebhookLog(ctx, eventID, event, false)
		s.markWebhookEvent(ctx, eventID)
		return result, nil
	}
	if !event.HasPaymentEntity() {
		log.Warnw("payment_webhook_payment_entity_missing")
		return nil, fmt.Errorf("%w: payment entity is missing", ErrValidation)
	}
	if event.AmountMinor < 0 {
		log.Warnw("payment_webhook_invalid_amount", "amount_minor", event.AmountMinor)
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	record := &models.PaymentRecord{
		OrderID:   event.OrderID,
		PaymentID: event.PaymentID,
		Amount:    models.NewMoneyFromMinor(event.AmountMinor),
		Currency:  s.resolveCurrency(event.Currency),
		Status:    constants.PaymentStatusCaptured,
	}
	current, applied, err := s.recordRepo.UpsertByPaymentID(ctx, record, webhookCapturedColumns(event))
	if err != nil {
		log.Errorw("payment_webhook_persist_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	result.Processed = applied
	result.Record = current
	log.Infow("payment_webhook_captured",
		"applied", applied,
		"amount", current.Amount.String(),
		"currency", current.Currency,
	)
	s.recordWebhookLog(ctx, eventID, event, applied)
	s.markWebhookEvent(ctx, eventID)
	return result, nil
}

// webhookCapturedColumns 只覆盖事件中实际携带的字段
func webhookCapturedColumns(event *razorpay.WebhookEvent) []string {
	columns := make([]string, 0, len(repository.WebhookColumns)+1)
	for _, column := range repository.WebhookColumns {
		switch {
		case column == "amount" && event.AmountMinor <= 0:
		case column == "currency" && event.Currency == "":
		default:
			columns = append(columns, column)
		}
	}
	if event.OrderID != "" {
		columns = append(columns, "order_id")
	}
	return columns
}

func (s *PaymentService) recordWebhookLog(ctx context.Context, eventID string, event *razorpay.WebhookEvent, processed bool) {
	if s.webhookLogRepo == nil || event == nil {
		return
	}
	entry := &models.PaymentWebhookLog{
		EventID:   eventID,
		EventType: event.Event,
		PaymentID: event.PaymentID,
		Processed: processed,
		Payload:   models.JSON(event.Raw),
	}
	if err := s.webhookLogRepo.Create(ctx, entry); err != nil {
		paymentLogger("event_id", eventID, "event", event.Event).Warnw("payment_webhook_log_write_failed", "error", err)
	}
}

func (s *PaymentService) markWebhookEvent(ctx context.Context, eventID string) {
	if s.eventMarker == nil || eventID == "" {
		return
	}
	if err := s.eventMarker.MarkProcessed(ctx, eventID); err != nil {
		paymentLogger("event_id", eventID).Warnw("payment_webhook_replay_mark_failed", "error", err)
	}
}
