package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/provider"
	"github.com/paybridge/internal/queue"
	"github.com/paybridge/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPaymentCaptureReconcile, c.handleCaptureReconcile)
}

// handleCaptureReconcile 重放已被处理方接受但未落库的捕获。
// 载荷错误不重试，存储错误交给 asynq 按 MaxRetry 退避重试。
func (c *Consumer) handleCaptureReconcile(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_capture_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseCaptureReconcilePayload(task.Payload())
	if err != nil {
		logger.Warnw("worker_capture_reconcile_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.PaymentID == "" {
		logger.Warnw("worker_capture_reconcile_skip_invalid_payload", "order_id", payload.OrderID)
		return fmt.Errorf("payment id is required: %w", asynq.SkipRetry)
	}
	amount, err := service.ParseReconcileAmount(payload.Amount)
	if err != nil {
		logger.Warnw("worker_capture_reconcile_invalid_amount", "payment_id", payload.PaymentID, "amount", payload.Amount)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_capture_reconcile_skip_service_nil", "payment_id", payload.PaymentID)
		return errors.New("payment service not initialized")
	}

	record, err := c.PaymentService.ReconcileCapture(service.ReconcileCaptureInput{
		PaymentID: payload.PaymentID,
		OrderID:   payload.OrderID,
		Amount:    amount,
		Currency:  payload.Currency,
		Context:   ctx,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			logger.Warnw("worker_capture_reconcile_rejected", "payment_id", payload.PaymentID, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			logger.Warnw("worker_capture_reconcile_failed", "payment_id", payload.PaymentID, "error", err)
			return err
		}
	}
	logger.Infow("worker_capture_reconcile_applied",
		"payment_id", payload.PaymentID,
		"status", record.Status,
	)
	return nil
}
