package queue

import (
	"encoding/json"
	"strings"

	"github.com/paybridge/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPaymentCaptureReconcile 捕获成功但落库失败后的补偿任务
	TaskPaymentCaptureReconcile = constants.TaskPaymentCaptureRetry
)

// CaptureReconcilePayload 捕获补偿任务载荷，金额为主货币单位字符串
type CaptureReconcilePayload struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id,omitempty"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// NewCaptureReconcileTask 创建捕获补偿任务
func NewCaptureReconcileTask(payload CaptureReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentCaptureReconcile, body), nil
}

// ParseCaptureReconcilePayload 解析捕获补偿任务载荷
func ParseCaptureReconcilePayload(body []byte) (CaptureReconcilePayload, error) {
	var payload CaptureReconcilePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, err
	}
	payload.PaymentID = strings.TrimSpace(payload.PaymentID)
	payload.Currency = strings.ToUpper(strings.TrimSpace(payload.Currency))
	return payload, nil
}
