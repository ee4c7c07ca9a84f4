package razorpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookEvent 已验签 webhook 的解析结果
type WebhookEvent struct {
	Event       string
	PaymentID   string
	OrderID     string
	Status      string
	AmountMinor int64
	Currency    string
	Raw         map[string]interface{}
}

// ParseWebhookEvent 解析 webhook 请求体，只应在验签通过后调用
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	event := &WebhookEvent{
		Event: strings.TrimSpace(readString(raw, "event")),
		Raw:   raw,
	}
	if event.Event == "" {
		return nil, fmt.Errorf("%w: missing event", ErrResponseInvalid)
	}

	entity := readMap(readMap(readMap(raw, "payload"), "payment"), "entity")
	if entity == nil {
		return event, nil
	}
	event.PaymentID = strings.TrimSpace(readString(entity, "id"))
	event.OrderID = strings.TrimSpace(readString(entity, "order_id"))
	event.Status = strings.TrimSpace(readString(entity, "status"))
	event.AmountMinor = readInt64(entity, "amount")
	event.Currency = strings.ToUpper(strings.TrimSpace(readString(entity, "currency")))
	return event, nil
}

// HasPaymentEntity 是否携带 payment 实体
func (e *WebhookEvent) HasPaymentEntity() bool {
	return e != nil && e.PaymentID != ""
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode json failed", ErrResponseInvalid)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: json object expected", ErrResponseInvalid)
	}
	return raw, nil
}
