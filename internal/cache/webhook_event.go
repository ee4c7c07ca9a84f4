package cache

import (
	"context"
	"strings"
	"time"

	"github.com/paybridge/internal/constants"
)

const webhookEventReplayTTL = time.Duration(constants.WebhookEventReplayTTLSecond) * time.Second

// WebhookEventStore 基于 Redis 的 webhook 事件处理标记
// Redis 未启用时所有事件视为未处理，标记写入为空操作。
type WebhookEventStore struct {
	ttl time.Duration
}

// NewWebhookEventStore 创建事件标记存储
func NewWebhookEventStore() *WebhookEventStore {
	return &WebhookEventStore{ttl: webhookEventReplayTTL}
}

func webhookEventKey(eventID string) string {
	return "webhook:event:" + strings.TrimSpace(eventID)
}

// Seen 事件是否已被成功处理
func (s *WebhookEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, nil
	}
	return Exists(ctx, webhookEventKey(eventID))
}

// MarkProcessed 记录事件已处理
func (s *WebhookEventStore) MarkProcessed(ctx context.Context, eventID string) error {
	if strings.TrimSpace(eventID) == "" {
		return nil
	}
	_, err := SetNX(ctx, webhookEventKey(eventID), time.Now().Unix(), s.ttl)
	return err
}
