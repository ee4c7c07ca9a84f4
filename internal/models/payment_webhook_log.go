package models

import "time"

// PaymentWebhookLog 已通过验签的 webhook 投递记录
type PaymentWebhookLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	EventID   string    `gorm:"size:64;index" json:"event_id"`
	EventType string    `gorm:"size:64;index;not null" json:"event_type"`
	PaymentID string    `gorm:"size:64;index" json:"payment_id"`
	Processed bool      `gorm:"not null;default:false" json:"processed"` // 是否触发了状态写入
	Payload   JSON      `gorm:"type:json" json:"payload"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (PaymentWebhookLog) TableName() string {
	return "payment_webhook_logs"
}
