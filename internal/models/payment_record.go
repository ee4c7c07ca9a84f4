package models

import (
	"time"

	"github.com/paybridge/internal/constants"
)

// PaymentRecord 支付记录，PaymentID 为处理方分配的唯一键
type PaymentRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   string    `gorm:"size:64;index" json:"orderId"`                        // 处理方订单号
	PaymentID string    `gorm:"size:64;uniqueIndex;not null" json:"paymentId"`       // 处理方支付号
	Signature string    `gorm:"size:128" json:"signature"`                           // 客户端回调签名（审计）
	Amount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 主货币单位
	Currency  string    `gorm:"size:8;not null;default:'INR'" json:"currency"`       // 币种
	Status    string    `gorm:"size:16;index;not null" json:"status"`                // verified / captured
	Captured  bool      `gorm:"not null;default:false" json:"captured"`              // 与 status == captured 等价
	CreatedAt time.Time `gorm:"index;<-:create" json:"createdAt"`                    // 首次写入时间，不可变
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (PaymentRecord) TableName() string {
	return "payment_records"
}

// IsCaptured 是否已完成捕获
func (p *PaymentRecord) IsCaptured() bool {
	return p != nil && p.Status == constants.PaymentStatusCaptured
}

// StatusRank 返回状态在推进顺序中的位置，数值越大越靠后
func StatusRank(status string) int {
	switch status {
	case constants.PaymentStatusVerified, constants.PaymentStatusFailed:
		return 1
	case constants.PaymentStatusCaptured:
		return 2
	case constants.PaymentStatusRefunded:
		return 3
	default:
		return 0
	}
}

// PaymentOrderGuard 按订单号写入时的行锁锚点，每个 order_id 一行
type PaymentOrderGuard struct {
	OrderID   string    `gorm:"primaryKey;size:64" json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (PaymentOrderGuard) TableName() string {
	return "payment_order_guards"
}
