package repository

import (
	"context"

	"github.com/paybridge/internal/models"

	"gorm.io/gorm"
)

// PaymentWebhookLogRepository webhook 投递记录数据访问接口
type PaymentWebhookLogRepository interface {
	Create(ctx context.Context, log *models.PaymentWebhookLog) error
	ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentWebhookLog, error)
}

// GormPaymentWebhookLogRepository GORM 实现
type GormPaymentWebhookLogRepository struct {
	db *gorm.DB
}

// NewPaymentWebhookLogRepository 创建 webhook 投递记录仓库
func NewPaymentWebhookLogRepository(db *gorm.DB) *GormPaymentWebhookLogRepository {
	return &GormPaymentWebhookLogRepository{db: db}
}

// Create 写入投递记录
func (r *GormPaymentWebhookLogRepository) Create(ctx context.Context, log *models.PaymentWebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByPaymentID 获取某笔支付的投递记录
func (r *GormPaymentWebhookLogRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentWebhookLog, error) {
	var logs []models.PaymentWebhookLog
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("id asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
