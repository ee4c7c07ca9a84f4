package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRecordKeyMissing 缺少 upsert 所需的业务键
var ErrRecordKeyMissing = errors.New("payment record key missing")

// 各事件允许覆盖的列
var (
	VerifiedColumns = []string{"order_id", "signature", "amount", "currency", "status", "captured"}
	CapturedColumns = []string{"status", "captured"}
	WebhookColumns  = []string{"status", "captured", "amount", "currency"}
)

// PaymentRecordRepository 支付记录数据访问接口
type PaymentRecordRepository interface {
	UpsertByPaymentID(ctx context.Context, record *models.PaymentRecord, columns []string) (*models.PaymentRecord, bool, error)
	UpsertByOrderID(ctx context.Context, record *models.PaymentRecord, columns []string) (*models.PaymentRecord, bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRecord, error)
	List(ctx context.Context, filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error)
}

// GormPaymentRecordRepository GORM 实现
type GormPaymentRecordRepository struct {
	db *gorm.DB
}

// NewPaymentRecordRepository 创建支付记录仓库
func NewPaymentRecordRepository(db *gorm.DB) *GormPaymentRecordRepository {
	return &GormPaymentRecordRepository{db: db}
}

// UpsertByPaymentID 按 payment_id 原子 upsert。
// 冲突时仅当已有状态不晚于新状态才覆盖 columns，返回当前落库记录以及本次写入是否生效。
func (r *GormPaymentRecordRepository) UpsertByPaymentID(ctx context.Context, record *models.PaymentRecord, columns []string) (*models.PaymentRecord, bool, error) {
	if record == nil || strings.TrimSpace(record.PaymentID) == "" {
		return nil, false, ErrRecordKeyMissing
	}
	normalizeRecord(record)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoUpdates: clause.AssignmentColumns(withUpdatedAt(columns)),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "payment_records.status IN ?", Vars: []interface{}{statusesNotAfter(record.Status)}},
		}},
	}).Create(record)
	if result.Error != nil {
		return nil, false, result.Error
	}

	current, err := r.GetByPaymentID(ctx, record.PaymentID)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return current, result.RowsAffected > 0, nil
}

// UpsertByOrderID 按 order_id 匹配或插入。
// 先在 payment_order_guards 中占位并加行锁，同一 order_id 的写入在事务内串行执行。
func (r *GormPaymentRecordRepository) UpsertByOrderID(ctx context.Context, record *models.PaymentRecord, columns []string) (*models.PaymentRecord, bool, error) {
	if record == nil || strings.TrimSpace(record.OrderID) == "" {
		return nil, false, ErrRecordKeyMissing
	}
	normalizeRecord(record)

	var current models.PaymentRecord
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guard := models.PaymentOrderGuard{OrderID: record.OrderID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&guard).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", record.OrderID).
			First(&guard).Error; err != nil {
			return err
		}

		found := tx.Where("order_id = ?", record.OrderID).
			Order("id asc").
			Limit(1).
			Find(&current)
		if found.Error != nil {
			return found.Error
		}
		if found.RowsAffected == 0 {
			if strings.TrimSpace(record.PaymentID) == "" {
				return ErrRecordKeyMissing
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			current = *record
			applied = true
			return nil
		}
		if models.StatusRank(current.Status) > models.StatusRank(record.Status) {
			return nil
		}
		updates := make(map[string]interface{}, len(columns)+1)
		for _, column := range columns {
			if value, ok := columnValue(record, column); ok {
				updates[column] = value
			}
		}
		updates["updated_at"] = time.Now()
		if err := tx.Model(&current).Updates(updates).Error; err != nil {
			return err
		}
		applied = true
		return tx.First(&current, current.ID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &current, applied, nil
}

// GetByPaymentID 根据处理方支付号获取记录
func (r *GormPaymentRecordRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, nil
	}
	var record models.PaymentRecord
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List 按创建时间倒序列出支付记录，PageSize <= 0 时返回全部
func (r *GormPaymentRecordRepository) List(ctx context.Context, filter PaymentRecordListFilter) ([]models.PaymentRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	records := make([]models.PaymentRecord, 0)
	if err := query.Order("created_at desc").Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func normalizeRecord(record *models.PaymentRecord) {
	record.OrderID = strings.TrimSpace(record.OrderID)
	record.PaymentID = strings.TrimSpace(record.PaymentID)
	record.Currency = strings.ToUpper(strings.TrimSpace(record.Currency))
	if record.Currency == "" {
		record.Currency = constants.CurrencyDefault
	}
	record.Captured = record.Status == constants.PaymentStatusCaptured
}

func withUpdatedAt(columns []string) []string {
	out := make([]string, 0, len(columns)+1)
	out = append(out, columns...)
	return append(out, "updated_at")
}

// statusesNotAfter 返回推进顺序不晚于 status 的全部状态，作为覆盖条件
func statusesNotAfter(status string) []string {
	rank := models.StatusRank(status)
	all := []string{
		constants.PaymentStatusVerified,
		constants.PaymentStatusFailed,
		constants.PaymentStatusCaptured,
		constants.PaymentStatusRefunded,
	}
	out := make([]string, 0, len(all))
	for _, item := range all {
		if models.StatusRank(item) <= rank {
			out = append(out, item)
		}
	}
	return out
}

func columnValue(record *models.PaymentRecord, column string) (interface{}, bool) {
	switch column {
	case "order_id":
		return record.OrderID, true
	case "payment_id":
		return record.PaymentID, true
	case "signature":
		return record.Signature, true
	case "amount":
		return record.Amount, true
	case "currency":
		return record.Currency, true
	case "status":
		return record.Status, true
	case "captured":
		return record.Captured, true
	default:
		return nil, false
	}
}
