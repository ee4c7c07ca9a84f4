package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/paybridge/internal/constants"
	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"
	"github.com/paybridge/internal/queue"
	"github.com/paybridge/internal/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Gateway 支付处理方适配器
type Gateway interface {
	CreateOrder(ctx context.Context, input razorpay.OrderInput) (*razorpay.Order, error)
	CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*razorpay.Payment, error)
}

// WebhookEventMarker webhook 事件处理标记
type WebhookEventMarker interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

// CaptureReconcileQueue 捕获补偿任务队列
type CaptureReconcileQueue interface {
	Enabled() bool
	EnqueueCaptureReconcile(payload queue.CaptureReconcilePayload, opts ...asynq.Option) error
}

// PaymentServiceConfig 验签密钥与默认币种
type PaymentServiceConfig struct {
	KeySecret       string
	WebhookSecret   string
	DefaultCurrency string
}

// PaymentService 支付核验与对账服务
type PaymentService struct {
	keySecret       string
	webhookSecret   string
	defaultCurrency string
	gateway         Gateway
	recordRepo      repository.PaymentRecordRepository
	webhookLogRepo  repository.PaymentWebhookLogRepository
	eventMarker     WebhookEventMarker
	reconcileQueue  CaptureReconcileQueue
}

// NewPaymentService 创建支付服务
func NewPaymentService(cfg PaymentServiceConfig, gateway Gateway, recordRepo repository.PaymentRecordRepository, webhookLogRepo repository.PaymentWebhookLogRepository, eventMarker WebhookEventMarker, reconcileQueue CaptureReconcileQueue) *PaymentService {
	currency := strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))
	if currency == "" {
		currency = constants.CurrencyDefault
	}
	return &PaymentService{
		keySecret:       cfg.KeySecret,
		webhookSecret:   cfg.WebhookSecret,
		defaultCurrency: currency,
		gateway:         gateway,
		recordRepo:      recordRepo,
		webhookLogRepo:  webhookLogRepo,
		eventMarker:     eventMarker,
		reconcileQueue:  reconcileQueue,
	}
}

// CreateOrderInput 创建订单输入，金额为主货币单位
type CreateOrderInput struct {
	Amount   models.Money
	Currency string
	Receipt  string
	Notes    map[string]string
	Context  context.Context
}

// ListTransactionsInput 交易列表查询，PageSize <= 0 返回全部
type ListTransactionsInput struct {
	Page     int
	PageSize int
	Status   string
	Context  context.Context
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func (s *PaymentService) resolveCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return s.defaultCurrency
	}
	return currency
}

// CreateOrder 在处理方创建订单，不写本地记录
func (s *PaymentService) CreateOrder(input CreateOrderInput) (*razorpay.Order, error) {
	currency := s.resolveCurrency(input.Currency)
	log := paymentLogger(
		"amount", input.Amount.String(),
		"currency", currency,
	)
	if !input.Amount.IsPositive() {
		log.Warnw("payment_create_order_invalid_amount")
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	amountMinor, err := input.Amount.ToMinor()
	if err != nil {
		log.Warnw("payment_create_order_invalid_amount", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	receipt := strings.TrimSpace(input.Receipt)
	if receipt == "" {
		receipt = "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}

	order, err := s.gateway.CreateOrder(contextOrBackground(input.Context), razorpay.OrderInput{
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     receipt,
		Notes:       input.Notes,
	})
	if err != nil {
		log.Errorw("payment_create_order_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	log.Infow("payment_order_created",
		"order_id", order.ID,
		"amount_minor", amountMinor,
		"receipt", receipt,
	)
	return order, nil
}

// ListTransactions 按创建时间倒序返回支付记录
func (s *PaymentService) ListTransactions(input ListTransactionsInput) ([]models.PaymentRecord, int64, error) {
	records, total, err := s.recordRepo.List(contextOrBackground(input.Context), repository.PaymentRecordListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Status:   strings.ToLower(strings.TrimSpace(input.Status)),
	})
	if err != nil {
		paymentLogger("page", input.Page, "page_size", input.PageSize).Errorw("payment_list_transactions_failed", "error", err)
		return nil, 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return records, total, nil
}
