package provider

import (
	"time"

	"github.com/paybridge/internal/cache"
	"github.com/paybridge/internal/config"
	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/payment/razorpay"
	"github.com/paybridge/internal/queue"
	"github.com/paybridge/internal/repository"
	"github.com/paybridge/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	PaymentRecordRepo     repository.PaymentRecordRepository
	PaymentWebhookLogRepo repository.PaymentWebhookLogRepository

	// Gateway
	RazorpayClient *razorpay.Client

	// Services
	PaymentService *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化处理方客户端
	c.initGateway()

	// 3. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.PaymentRecordRepo = repository.NewPaymentRecordRepository(db)
	c.PaymentWebhookLogRepo = repository.NewPaymentWebhookLogRepository(db)
}

func (c *Container) initGateway() {
	client, err := razorpay.NewClient(razorpay.Config{
		KeyID:      c.Config.Razorpay.KeyID,
		KeySecret:  c.Config.Razorpay.KeySecret,
		APIBaseURL: c.Config.Razorpay.APIBaseURL,
		Timeout:    time.Duration(c.Config.Razorpay.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Errorw("provider_init_razorpay_failed", "error", err)
		panic(err)
	}
	c.RazorpayClient = client
}

func (c *Container) initServices() {
	c.PaymentService = service.NewPaymentService(service.PaymentServiceConfig{
		KeySecret:       c.Config.Razorpay.KeySecret,
		WebhookSecret:   c.Config.Razorpay.WebhookSecret,
		DefaultCurrency: c.Config.Razorpay.DefaultCurrency,
	}, c.RazorpayClient, c.PaymentRecordRepo, c.PaymentWebhookLogRepo, cache.NewWebhookEventStore(), c.QueueClient)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
