package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paybridge/internal/config"
	"github.com/paybridge/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 资金相关补偿队列
	CriticalQueue = constants.QueueCritical

	defaultMaxRetry = 10
)

// Client 队列客户端封装
type Client struct {
	client   *asynq.Client
	enabled  bool
	maxRetry int
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, maxRetry: defaultMaxRetry}, nil
	}
	maxRetry := cfg.MaxRetry
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	return &Client{
		client:   asynq.NewClient(buildRedisOpt(cfg)),
		enabled:  true,
		maxRetry: maxRetry,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCaptureReconcile 推送捕获补偿任务，同一支付号在保留期内只入队一次
func (c *Client) EnqueueCaptureReconcile(payload CaptureReconcilePayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewCaptureReconcileTask(payload)
	if err != nil {
		return err
	}
	options := append([]asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(c.maxRetry),
		asynq.TaskID(captureReconcileTaskID(payload.PaymentID)),
	}, opts...)
	_, err = c.client.Enqueue(task, options...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func captureReconcileTaskID(paymentID string) string {
	return TaskPaymentCaptureReconcile + ":" + strings.TrimSpace(paymentID)
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
