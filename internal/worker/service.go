package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/paybridge/internal/config"
	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 捕获补偿任务消费服务
type Service struct {
	server       *asynq.Server
	mux          *asynq.ServeMux
	shutdownOnce sync.Once
}

// NewService 创建消费服务，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 启动消费并阻塞到 ctx 结束，随后等待进行中的补偿任务完成
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_started", "task", queue.TaskPaymentCaptureReconcile)
	<-ctx.Done()
	s.shutdown()
	return nil
}

// Stop 关闭消费；asynq 按 ShutdownTimeout 等待进行中的任务，ctx 到期后不再等待
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.shutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) shutdown() {
	s.shutdownOnce.Do(s.server.Shutdown)
}
