package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

const apiReadHeaderTimeout = 10 * time.Second

// APIService 支付接口 HTTP 服务
type APIService struct {
	server *http.Server
}

// NewAPIService 创建支付接口服务
func NewAPIService(addr string, handler http.Handler) *APIService {
	return &APIService{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: apiReadHeaderTimeout,
		},
	}
}

// Name 服务名称，与启动模式一致
func (s *APIService) Name() string {
	return ModeAPI
}

// Start 监听并阻塞，请求上下文继承 ctx
func (s *APIService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("api server not initialized")
	}
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 等待进行中的请求完成，超过 ctx 期限后强制关闭
func (s *APIService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
