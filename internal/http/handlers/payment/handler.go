package payment

import "github.com/paybridge/internal/provider"

// Handler 支付接口处理器
type Handler struct {
	*provider.Container
}

// New 创建支付处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
