package service

import "errors"

// 支付核心错误，handler 按 errors.Is 映射为 HTTP 状态码
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrValidation       = errors.New("invalid request")
	ErrUpstream         = errors.New("payment processor request failed")
	ErrPersistence      = errors.New("payment record persistence failed")
)
