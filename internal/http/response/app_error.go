package response

import "errors"

// AppError 接口错误：Message 对外返回，Err 仅用于日志
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Internal 是否为服务端错误
func (e *AppError) Internal() bool {
	return e != nil && e.Code >= CodeInternal
}

// ErrorRule 业务哨兵错误到接口错误的映射，Message 为空时返回原始错误文本
type ErrorRule struct {
	Target  error
	Code    int
	Message string
}

// MapError 按顺序匹配 rules，均未命中时使用 fallback
func MapError(err error, rules []ErrorRule, fallback ErrorRule) *AppError {
	for _, rule := range rules {
		if rule.Target != nil && errors.Is(err, rule.Target) {
			return rule.apply(err)
		}
	}
	return fallback.apply(err)
}

func (r ErrorRule) apply(err error) *AppError {
	msg := r.Message
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &AppError{Code: r.Code, Message: msg, Err: err}
}
