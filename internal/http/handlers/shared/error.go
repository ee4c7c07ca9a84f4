package shared

import (
	"github.com/paybridge/internal/http/response"
	"github.com/paybridge/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, &response.AppError{Code: code, Message: msg, Err: err})
}

// RespondAppError 输出 AppError，服务端错误记 error 级别，其余记 warn。
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		log := RequestLog(c)
		fields := []interface{}{
			"code", appErr.Code,
			"message", appErr.Message,
			"error", appErr.Err,
		}
		if appErr.Internal() {
			log.Errorw("handler_error", fields...)
		} else {
			log.Warnw("handler_error", fields...)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
