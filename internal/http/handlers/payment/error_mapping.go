package payment

import (
	handlershared "github.com/paybridge/internal/http/handlers/shared"
	"github.com/paybridge/internal/http/response"
	"github.com/paybridge/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInvalidSignature        = "Invalid signature"
	msgInvalidWebhookSignature = "Invalid webhook signature"
	msgPersistenceFailed       = "payment record persistence failed"
	msgInternal                = "internal server error"
)

var internalErrorRule = response.ErrorRule{Code: response.CodeInternal, Message: msgInternal}

var paymentCommonErrorRules = []response.ErrorRule{
	{Target: service.ErrValidation, Code: response.CodeBadRequest},
	{Target: service.ErrUpstream, Code: response.CodeInternal},
	{Target: service.ErrPersistence, Code: response.CodeInternal, Message: msgPersistenceFailed},
}

var webhookErrorRules = []response.ErrorRule{
	{Target: service.ErrInvalidSignature, Code: response.CodeBadRequest, Message: msgInvalidWebhookSignature},
	{Target: service.ErrValidation, Code: response.CodeBadRequest},
	{Target: service.ErrPersistence, Code: response.CodeInternal, Message: msgPersistenceFailed},
}

func respondPaymentError(c *gin.Context, err error) {
	handlershared.RespondAppError(c, response.MapError(err, paymentCommonErrorRules, internalErrorRule))
}

func respondWebhookError(c *gin.Context, err error) {
	handlershared.RespondAppError(c, response.MapError(err, webhookErrorRules, internalErrorRule))
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}
