package payment

import (
	"io"
	"net/http"
	"strings"

	"github.com/paybridge/internal/constants"
	handlershared "github.com/paybridge/internal/http/handlers/shared"
	"github.com/paybridge/internal/http/response"
	"github.com/paybridge/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// Webhook 接收处理方 webhook，验签使用未经解析的原始请求体
func (h *Handler) Webhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("payment_webhook_body_read_failed", "error", err)
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	eventID := strings.TrimSpace(c.GetHeader(constants.HeaderRazorpayEventID))
	log.Infow("payment_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"event_id", eventID,
	)

	result, err := h.PaymentService.HandleWebhook(service.WebhookInput{
		Body:      body,
		Signature: c.GetHeader(constants.HeaderRazorpaySignature),
		EventID:   eventID,
		Context:   c.Request.Context(),
	})
	if err != nil {
		respondWebhookError(c, err)
		return
	}
	log.Infow("payment_webhook_acknowledged",
		"event", result.Event,
		"payment_id", result.PaymentID,
		"processed", result.Processed,
		"duplicate", result.Duplicate,
	)
	response.Ack(c)
}
