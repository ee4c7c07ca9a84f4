package payment

import (
	"errors"
	"strings"

	handlershared "github.com/paybridge/internal/http/handlers/shared"
	"github.com/paybridge/internal/http/response"
	"github.com/paybridge/internal/models"
	"github.com/paybridge/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求，金额为主货币单位
type CreateOrderRequest struct {
	Amount   models.Money      `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

// VerifyPaymentRequest checkout 回调核验请求
type VerifyPaymentRequest struct {
	OrderID   string       `json:"razorpay_order_id"`
	PaymentID string       `json:"razorpay_payment_id"`
	Signature string       `json:"razorpay_signature"`
	Amount    models.Money `json:"amount"`
	Currency  string       `json:"currency"`
}

// CapturePaymentRequest 捕获请求，金额为主货币单位
type CapturePaymentRequest struct {
	Amount   models.Money `json:"amount"`
	Currency string       `json:"currency"`
}

// ListTransactionsQuery 交易列表查询参数
type ListTransactionsQuery struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
}

// CreateOrder 创建处理方订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	order, err := h.PaymentService.CreateOrder(service.CreateOrderInput{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
		Context:  c.Request.Context(),
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.JSON(c, order.Raw)
}

// VerifyPayment 核验客户端支付回调
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	_, err := h.PaymentService.VerifyClientPayment(service.VerifyPaymentInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Context:   c.Request.Context(),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			requestLog(c).Warnw("payment_verify_rejected",
				"payment_id", strings.TrimSpace(req.PaymentID),
				"client_ip", c.ClientIP(),
			)
			response.ResultFailed(c, response.CodeBadRequest, msgInvalidSignature)
			return
		}
		respondPaymentError(c, err)
		return
	}
	response.Result(c, nil)
}

// CapturePayment 捕获已授权支付
func (h *Handler) CapturePayment(c *gin.Context) {
	var req CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	result, err := h.PaymentService.CapturePayment(service.CapturePaymentInput{
		PaymentID: c.Param("id"),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Context:   c.Request.Context(),
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.Result(c, result.Payment.Raw)
}

// ListTransactions 交易列表，按创建时间倒序
func (h *Handler) ListTransactions(c *gin.Context) {
	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		handlershared.RespondError(c, response.CodeBadRequest, "invalid pagination", err)
		return
	}
	page, pageSize := handlershared.NormalizePagination(query.Page, query.PageSize)
	if subject, ok := handlershared.GetContextString(c, "admin_subject"); ok {
		requestLog(c).Infow("payment_transactions_listed_by_admin", "admin_subject", subject)
	}
	records, total, err := h.PaymentService.ListTransactions(service.ListTransactionsInput{
		Page:     page,
		PageSize: pageSize,
		Status:   query.Status,
		Context:  c.Request.Context(),
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	response.List(c, records, response.Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}
