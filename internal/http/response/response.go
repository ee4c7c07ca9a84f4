package response

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrorBody 错误响应结构
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ResultBody 核验/捕获结果响应结构
type ResultBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// AckBody webhook 确认响应
type AckBody struct {
	Received bool `json:"received"`
}

// Pagination 分页信息，通过响应头返回以保持列表为纯数组
type Pagination struct {
	Page     int
	PageSize int
	Total    int64
}

// JSON 原样输出数据
func JSON(c *gin.Context, data interface{}) {
	c.JSON(CodeOK, data)
}

// Result 成功结果
func Result(c *gin.Context, data interface{}) {
	c.JSON(CodeOK, ResultBody{Success: true, Data: data})
}

// ResultFailed 业务失败结果，例如签名不匹配
func ResultFailed(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, ResultBody{Success: false, Message: msg})
}

// Ack webhook 已接收
func Ack(c *gin.Context) {
	c.JSON(CodeOK, AckBody{Received: true})
}

// List 列表响应，分页信息写入 X-Total-Count 等响应头
func List(c *gin.Context, data interface{}, pagination Pagination) {
	c.Header("X-Total-Count", strconv.FormatInt(pagination.Total, 10))
	if pagination.PageSize > 0 {
		c.Header("X-Page", strconv.Itoa(pagination.Page))
		c.Header("X-Page-Size", strconv.Itoa(pagination.PageSize))
	}
	c.JSON(CodeOK, data)
}

// Error 错误响应
func Error(c *gin.Context, statusCode int, msg string) {
	c.JSON(statusCode, ErrorBody{
		Error:     msg,
		RequestID: requestID(c),
	})
}

// AbortError 中断后续处理并返回错误
func AbortError(c *gin.Context, statusCode int, msg string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{
		Error:     msg,
		RequestID: requestID(c),
	})
}

// BadRequest 400响应
func BadRequest(c *gin.Context, msg string) {
	Error(c, CodeBadRequest, msg)
}

// Unauthorized 401响应
func Unauthorized(c *gin.Context, msg string) {
	AbortError(c, CodeUnauthorized, msg)
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
