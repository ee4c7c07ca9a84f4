package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/paybridge/internal/http/response"
	"github.com/paybridge/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// maxKeyedBodyBytes 限流前读取请求体的上限，核验请求体远小于此值
const maxKeyedBodyBytes = 64 << 10

const (
	msgRateLimitUnavailable = "rate limit unavailable"
	msgRateLimitDefault     = "too many requests"
	msgBodyTooLarge         = "request body too large"
	msgInvalidBody          = "invalid request body"
)

// RateLimitKeyFunc 生成限流 key，返回错误时直接拒绝请求
type RateLimitKeyFunc func(*gin.Context) (string, error)

// RateLimitRule 固定窗口限流规则，WindowSeconds 或 MaxRequests <= 0 时不限流
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
}

// 返回 {当前计数, 剩余秒数}
var rateLimitScript = redis.NewScript(`
redis.call("SET", KEYS[1], 0, "EX", ARGV[1], "NX")
local current = redis.call("INCR", KEYS[1])
return {current, redis.call("TTL", KEYS[1])}
`)

// RateLimitMiddleware 基于 Redis 的限流中间件，未配置 Redis 时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		key := c.ClientIP()
		if keyFunc != nil {
			k, err := keyFunc(c)
			if err != nil {
				abortKeyError(c, err)
				return
			}
			if k = strings.TrimSpace(k); k != "" {
				key = k
			}
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			logger.Errorw("rate_limit_script_failed", "prefix", rule.Prefix, "error", err)
			response.AbortError(c, response.CodeInternal, msgRateLimitUnavailable)
			return
		}
		if values[0] > int64(rule.MaxRequests) {
			retryAfter := retryAfterSeconds(values[1], rule.WindowSeconds)
			msg := strings.TrimSpace(rule.Message)
			if msg == "" {
				msg = msgRateLimitDefault
			}
			logger.Warnw("rate_limit_exceeded", "prefix", rule.Prefix, "client_ip", c.ClientIP(), "count", values[0])
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.AbortError(c, response.CodeTooManyRequests, fmt.Sprintf("%s, retry after %ds", msg, retryAfter))
			return
		}

		c.Next()
	}
}

func retryAfterSeconds(ttl int64, window int) int {
	if ttl > 0 {
		return int(ttl)
	}
	if window > 0 {
		return window
	}
	return 1
}

func abortKeyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.AbortError(c, response.CodeRequestTooLarge, msgBodyTooLarge)
		return
	}
	response.AbortError(c, response.CodeBadRequest, msgInvalidBody)
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) (string, error) {
	return c.ClientIP(), nil
}

// KeyByOrderIDAndIP 按 JSON 请求体中的订单号 + IP 限流，缺少订单号时退化为 IP
func KeyByOrderIDAndIP(field string) RateLimitKeyFunc {
	return func(c *gin.Context) (string, error) {
		orderID, err := peekJSONString(c, field)
		if err != nil {
			return "", err
		}
		orderID = strings.ToLower(orderID)
		if orderID == "" {
			return c.ClientIP(), nil
		}
		return orderID + "|" + c.ClientIP(), nil
	}
}

// peekJSONString 读取请求体中的字符串字段后还原请求体，读取量受 maxKeyedBodyBytes 限制
func peekJSONString(c *gin.Context, field string) (string, error) {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxKeyedBodyBytes))
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return "", nil
	}
	var value string
	if raw, ok := payload[field]; !ok || json.Unmarshal(raw, &value) != nil {
		return "", nil
	}
	return strings.TrimSpace(value), nil
}
