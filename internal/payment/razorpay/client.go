package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid     = errors.New("razorpay config invalid")
	ErrRequestFailed     = errors.New("razorpay request failed")
	ErrResponseInvalid   = errors.New("razorpay response invalid")
	ErrProcessorRejected = errors.New("razorpay rejected request")
)

const (
	defaultAPIBaseURL = "https://api.razorpay.com"
	defaultTimeout    = 12 * time.Second
	defaultCurrency   = "INR"
)

// Config Razorpay API 配置
type Config struct {
	KeyID      string
	KeySecret  string
	APIBaseURL string
	Timeout    time.Duration
}

// OrderInput 创建订单输入，金额为最小货币单位
type OrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order 处理方订单
type Order struct {
	ID         string
	Entity     string
	Amount     int64
	AmountPaid int64
	AmountDue  int64
	Currency   string
	Receipt    string
	Status     string
	CreatedAt  int64
	Raw        map[string]interface{}
}

// Payment 处理方支付
type Payment struct {
	ID       string
	OrderID  string
	Status   string
	Amount   int64
	Currency string
	Captured bool
	Raw      map[string]interface{}
}

// Client Razorpay REST 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// CreateOrder 创建处理方订单
func (c *Client) CreateOrder(ctx context.Context, input OrderInput) (*Order, error) {
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	payload := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
	}
	if receipt := strings.TrimSpace(input.Receipt); receipt != "" {
		payload["receipt"] = receipt
	}
	if len(input.Notes) > 0 {
		payload["notes"] = input.Notes
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/v1/orders", payload)
	if err != nil {
		return nil, err
	}
	order := &Order{
		ID:         readString(raw, "id"),
		Entity:     readString(raw, "entity"),
		Amount:     readInt64(raw, "amount"),
		AmountPaid: readInt64(raw, "amount_paid"),
		AmountDue:  readInt64(raw, "amount_due"),
		Currency:   strings.ToUpper(readString(raw, "currency")),
		Receipt:    readString(raw, "receipt"),
		Status:     readString(raw, "status"),
		CreatedAt:  readInt64(raw, "created_at"),
		Raw:        raw,
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return order, nil
}

// CapturePayment 捕获已授权支付
func (c *Client) CapturePayment(ctx context.Context, paymentID string, amountMinor int64, currency string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrConfigInvalid)
	}
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = defaultCurrency
	}
	path := fmt.Sprintf("/v1/payments/%s/capture", url.PathEscape(paymentID))
	raw, err := c.doJSON(ctx, http.MethodPost, path, map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
	})
	if err != nil {
		return nil, err
	}
	payment := &Payment{
		ID:       readString(raw, "id"),
		OrderID:  readString(raw, "order_id"),
		Status:   readString(raw, "status"),
		Amount:   readInt64(raw, "amount"),
		Currency: strings.ToUpper(readString(raw, "currency")),
		Captured: readBool(raw, "captured"),
		Raw:      raw,
	}
	if payment.ID == "" {
		return nil, fmt.Errorf("%w: missing payment id", ErrResponseInvalid)
	}
	return payment, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload interface{}) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIBaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrProcessorRejected, processorErrorMessage(respBody, resp.StatusCode))
	}
	return decodeRawMap(respBody)
}

// processorErrorMessage 提取 {"error":{"description":...}} 中的错误描述
func processorErrorMessage(body []byte, statusCode int) string {
	raw, err := decodeRawMap(body)
	if err == nil {
		errObj := readMap(raw, "error")
		if description := readString(errObj, "description"); description != "" {
			return description
		}
		if code := readString(errObj, "code"); code != "" {
			return code
		}
	}
	return fmt.Sprintf("status %d", statusCode)
}

func (c *Config) normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

func (c *Config) validate() error {
	if c.KeyID == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if c.KeySecret == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(c.APIBaseURL); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	mapped, ok := raw[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	switch typed := raw[key].(type) {
	case json.Number:
		parsed, err := typed.Int64()
		if err == nil {
			return parsed
		}
		floatVal, err := typed.Float64()
		if err != nil {
			return 0
		}
		return int64(floatVal)
	case float64:
		return int64(typed)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func readBool(raw map[string]interface{}, key string) bool {
	if raw == nil {
		return false
	}
	value, ok := raw[key].(bool)
	return ok && value
}
