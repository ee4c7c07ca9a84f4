package constants

// 支付记录状态常量（只允许沿 verified → captured 单向推进）
const (
	PaymentStatusVerified = "verified"
	PaymentStatusCaptured = "captured"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Razorpay webhook 事件类型
const (
	WebhookEventPaymentCaptured   = "payment.captured"
	WebhookEventPaymentAuthorized = "payment.authorized"
	WebhookEventPaymentFailed     = "payment.failed"
	WebhookEventOrderPaid         = "order.paid"
)

// Razorpay 请求头
const (
	HeaderRazorpaySignature = "X-Razorpay-Signature"
	HeaderRazorpayEventID   = "X-Razorpay-Event-Id"
)

// 币种常量
const (
	CurrencyDefault = "INR"
)

// 队列常量
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskPaymentCaptureRetry = "payment:capture_reconcile"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault          = "pb"
	WebhookEventReplayTTLSecond = 24 * 60 * 60
)
