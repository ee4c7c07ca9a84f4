package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature 计算 HMAC-SHA256 小写十六进制签名
func ComputeSignature(secret string, message []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature 常量时间比较 supplied 与 message 的期望签名，supplied 须逐字节一致。
// secret 或 supplied 为空时直接返回 false。
func VerifySignature(secret string, message []byte, supplied string) bool {
	if secret == "" || supplied == "" {
		return false
	}
	expected := ComputeSignature(secret, message)
	return hmac.Equal([]byte(expected), []byte(supplied))
}

// ClientVerificationMessage 客户端支付回调的签名原文：order_id|payment_id
func ClientVerificationMessage(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

// VerifyClientSignature 校验 checkout 回调签名（使用 key_secret）
func VerifyClientSignature(keySecret, orderID, paymentID, supplied string) bool {
	return VerifySignature(keySecret, ClientVerificationMessage(orderID, paymentID), supplied)
}

// VerifyWebhookSignature 校验 webhook 原始请求体签名（使用 webhook_secret）
func VerifyWebhookSignature(webhookSecret string, rawBody []byte, supplied string) bool {
	return VerifySignature(webhookSecret, rawBody, supplied)
}
