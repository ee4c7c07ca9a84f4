package router

import (
	"fmt"
	"strings"

	"github.com/paybridge/internal/cache"
	"github.com/paybridge/internal/config"
	"github.com/paybridge/internal/constants"
	paymenthandlers "github.com/paybridge/internal/http/handlers/payment"
	"github.com/paybridge/internal/logger"
	"github.com/paybridge/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	paymentHandler := paymenthandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	verifyRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:verify", redisPrefix),
		WindowSeconds: cfg.Security.VerifyRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.VerifyRateLimit.MaxRequests,
		Message:       "too many verification attempts",
	}
	webhookRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:webhook", redisPrefix),
		WindowSeconds: cfg.Security.WebhookRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WebhookRateLimit.MaxRequests,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	payments := r.Group("/api/payments")
	{
		payments.POST("/create-order", paymentHandler.CreateOrder)
		payments.POST("/verify",
			RateLimitMiddleware(redisClient, verifyRule, KeyByOrderIDAndIP("razorpay_order_id")),
			paymentHandler.VerifyPayment,
		)
		payments.POST("/capture/:id", paymentHandler.CapturePayment)
		payments.POST("/webhook",
			RateLimitMiddleware(redisClient, webhookRule, KeyByIP),
			paymentHandler.Webhook,
		)

		if cfg.AdminJWT.Enabled {
			payments.GET("/transactions", AdminJWTMiddleware(cfg.AdminJWT.Secret), paymentHandler.ListTransactions)
		} else {
			payments.GET("/transactions", paymentHandler.ListTransactions)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
