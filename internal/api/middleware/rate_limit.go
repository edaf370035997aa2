package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

const msgTooManyRequests = "Too many requests, please try again later"

// Limiter 窗口计数器，返回本次请求是否放行
type Limiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按 客户端IP:路由 计数
// 未配置计数器或计数失败时放行，Redis 故障不阻断登录
func RateLimit(limiter Limiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if limiter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	retryAfter := strconv.Itoa(int(window.Round(time.Second).Seconds()))

	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, err := limiter.CheckRateLimit(c.Request.Context(), key, limit, window)
		switch {
		case err != nil:
			logger.Warn("限流计数失败，放行", zap.String("key", key), zap.Error(err))
		case !allowed:
			c.Header("Retry-After", retryAfter)
			response.JSON(c, http.StatusTooManyRequests, msgTooManyRequests, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
