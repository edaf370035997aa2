package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/metrics"
)

// Metrics 记录请求计数与耗时，路由取注册模板避免标签基数膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
