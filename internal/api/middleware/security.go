package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// SecurityHeaders 设置浏览器安全头；生产模式额外开启 HSTS
// /api 下的响应含学生资料，一律禁止缓存
func SecurityHeaders(production bool) gin.HandlerFunc {
	static := [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'"},
	}
	if production {
		static = append(static, [2]string{"Strict-Transport-Security", "max-age=63072000; includeSubDomains"})
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		for _, kv := range static {
			h.Set(kv[0], kv[1])
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}
		c.Next()
	}
}

// Diagnostics 控制错误响应是否附带 stack
func Diagnostics(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(response.DebugKey, enabled)
		c.Next()
	}
}
