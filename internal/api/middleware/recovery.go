package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/observability"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// Recovery 捕获 panic：上报 Sentry、记录日志并返回 500
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				observability.CapturePanic(r)
				logger.Error("请求处理 panic",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				if !c.Writer.Written() {
					response.Abort(c, apperrors.Internal(fmt.Errorf("panic: %v", r)))
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
