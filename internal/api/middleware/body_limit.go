package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

var errBodyTooLarge = apperrors.PayloadTooLarge("Request body too large")

// BodyLimit 限制请求体字节数
// 声明的 Content-Length 超限直接 413；未声明长度时超限在读取阶段报错，由处理器经 BodyTooLarge 识别
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if req.ContentLength > maxBytes {
			c.Header("Connection", "close")
			response.Abort(c, errBodyTooLarge)
			return
		}
		if req.Body != nil && req.Body != http.NoBody {
			req.Body = http.MaxBytesReader(c.Writer, req.Body, maxBytes)
		}
		c.Next()
	}
}

// BodyTooLarge 错误链中是否含 MaxBytesReader 的超限错误
func BodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}
