package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/middleware"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/observability"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

var (
	errValidation  = apperrors.BadRequest("Validation failed")
	errBodyTooBig  = apperrors.PayloadTooLarge("Request body too large")
	errNotLoggedIn = apperrors.Unauthenticated("Access denied. No token provided.")
)

// MustGetPrincipal 从 Gin 上下文中安全提取调用方。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetPrincipal(c *gin.Context) (permission.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Fail(c, errNotLoggedIn)
		return permission.Principal{}, false
	}
	return p, true
}

// parseID 解析路径参数中的正整数 ID
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, service.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// bindError 参数绑定失败的统一响应
func bindError(c *gin.Context, err error) {
	if middleware.BodyTooLarge(err) {
		response.Fail(c, errBodyTooBig)
		return
	}
	response.Fail(c, apperrors.Wrap(errValidation.Kind, errValidation.Message, err))
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		bindError(c, err)
		return false
	}
	return true
}

// respondError 输出业务错误；内部错误额外记录日志并上报 Sentry
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.As(err)
	if appErr.Kind == apperrors.KindInternal {
		observability.CaptureErr(err)
		logger.Error("请求处理失败",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	response.Fail(c, err)
}
