package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

var errNotAuthenticated = apperrors.Unauthenticated("Access denied. No token provided.")

// guard 将授权判定包装为中间件，必须挂在 JWTAuth 之后
func guard(check func(permission.Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Abort(c, errNotAuthenticated)
			return
		}
		if err := check(p); err != nil {
			response.Abort(c, deniedError(err))
			return
		}
		c.Next()
	}
}

// deniedError 拒绝原因转换为 403 响应，附带缺失或所需的能力
func deniedError(err error) error {
	var denied *permission.DeniedError
	if !errors.As(err, &denied) {
		return apperrors.Internal(err)
	}

	switch {
	case denied.SupervisorOnly:
		return apperrors.Forbidden("Access denied. Supervisor privileges required.")
	case denied.Any:
		return apperrors.Forbidden("Access denied. None of the required permissions found.").
			WithDetails(map[string]interface{}{"requiredPermissions": denied.Names()})
	case len(denied.Missing) == 1:
		return apperrors.Forbidden("Access denied. Required permission: " + denied.Missing[0].String()).
			WithDetails(map[string]interface{}{"requiredPermission": denied.Missing[0].String()})
	default:
		return apperrors.Forbidden("Access denied. Missing required permissions.").
			WithDetails(map[string]interface{}{"missingPermissions": denied.Names()})
	}
}

// RequirePermission 要求单个能力，主管直接放行
func RequirePermission(c permission.Capability) gin.HandlerFunc {
	return guard(func(p permission.Principal) error {
		return permission.RequireCapability(p, c)
	})
}

// RequireAllPermissions 要求全部能力
func RequireAllPermissions(caps ...permission.Capability) gin.HandlerFunc {
	return guard(func(p permission.Principal) error {
		return permission.RequireAll(p, caps...)
	})
}

// RequireAnyPermission 要求任意一个能力
func RequireAnyPermission(caps ...permission.Capability) gin.HandlerFunc {
	return guard(func(p permission.Principal) error {
		return permission.RequireAny(p, caps...)
	})
}

// RequireSupervisor 仅主管
func RequireSupervisor() gin.HandlerFunc {
	return guard(permission.RequireSupervisor)
}
