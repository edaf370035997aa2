package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// gin.Context 中的认证信息键
const (
	ContextPrincipal = "principal"
	ContextClaims    = "claims"
)

var (
	errNoToken      = apperrors.Unauthenticated("Access denied. No token provided.")
	errTokenFormat  = apperrors.Unauthenticated("Invalid token format. Use: Bearer <token>")
	errTokenInvalid = apperrors.Unauthenticated("Invalid token")
	errTokenExpired = apperrors.Unauthenticated("Token expired")
	errTokenRevoked = apperrors.Unauthenticated("Token has been revoked")
)

// Blacklist 令牌黑名单查询，未配置 Redis 时为 nil
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证令牌，调用方与声明注入上下文
// blacklist 为 nil 或查询出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, errNoToken)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Abort(c, errTokenFormat)
			return
		}

		claims, err := jwtMgr.Verify(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Abort(c, errTokenExpired)
				return
			}
			response.Abort(c, errTokenInvalid)
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("查询令牌黑名单失败，降级放行", zap.Error(err))
			} else if revoked {
				response.Abort(c, errTokenRevoked)
				return
			}
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextPrincipal, claims.Principal())

		c.Next()
	}
}

// GetPrincipal 读取当前调用方，未经 JWTAuth 时 ok 为 false
func GetPrincipal(c *gin.Context) (permission.Principal, bool) {
	v, exists := c.Get(ContextPrincipal)
	if !exists {
		return permission.Principal{}, false
	}
	p, ok := v.(permission.Principal)
	return p, ok
}

// GetClaims 读取当前令牌声明
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
