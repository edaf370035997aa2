package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/middleware"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Login successful", gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt,
		"user":      result.User,
	})
}

// Logout 注销当前令牌
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, errNotLoggedIn)
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Logged out successfully", nil)
}

// Me 当前账号（按库中最新数据，而非令牌快照）
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"user": user})
}

// ChangePassword 修改本人密码
// PUT /api/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), p, &req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Password updated successfully", nil)
}

// Register 主管创建助理账号
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, "Assistant created successfully", gin.H{
		"userId": user.ID,
		"user":   user,
	})
}
