package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// UserHandler 助理账号管理 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
	logger  *zap.Logger
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, logger: logger}
}

// List 助理列表
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if !bindQuery(c, &req) {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKPage(c, "users", users, total, req.GetPage(), req.GetLimit())
}

// Get 单个账号
// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"user": user})
}

// UpdatePermissions 修改助理能力位
// PUT /api/users/:id/permissions
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.UpdatePermissions(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Permissions updated successfully", gin.H{"user": user})
}

// Delete 删除助理
// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "User deleted successfully", nil)
}
