package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 主管创建助理账号
// 能力位缺省时：仅 can_view_students 为 true
type RegisterRequest struct {
	Username         string `json:"username" binding:"required,min=3,max=50"`
	Email            string `json:"email"    binding:"required,email,max=100"`
	Password         string `json:"password" binding:"required,min=6,max=72"`
	CanViewStudents  *bool  `json:"can_view_students"`
	CanEditStudent   *bool  `json:"can_edit_student"`
	CanDeleteStudent *bool  `json:"can_delete_student"`
	CanUploadDocs    *bool  `json:"can_upload_docs"`
	CanManageUsers   *bool  `json:"can_manage_users"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}
