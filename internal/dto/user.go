package dto

// ── 用户模块 DTO ──

// UserListRequest 助理列表查询参数
type UserListRequest struct {
	ListQuery
}

// UpdatePermissionsRequest 修改助理能力位，仅写入提供的字段
type UpdatePermissionsRequest struct {
	CanViewStudents  *bool `json:"can_view_students"`
	CanEditStudent   *bool `json:"can_edit_student"`
	CanDeleteStudent *bool `json:"can_delete_student"`
	CanUploadDocs    *bool `json:"can_upload_docs"`
	CanManageUsers   *bool `json:"can_manage_users"`
}
