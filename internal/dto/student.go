package dto

import "github.com/neda420/Website-for-student-management-by-supervisor/internal/model"

// ── 学生模块 DTO ──

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	ListQuery
}

// CreateStudentRequest 创建学生
type CreateStudentRequest struct {
	Name          string   `json:"name"           binding:"required,max=100"`
	Email         string   `json:"email"          binding:"required,email,max=100"`
	Department    *string  `json:"department"     binding:"omitempty,max=100"`
	Status        string   `json:"status"         binding:"omitempty,student_status"`
	GPA           *float64 `json:"gpa"            binding:"omitempty,min=0,max=4"`
	AssignedTasks *string  `json:"assigned_tasks"`
}

// UpdateStudentRequest 部分更新学生，null 表示清空可空字段
type UpdateStudentRequest struct {
	Name          Optional[string]  `json:"name"`
	Email         Optional[string]  `json:"email"`
	Department    Optional[string]  `json:"department"`
	Status        Optional[string]  `json:"status"`
	GPA           Optional[float64] `json:"gpa"`
	AssignedTasks Optional[string]  `json:"assigned_tasks"`
}

// StudentDetail 学生详情，附带文档与任务
type StudentDetail struct {
	model.Student
	Documents []model.DocumentDetail `json:"documents"`
	Tasks     []model.TaskDetail     `json:"tasks"`
}
