package dto

import "time"

// ── 任务模块 DTO ──

// TaskListRequest 任务列表查询参数
type TaskListRequest struct {
	ListQuery
	StudentID int64  `form:"student_id" binding:"omitempty,min=1"`
	Status    string `form:"status"     binding:"omitempty,task_status"`
	Priority  string `form:"priority"   binding:"omitempty,task_priority"`
}

// CreateTaskRequest 创建任务
type CreateTaskRequest struct {
	StudentID   int64      `json:"student_id"  binding:"required,min=1"`
	Title       string     `json:"title"       binding:"required,max=255"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"    binding:"omitempty,task_priority"`
	Status      string     `json:"status"      binding:"omitempty,task_status"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest 部分更新任务
type UpdateTaskRequest struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	Priority    Optional[string]    `json:"priority"`
	Status      Optional[string]    `json:"status"`
	DueDate     Optional[time.Time] `json:"due_date"`
}
