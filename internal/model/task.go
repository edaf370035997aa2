package model

import "time"

// 任务优先级，按重要性从高到低
const (
	PrioritySuperImportant = "Super Important"
	PriorityImportant      = "Important"
	PriorityHigh           = "High"
	PriorityMedium         = "Medium"
	PriorityLow            = "Low"
)

// 任务状态
const (
	TaskStatusPending    = "Pending"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
	TaskStatusOverdue    = "Overdue"
)

// TaskPriorities 优先级，下标即排序名次
var TaskPriorities = []string{PrioritySuperImportant, PriorityImportant, PriorityHigh, PriorityMedium, PriorityLow}

// TaskStatuses 合法的任务状态
var TaskStatuses = []string{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue}

// HighPriorities 仪表盘统计中视为高优先级的取值
var HighPriorities = []string{PrioritySuperImportant, PriorityImportant, PriorityHigh}

// Task 分配给学生的任务
type Task struct {
	ID          int64      `gorm:"primaryKey"              json:"id"`
	StudentID   int64      `gorm:"not null;index"          json:"student_id"`
	CreatedBy   *int64     `                               json:"created_by"`
	Title       string     `gorm:"size:255;not null"       json:"title"`
	Description *string    `gorm:"type:text"               json:"description"`
	Priority    string     `gorm:"size:20;not null;default:Medium"  json:"priority"`
	Status      string     `gorm:"size:20;not null;default:Pending" json:"status"`
	DueDate     *time.Time `                               json:"due_date"`
	Timestamps
}

func (Task) TableName() string { return "tasks" }

// TaskDetail 附带学生姓名与创建者用户名
type TaskDetail struct {
	Task
	StudentName   string  `json:"student_name"`
	CreatedByName *string `json:"created_by_name"`
}

// PriorityRank 优先级名次，未知取值排在最后
func PriorityRank(p string) int {
	for i, v := range TaskPriorities {
		if v == p {
			return i
		}
	}
	return len(TaskPriorities)
}

// ValidTaskPriority 校验优先级
func ValidTaskPriority(p string) bool {
	return PriorityRank(p) < len(TaskPriorities)
}

// ValidTaskStatus 校验任务状态
func ValidTaskStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// TaskStats 仪表盘任务统计
type TaskStats struct {
	Total        int64 `json:"total"`
	HighPriority int64 `json:"highPriority"`
	Pending      int64 `json:"pending"`
}
