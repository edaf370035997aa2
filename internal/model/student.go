package model

// 学生状态
const (
	StudentStatusActive    = "Active"
	StudentStatusInactive  = "Inactive"
	StudentStatusGraduated = "Graduated"
)

// StudentStatuses 合法的学生状态
var StudentStatuses = []string{StudentStatusActive, StudentStatusInactive, StudentStatusGraduated}

// Student 学生档案
type Student struct {
	ID            int64    `gorm:"primaryKey"                    json:"id"`
	Name          string   `gorm:"size:100;not null"             json:"name"`
	Email         string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Department    *string  `gorm:"size:100"                      json:"department"`
	Status        string   `gorm:"size:20;not null;default:Active" json:"status"`
	GPA           *float64 `gorm:"column:gpa;type:numeric(3,2)"  json:"gpa"`
	AssignedTasks *string  `gorm:"type:text"                     json:"assigned_tasks"`
	Timestamps
}

func (Student) TableName() string { return "students" }

// ValidStudentStatus 校验学生状态
func ValidStudentStatus(s string) bool {
	for _, v := range StudentStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// StatusCount 按状态统计
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}
