package model

import "time"

// 活动日志关联的实体类型
const (
	EntityStudent  = "student"
	EntityUser     = "user"
	EntityDocument = "document"
	EntityTask     = "task"
	EntityOther    = "other"
)

// ActivityLog 审计条目，写入后不可修改
type ActivityLog struct {
	ID         int64     `gorm:"primaryKey"             json:"id"`
	UserID     int64     `gorm:"not null;index"         json:"user_id"`
	Action     string    `gorm:"type:text;not null"     json:"action"`
	EntityType string    `gorm:"size:20;not null"       json:"entity_type"`
	EntityID   *int64    `                              json:"entity_id"`
	Timestamp  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"timestamp"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

// ActivityLogDetail 附带操作者用户名与角色
type ActivityLogDetail struct {
	ActivityLog
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ValidEntityType 校验实体类型
func ValidEntityType(t string) bool {
	switch t {
	case EntityStudent, EntityUser, EntityDocument, EntityTask, EntityOther:
		return true
	}
	return false
}
