package model

import "github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"

// User 系统账号（主管 / 助理）
type User struct {
	ID           int64           `gorm:"primaryKey"                json:"id"`
	Username     string          `gorm:"size:50;uniqueIndex;not null"  json:"username"`
	Email        string          `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"size:255;not null"         json:"-"`
	Role         permission.Role `gorm:"size:20;not null"          json:"role"`
	permission.Set
	Timestamps
}

func (User) TableName() string { return "users" }

// IsSupervisor 是否为主管
func (u *User) IsSupervisor() bool {
	return u.Role == permission.RoleSupervisor
}

// Principal 以当前存储的能力位构造调用方
func (u *User) Principal() permission.Principal {
	return permission.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: u.Set,
	}
}
