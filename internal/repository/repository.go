package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User     UserRepository
	Student  StudentRepository
	Document DocumentRepository
	Task     TaskRepository
	Activity ActivityRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		User:     NewUserRepo(db),
		Student:  NewStudentRepo(db),
		Document: NewDocumentRepo(db),
		Task:     NewTaskRepo(db),
		Activity: NewActivityRepo(db),
	}
}

// Transaction 在同一事务内执行 fn，fn 返回错误时整体回滚
// 未绑定数据库（单元测试手工组装）时直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
