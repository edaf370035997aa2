package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
)

// ActivityRepository 活动日志访问接口，只追加不修改
type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	ListRecent(ctx context.Context, limit, offset int) ([]model.ActivityLogDetail, int64, error)
	ListForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]model.ActivityLogDetail, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

const activityDetailSelect = "a.*, u.username AS username, u.role AS role"

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("activity_logs AS a").
		Joins("JOIN users u ON u.id = a.user_id")
}

func (r *activityRepo) Create(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListRecent 最新在前，同一时刻按自增 ID 倒序
func (r *activityRepo) ListRecent(ctx context.Context, limit, offset int) ([]model.ActivityLogDetail, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]model.ActivityLogDetail, 0)
	err := r.joined(ctx).Select(activityDetailSelect).
		Order("a.timestamp DESC, a.id DESC").
		Offset(offset).Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *activityRepo) ListForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]model.ActivityLogDetail, error) {
	entries := make([]model.ActivityLogDetail, 0)
	err := r.joined(ctx).Select(activityDetailSelect).
		Where("a.entity_type = ? AND a.entity_id = ?", entityType, entityID).
		Order("a.timestamp DESC, a.id DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

func (r *activityRepo) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.ActivityLog{}).Error
}
