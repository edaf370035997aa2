package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/metrics"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/observability"
)

const recordTimeout = 5 * time.Second

// ActivityService 活动日志
//
// Record 只在主操作成功提交之后调用；写入失败只记录日志与指标，
// 不返回错误，也不影响主操作结果。
type ActivityService interface {
	Record(ctx context.Context, actorID int64, action, entityType string, entityID *int64)
	ListRecent(ctx context.Context, limit, offset int) ([]model.ActivityLogDetail, int64, error)
	ListForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]model.ActivityLogDetail, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) Record(ctx context.Context, actorID int64, action, entityType string, entityID *int64) {
	if !model.ValidEntityType(entityType) {
		entityType = model.EntityOther
	}

	// 请求已结束或客户端断开时仍需写入
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	entry := &model.ActivityLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
	if err := s.repo.Activity.Create(ctx, entry); err != nil {
		metrics.ActivityRecordFailures.Inc()
		observability.CaptureErr(err)
		s.logger.Warn("写入活动日志失败",
			zap.Int64("actor_id", actorID),
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.Error(err),
		)
	}
}

func (s *activityService) ListRecent(ctx context.Context, limit, offset int) ([]model.ActivityLogDetail, int64, error) {
	entries, total, err := s.repo.Activity.ListRecent(ctx, limit, offset)
	if err != nil {
		s.logger.Error("查询活动日志失败", zap.Error(err))
		return nil, 0, apperrors.Internal(err)
	}
	return entries, total, nil
}

func (s *activityService) ListForEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]model.ActivityLogDetail, error) {
	if !model.ValidEntityType(entityType) {
		return nil, apperrors.BadRequest("Invalid entity type")
	}
	entries, err := s.repo.Activity.ListForEntity(ctx, entityType, entityID, limit)
	if err != nil {
		s.logger.Error("查询实体活动日志失败",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err),
		)
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}
