package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/storage"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
)

// ── 通用业务错误 ──

var (
	ErrNoFieldsToUpdate = apperrors.BadRequest("No fields to update")
	ErrInvalidID        = apperrors.BadRequest("Invalid ID")
)

// TokenRevoker 令牌吊销存储（Redis 黑名单），未配置时为 nil
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Student   StudentService
	Document  DocumentService
	Task      TaskService
	Activity  ActivityService
	Dashboard DashboardService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blobs *storage.Manager,
	revoker TokenRevoker,
	logger *zap.Logger,
) *Service {
	activity := NewActivityService(repo, logger)
	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, revoker, activity, logger),
		User:      NewUserService(repo, activity, logger),
		Student:   NewStudentService(repo, blobs, activity, logger),
		Document:  NewDocumentService(repo, blobs, activity, logger),
		Task:      NewTaskService(repo, activity, logger),
		Activity:  activity,
		Dashboard: NewDashboardService(repo, logger),
		Export:    NewExportService(repo, logger),
	}
}

// ── 辅助函数 ──

// idRef 活动日志中的实体 ID
func idRef(id int64) *int64 {
	return &id
}

// notFound gorm.ErrRecordNotFound 转换为 sentinel，其余包装为内部错误
func notFound(err error, sentinel *apperrors.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Internal(err)
}

// conflict 唯一约束冲突转换为 sentinel，其余包装为内部错误
func conflict(err error, sentinel *apperrors.Error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return sentinel
	}
	return apperrors.Internal(err)
}

// toListParams 分页、搜索、排序参数转换
func toListParams(search, sortBy string, asc bool, offset, limit int) repository.ListParams {
	return repository.ListParams{
		Search: search,
		SortBy: sortBy,
		Asc:    asc,
		Offset: offset,
		Limit:  limit,
	}
}
