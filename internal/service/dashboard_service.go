package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

const (
	recentUploadWindow = 7 * 24 * time.Hour
	recentUploadLimit  = 10
)

// DashboardService 仪表盘统计
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger, now: time.Now}
}

func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	var (
		stats dto.DashboardStats
		err   error
	)

	fail := func(what string, err error) error {
		s.logger.Error("统计仪表盘数据失败", zap.String("item", what), zap.Error(err))
		return apperrors.Internal(err)
	}

	if stats.TotalStudents, err = s.repo.Student.Count(ctx); err != nil {
		return nil, fail("students", err)
	}
	if stats.TotalAssistants, err = s.repo.User.CountByRole(ctx, permission.RoleAssistant); err != nil {
		return nil, fail("assistants", err)
	}
	if stats.TotalDocuments, err = s.repo.Document.Count(ctx); err != nil {
		return nil, fail("documents", err)
	}
	if stats.RecentUploads, err = s.repo.Document.CountSince(ctx, s.now().Add(-recentUploadWindow)); err != nil {
		return nil, fail("recent_uploads", err)
	}
	if stats.RecentUploadsList, err = s.repo.Document.Recent(ctx, recentUploadLimit); err != nil {
		return nil, fail("recent_uploads_list", err)
	}
	if stats.StudentsByStatus, err = s.repo.Student.CountByStatus(ctx); err != nil {
		return nil, fail("students_by_status", err)
	}

	tasks, err := s.repo.Task.Stats(ctx)
	if err != nil {
		return nil, fail("tasks", err)
	}
	stats.Assignments = *tasks

	return &stats, nil
}
