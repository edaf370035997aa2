package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 用户模块业务错误 ──

var (
	ErrSupervisorImmutable = apperrors.Forbidden("Cannot modify supervisor permissions")
	ErrSupervisorDelete    = apperrors.Forbidden("Cannot delete supervisor account")
)

// UserService 助理账号管理
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]model.User, int64, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePermissions(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdatePermissionsRequest) (*model.User, error)
	Delete(ctx context.Context, actor permission.Principal, id int64) error
}

type userService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) UserService {
	return &userService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]model.User, int64, error) {
	params := toListParams(req.Search, req.SortBy, req.Ascending(), req.GetOffset(), req.GetLimit())
	users, total, err := s.repo.User.ListAssistants(ctx, params)
	if err != nil {
		s.logger.Error("查询助理列表失败", zap.Error(err))
		return nil, 0, apperrors.Internal(err)
	}
	return users, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ────────────────────── UpdatePermissions ──────────────────────

func (s *userService) UpdatePermissions(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdatePermissionsRequest) (*model.User, error) {
	updates := permissionUpdates(req)
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if user.IsSupervisor() {
		return nil, ErrSupervisorImmutable
	}

	if err := s.repo.User.Update(ctx, id, updates); err != nil {
		s.logger.Error("更新助理权限失败", zap.Int64("user_id", id), zap.Error(err))
		return nil, notFound(err, ErrUserNotFound)
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	s.activity.Record(ctx, actor.UserID, "Updated permissions for assistant: "+user.Username, model.EntityUser, idRef(id))
	return updated, nil
}

func permissionUpdates(req *dto.UpdatePermissionsRequest) map[string]interface{} {
	updates := make(map[string]interface{})
	flags := []struct {
		column string
		value  *bool
	}{
		{permission.ViewStudents.String(), req.CanViewStudents},
		{permission.EditStudent.String(), req.CanEditStudent},
		{permission.DeleteStudent.String(), req.CanDeleteStudent},
		{permission.UploadDocs.String(), req.CanUploadDocs},
		{permission.ManageUsers.String(), req.CanManageUsers},
	}
	for _, f := range flags {
		if f.value != nil {
			updates[f.column] = *f.value
		}
	}
	return updates
}

// ────────────────────── Delete ──────────────────────

// Delete 删除助理：其上传的文档与创建的任务保留并置空归属，其活动日志随账号删除
func (s *userService) Delete(ctx context.Context, actor permission.Principal, id int64) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if user.IsSupervisor() {
		return ErrSupervisorDelete
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Document.DetachUploader(ctx, id); err != nil {
			return err
		}
		if err := tx.Task.DetachCreator(ctx, id); err != nil {
			return err
		}
		if err := tx.Activity.DeleteByUser(ctx, id); err != nil {
			return err
		}
		return tx.User.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("删除助理失败", zap.Int64("user_id", id), zap.Error(err))
		return notFound(err, ErrUserNotFound)
	}

	s.activity.Record(ctx, actor.UserID, "Deleted assistant: "+user.Username, model.EntityUser, nil)
	return nil
}
