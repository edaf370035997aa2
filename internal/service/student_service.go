package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/storage"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound    = apperrors.NotFound("Student not found")
	ErrStudentEmailExists = apperrors.Conflict("A student with this email already exists")
	ErrStudentNameEmpty   = apperrors.BadRequest("Name cannot be empty")
	ErrStudentEmailEmpty  = apperrors.BadRequest("Email cannot be empty")
	ErrStudentEmail       = apperrors.BadRequest("Invalid email address")
	ErrStudentStatus      = apperrors.BadRequest("Invalid status. Must be Active, Inactive or Graduated")
	ErrStudentGPA         = apperrors.BadRequest("GPA must be between 0.00 and 4.00")
)

// 部分更新时对单个字段做 binding 同等的校验
var validate = validator.New()

// StudentService 学生档案业务接口
type StudentService interface {
	List(ctx context.Context, req *dto.StudentListRequest) ([]model.Student, int64, error)
	Get(ctx context.Context, id int64) (*dto.StudentDetail, error)
	Create(ctx context.Context, actor permission.Principal, req *dto.CreateStudentRequest) (*model.Student, error)
	Update(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdateStudentRequest) (*model.Student, error)
	Delete(ctx context.Context, actor permission.Principal, id int64) error
}

type studentService struct {
	repo     *repository.Repository
	blobs    *storage.Manager
	activity ActivityService
	logger   *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, blobs *storage.Manager, activity ActivityService, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, blobs: blobs, activity: activity, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]model.Student, int64, error) {
	params := toListParams(req.Search, req.SortBy, req.Ascending(), req.GetOffset(), req.GetLimit())
	students, total, err := s.repo.Student.List(ctx, params)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, apperrors.Internal(err)
	}
	return students, total, nil
}

func (s *studentService) Get(ctx context.Context, id int64) (*dto.StudentDetail, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrStudentNotFound)
	}

	docs, err := s.repo.Document.ListByStudent(ctx, id)
	if err != nil {
		s.logger.Error("查询学生文档失败", zap.Int64("student_id", id), zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	tasks, err := s.repo.Task.ListByStudent(ctx, id)
	if err != nil {
		s.logger.Error("查询学生任务失败", zap.Int64("student_id", id), zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	return &dto.StudentDetail{Student: *student, Documents: docs, Tasks: tasks}, nil
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, actor permission.Principal, req *dto.CreateStudentRequest) (*model.Student, error) {
	exists, err := s.repo.Student.EmailExists(ctx, req.Email, 0)
	if err != nil {
		s.logger.Error("检查学生邮箱失败", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, ErrStudentEmailExists
	}

	status := req.Status
	if status == "" {
		status = model.StudentStatusActive
	}

	student := &model.Student{
		Name:          strings.TrimSpace(req.Name),
		Email:         req.Email,
		Department:    req.Department,
		Status:        status,
		GPA:           req.GPA,
		AssignedTasks: req.AssignedTasks,
	}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.String("email", req.Email), zap.Error(err))
		return nil, conflict(err, ErrStudentEmailExists)
	}

	s.activity.Record(ctx, actor.UserID, "Created new student: "+student.Name, model.EntityStudent, idRef(student.ID))
	return student, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdateStudentRequest) (*model.Student, error) {
	updates, err := studentUpdates(req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		return nil, notFound(err, ErrStudentNotFound)
	}

	if email, ok := updates["email"].(string); ok {
		taken, err := s.repo.Student.EmailExists(ctx, email, id)
		if err != nil {
			s.logger.Error("检查学生邮箱失败", zap.Error(err))
			return nil, apperrors.Internal(err)
		}
		if taken {
			return nil, ErrStudentEmailExists
		}
	}

	if err := s.repo.Student.Update(ctx, id, updates); err != nil {
		s.logger.Error("更新学生失败", zap.Int64("student_id", id), zap.Error(err))
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentEmailExists
		}
		return nil, notFound(err, ErrStudentNotFound)
	}

	updated, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrStudentNotFound)
	}

	s.activity.Record(ctx, actor.UserID, "Updated student: "+updated.Name, model.EntityStudent, idRef(id))
	return updated, nil
}

// studentUpdates 收集已提供的字段，null 清空可空列
func studentUpdates(req *dto.UpdateStudentRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	if req.Name.Set {
		if req.Name.Null || strings.TrimSpace(req.Name.Value) == "" {
			return nil, ErrStudentNameEmpty
		}
		updates["name"] = strings.TrimSpace(req.Name.Value)
	}
	if req.Email.Set {
		if req.Email.Null || req.Email.Value == "" {
			return nil, ErrStudentEmailEmpty
		}
		if err := validate.Var(req.Email.Value, "email,max=100"); err != nil {
			return nil, ErrStudentEmail
		}
		updates["email"] = req.Email.Value
	}
	if req.Department.Set {
		updates["department"] = req.Department.Ptr()
	}
	if req.Status.Set {
		if req.Status.Null || !model.ValidStudentStatus(req.Status.Value) {
			return nil, ErrStudentStatus
		}
		updates["status"] = req.Status.Value
	}
	if req.GPA.Set {
		if !req.GPA.Null && (req.GPA.Value < 0 || req.GPA.Value > 4) {
			return nil, ErrStudentGPA
		}
		updates["gpa"] = req.GPA.Ptr()
	}
	if req.AssignedTasks.Set {
		updates["assigned_tasks"] = req.AssignedTasks.Ptr()
	}

	return updates, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 同一事务内删除任务、文档行与学生；提交后再删除 blob
func (s *studentService) Delete(ctx context.Context, actor permission.Principal, id int64) error {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrStudentNotFound)
	}

	var names []string
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Task.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		removed, err := tx.Document.DeleteByStudent(ctx, id)
		if err != nil {
			return err
		}
		names = removed
		return tx.Student.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("删除学生失败，事务已回滚", zap.Int64("student_id", id), zap.Error(err))
		return notFound(err, ErrStudentNotFound)
	}

	s.blobs.DiscardNames(ctx, names)

	s.activity.Record(ctx, actor.UserID, "Deleted student: "+student.Name, model.EntityStudent, nil)
	return nil
}
