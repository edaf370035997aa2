package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 任务模块业务错误 ──

var (
	ErrTaskNotFound   = apperrors.NotFound("Task not found")
	ErrTaskTitleEmpty = apperrors.BadRequest("Title cannot be empty")
	ErrTaskPriority   = apperrors.BadRequest("Invalid priority")
	ErrTaskStatus     = apperrors.BadRequest("Invalid status")
)

// TaskService 任务业务接口
type TaskService interface {
	List(ctx context.Context, req *dto.TaskListRequest) ([]model.TaskDetail, int64, error)
	Get(ctx context.Context, id int64) (*model.TaskDetail, error)
	Create(ctx context.Context, actor permission.Principal, req *dto.CreateTaskRequest) (*model.TaskDetail, error)
	Update(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdateTaskRequest) (*model.TaskDetail, error)
	Delete(ctx context.Context, actor permission.Principal, id int64) error
}

type taskService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
}

// NewTaskService 创建 TaskService 实例
func NewTaskService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) TaskService {
	return &taskService{repo: repo, activity: activity, logger: logger}
}

// ────────────────────── List / Get ──────────────────────

func (s *taskService) List(ctx context.Context, req *dto.TaskListRequest) ([]model.TaskDetail, int64, error) {
	filter := repository.TaskFilter{
		ListParams: toListParams(req.Search, req.SortBy, req.Ascending(), req.GetOffset(), req.GetLimit()),
		StudentID:  req.StudentID,
		Status:     req.Status,
		Priority:   req.Priority,
	}
	tasks, total, err := s.repo.Task.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询任务列表失败", zap.Error(err))
		return nil, 0, apperrors.Internal(err)
	}
	return tasks, total, nil
}

func (s *taskService) Get(ctx context.Context, id int64) (*model.TaskDetail, error) {
	task, err := s.repo.Task.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound)
	}
	return task, nil
}

// ────────────────────── Create ──────────────────────

func (s *taskService) Create(ctx context.Context, actor permission.Principal, req *dto.CreateTaskRequest) (*model.TaskDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTaskTitleEmpty
	}

	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, notFound(err, ErrStudentNotFound)
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	status := req.Status
	if status == "" {
		status = model.TaskStatusPending
	}

	creator := actor.UserID
	task := &model.Task{
		StudentID:   req.StudentID,
		CreatedBy:   &creator,
		Title:       title,
		Description: req.Description,
		Priority:    priority,
		Status:      status,
		DueDate:     req.DueDate,
	}
	if err := s.repo.Task.Create(ctx, task); err != nil {
		s.logger.Error("创建任务失败", zap.Int64("student_id", req.StudentID), zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	s.activity.Record(ctx, actor.UserID,
		fmt.Sprintf("Assigned task \"%s\" to %s", task.Title, student.Name),
		model.EntityTask, idRef(task.ID))

	return &model.TaskDetail{Task: *task, StudentName: student.Name, CreatedByName: &actor.Username}, nil
}

// ────────────────────── Update ──────────────────────

func (s *taskService) Update(ctx context.Context, actor permission.Principal, id int64, req *dto.UpdateTaskRequest) (*model.TaskDetail, error) {
	updates, err := taskUpdates(req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	if err := s.repo.Task.Update(ctx, id, updates); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("更新任务失败", zap.Int64("task_id", id), zap.Error(err))
		}
		return nil, notFound(err, ErrTaskNotFound)
	}

	s.activity.Record(ctx, actor.UserID, fmt.Sprintf("Updated task ID: %d", id), model.EntityTask, idRef(id))
	return s.Get(ctx, id)
}

func taskUpdates(req *dto.UpdateTaskRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	if req.Title.Set {
		if req.Title.Null || strings.TrimSpace(req.Title.Value) == "" {
			return nil, ErrTaskTitleEmpty
		}
		updates["title"] = strings.TrimSpace(req.Title.Value)
	}
	if req.Description.Set {
		updates["description"] = req.Description.Ptr()
	}
	if req.Priority.Set {
		if req.Priority.Null || !model.ValidTaskPriority(req.Priority.Value) {
			return nil, ErrTaskPriority
		}
		updates["priority"] = req.Priority.Value
	}
	if req.Status.Set {
		if req.Status.Null || !model.ValidTaskStatus(req.Status.Value) {
			return nil, ErrTaskStatus
		}
		updates["status"] = req.Status.Value
	}
	if req.DueDate.Set {
		updates["due_date"] = req.DueDate.Ptr()
	}

	return updates, nil
}

// ────────────────────── Delete ──────────────────────

func (s *taskService) Delete(ctx context.Context, actor permission.Principal, id int64) error {
	if err := s.repo.Task.Delete(ctx, id); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("删除任务失败", zap.Int64("task_id", id), zap.Error(err))
		}
		return notFound(err, ErrTaskNotFound)
	}

	s.activity.Record(ctx, actor.UserID, fmt.Sprintf("Deleted task ID: %d", id), model.EntityTask, idRef(id))
	return nil
}
