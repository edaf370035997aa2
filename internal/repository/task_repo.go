package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
)

// TaskFilter 任务列表过滤条件
type TaskFilter struct {
	ListParams
	StudentID int64
	Status    string
	Priority  string
}

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id int64) (*model.TaskDetail, error)
	List(ctx context.Context, filter TaskFilter) ([]model.TaskDetail, int64, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.TaskDetail, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	DeleteByStudent(ctx context.Context, studentID int64) error
	DetachCreator(ctx context.Context, userID int64) error
	Stats(ctx context.Context) (*model.TaskStats, error)
}

// priorityOrder 优先级名次：Super Important 最前，未知取值最后；同名次按创建时间倒序
var priorityOrder = func() string {
	var b strings.Builder
	b.WriteString("CASE t.priority")
	for i, p := range model.TaskPriorities {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p, i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END ASC, t.created_at DESC", len(model.TaskPriorities)+1)
	return b.String()
}()

var taskSortColumns = sortColumns{
	"title":      "t.title",
	"status":     "t.status",
	"due_date":   "t.due_date",
	"created_at": "t.created_at",
}

const taskDetailSelect = "t.*, s.name AS student_name, u.username AS created_by_name"

type taskRepo struct {
	db *gorm.DB
}

// NewTaskRepo 创建 TaskRepository 实例
func NewTaskRepo(db *gorm.DB) TaskRepository {
	return &taskRepo{db: db}
}

func (r *taskRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("tasks AS t").
		Joins("LEFT JOIN students s ON s.id = t.student_id").
		Joins("LEFT JOIN users u ON u.id = t.created_by")
}

// taskOrder 默认及 sortBy=priority 时按优先级名次；其余白名单字段按指定方向，再以创建时间倒序
func taskOrder(sortBy string, asc bool) string {
	if _, ok := taskSortColumns[sortBy]; !ok {
		return priorityOrder
	}
	return taskSortColumns.orderBy(sortBy, "created_at", asc) + ", t.created_at DESC"
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) error {
	return translate(r.db.WithContext(ctx).Create(task).Error)
}

func (r *taskRepo) GetByID(ctx context.Context, id int64) (*model.TaskDetail, error) {
	var task model.TaskDetail
	if err := r.joined(ctx).Select(taskDetailSelect).Where("t.id = ?", id).Take(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List Limit 非正时不分页
func (r *taskRepo) List(ctx context.Context, filter TaskFilter) ([]model.TaskDetail, int64, error) {
	base := func() *gorm.DB {
		q := r.joined(ctx)
		if filter.StudentID > 0 {
			q = q.Where("t.student_id = ?", filter.StudentID)
		}
		if filter.Status != "" {
			q = q.Where("t.status = ?", filter.Status)
		}
		if filter.Priority != "" {
			q = q.Where("t.priority = ?", filter.Priority)
		}
		if filter.Search != "" {
			p := containsPattern(filter.Search)
			q = q.Where("(t.title ILIKE ? OR t.description ILIKE ? OR s.name ILIKE ?)", p, p, p)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base().Select(taskDetailSelect).Order(taskOrder(filter.SortBy, filter.Asc)).Order("t.id DESC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}

	tasks := make([]model.TaskDetail, 0)
	if err := q.Scan(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepo) ListByStudent(ctx context.Context, studentID int64) ([]model.TaskDetail, error) {
	tasks, _, err := r.List(ctx, TaskFilter{StudentID: studentID})
	return tasks, err
}

func (r *taskRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return affected(r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(updates))
}

func (r *taskRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{}))
}

func (r *taskRepo) DeleteByStudent(ctx context.Context, studentID int64) error {
	return r.db.WithContext(ctx).Where("student_id = ?", studentID).Delete(&model.Task{}).Error
}

func (r *taskRepo) DetachCreator(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.Task{}).
		Where("created_by = ?", userID).
		Update("created_by", nil).Error
}

func (r *taskRepo) Stats(ctx context.Context) (*model.TaskStats, error) {
	var stats model.TaskStats
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN priority IN ? THEN 1 ELSE 0 END), 0) AS high_priority, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending",
			model.HighPriorities, model.TaskStatusPending,
		).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
