package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)
	List(ctx context.Context, params ListParams) ([]model.Student, int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
}

var studentSortColumns = sortColumns{
	"name":           "name",
	"email":          "email",
	"department":     "department",
	"status":         "status",
	"gpa":            "gpa",
	"created_at":     "created_at",
	"assigned_tasks": "assigned_tasks",
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return translate(r.db.WithContext(ctx).Create(student).Error)
}

func (r *studentRepo) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

// EmailExists excludeID 为 0 时不排除任何记录
func (r *studentRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&model.Student{}).Where("email = ?", email)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// List Limit 非正时不分页（导出场景）
func (r *studentRepo) List(ctx context.Context, params ListParams) ([]model.Student, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Student{})
		if params.Search != "" {
			p := containsPattern(params.Search)
			q = q.Where("(name ILIKE ? OR email ILIKE ? OR department ILIKE ?)", p, p, p)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := base().Order(studentSortColumns.orderBy(params.SortBy, "created_at", params.Asc)).Order("id DESC")
	if params.Limit > 0 {
		q = q.Offset(params.Offset).Limit(params.Limit)
	}

	students := make([]model.Student, 0)
	if err := q.Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (r *studentRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return affected(r.db.WithContext(ctx).Model(&model.Student{}).Where("id = ?", id).Updates(updates))
}

func (r *studentRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Student{}))
}

func (r *studentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&count).Error
	return count, err
}

func (r *studentRepo) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	rows := make([]model.StatusCount, 0)
	err := r.db.WithContext(ctx).Model(&model.Student{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}
