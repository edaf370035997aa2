package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
)

// DocumentRepository 文档元数据访问接口
type DocumentRepository interface {
	CreateBatch(ctx context.Context, docs []model.Document) error
	GetByID(ctx context.Context, id int64) (*model.DocumentDetail, error)
	List(ctx context.Context, params ListParams) ([]model.DocumentDetail, int64, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.DocumentDetail, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	DeleteByStudent(ctx context.Context, studentID int64) ([]string, error)
	DetachUploader(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.RecentUpload, error)
}

var documentSortColumns = sortColumns{
	"upload_date":       "d.upload_date",
	"original_filename": "d.original_filename",
	"file_size":         "d.file_size",
	"student_name":      "s.name",
}

const documentDetailSelect = "d.*, s.name AS student_name, u.username AS uploaded_by_name"

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo 创建 DocumentRepository 实例
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

// joined 文档联表学生与上传者，上传者账号删除后为 NULL
func (r *documentRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("documents AS d").
		Joins("JOIN students s ON s.id = d.student_id").
		Joins("LEFT JOIN users u ON u.id = d.uploaded_by")
}

func (r *documentRepo) CreateBatch(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&docs).Error)
}

func (r *documentRepo) GetByID(ctx context.Context, id int64) (*model.DocumentDetail, error) {
	var doc model.DocumentDetail
	err := r.joined(ctx).Select(documentDetailSelect).Where("d.id = ?", id).Take(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, params ListParams) ([]model.DocumentDetail, int64, error) {
	base := func() *gorm.DB {
		q := r.joined(ctx)
		if params.Search != "" {
			p := containsPattern(params.Search)
			q = q.Where("(s.name ILIKE ? OR d.original_filename ILIKE ?)", p, p)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	docs := make([]model.DocumentDetail, 0)
	err := base().Select(documentDetailSelect).
		Order(documentSortColumns.orderBy(params.SortBy, "upload_date", params.Asc)).
		Order("d.id DESC").
		Offset(params.Offset).Limit(params.Limit).
		Scan(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *documentRepo) ListByStudent(ctx context.Context, studentID int64) ([]model.DocumentDetail, error) {
	docs := make([]model.DocumentDetail, 0)
	err := r.joined(ctx).Select(documentDetailSelect).
		Where("d.student_id = ?", studentID).
		Order("d.upload_date DESC, d.id DESC").
		Scan(&docs).Error
	return docs, err
}

func (r *documentRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return affected(r.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates))
}

func (r *documentRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}))
}

// DeleteByStudent 删除学生的全部文档行，返回被删行的存储文件名
// 文件名取自 RETURNING，与删除处于同一语句，不会漏掉并发上传的文档
func (r *documentRepo) DeleteByStudent(ctx context.Context, studentID int64) ([]string, error) {
	var removed []model.Document
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stored_filename"}}}).
		Where("student_id = ?", studentID).
		Delete(&removed).Error
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(removed))
	for _, d := range removed {
		names = append(names, d.StoredFilename)
	}
	return names, nil
}

func (r *documentRepo) DetachUploader(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.Document{}).
		Where("uploaded_by = ?", userID).
		Update("uploaded_by", nil).Error
}

func (r *documentRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&count).Error
	return count, err
}

func (r *documentRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Where("upload_date >= ?", since).Count(&count).Error
	return count, err
}

func (r *documentRepo) Recent(ctx context.Context, limit int) ([]model.RecentUpload, error) {
	rows := make([]model.RecentUpload, 0)
	err := r.db.WithContext(ctx).
		Table("documents AS d").
		Select("d.id, d.original_filename, d.upload_date, s.name AS student_name, u.username AS uploaded_by_name").
		Joins("LEFT JOIN students s ON s.id = d.student_id").
		Joins("LEFT JOIN users u ON u.id = d.uploaded_by").
		Order("d.upload_date DESC, d.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
