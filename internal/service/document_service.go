package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/storage"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 文档模块业务错误 ──

var ErrDocumentNotFound = apperrors.NotFound("Document not found")

// DocumentService 文档业务接口
//
// 文档行与 blob 同生同灭：
//   - 上传：先写 blob，再写行；行写入失败时删除本批 blob
//   - 替换：先写新 blob，再更新行；行更新失败删除新 blob，成功后尽力删除旧 blob
//   - 删除：行删除与 blob 删除在同一事务内，blob 删除失败时行回滚
type DocumentService interface {
	List(ctx context.Context, req *dto.DocumentListRequest) ([]model.DocumentDetail, int64, error)
	ListByStudent(ctx context.Context, studentID int64) ([]model.DocumentDetail, error)
	Get(ctx context.Context, id int64) (*model.DocumentDetail, error)
	Open(ctx context.Context, id int64) (*model.DocumentDetail, io.ReadCloser, error)
	Upload(ctx context.Context, actor permission.Principal, studentID int64, files []storage.Upload) ([]model.Document, error)
	Replace(ctx context.Context, actor permission.Principal, id int64, file storage.Upload) (*model.DocumentDetail, error)
	Delete(ctx context.Context, actor permission.Principal, id int64) error
}

type documentService struct {
	repo     *repository.Repository
	blobs    *storage.Manager
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time
}

// NewDocumentService 创建 DocumentService 实例
func NewDocumentService(repo *repository.Repository, blobs *storage.Manager, activity ActivityService, logger *zap.Logger) DocumentService {
	return &documentService{
		repo:     repo,
		blobs:    blobs,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── 查询 ──────────────────────

func (s *documentService) List(ctx context.Context, req *dto.DocumentListRequest) ([]model.DocumentDetail, int64, error) {
	params := toListParams(req.Search, req.SortBy, req.Ascending(), req.GetOffset(), req.GetLimit())
	docs, total, err := s.repo.Document.List(ctx, params)
	if err != nil {
		s.logger.Error("查询文档列表失败", zap.Error(err))
		return nil, 0, apperrors.Internal(err)
	}
	return docs, total, nil
}

func (s *documentService) ListByStudent(ctx context.Context, studentID int64) ([]model.DocumentDetail, error) {
	docs, err := s.repo.Document.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生文档失败", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id int64) (*model.DocumentDetail, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrDocumentNotFound)
	}
	return doc, nil
}

// Open 返回文档元数据与内容流，调用方负责关闭
func (s *documentService) Open(ctx context.Context, id int64) (*model.DocumentDetail, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StoredFilename)
	if err != nil {
		s.logger.Warn("读取文档内容失败",
			zap.Int64("document_id", id),
			zap.String("stored_name", doc.StoredFilename),
			zap.Error(err),
		)
		return nil, nil, err
	}
	return doc, rc, nil
}

// ────────────────────── Upload ──────────────────────

func (s *documentService) Upload(ctx context.Context, actor permission.Principal, studentID int64, files []storage.Upload) ([]model.Document, error) {
	if len(files) == 0 {
		return nil, storage.ErrNoFiles
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		return nil, notFound(err, ErrStudentNotFound)
	}

	handles, err := s.blobs.SaveBatch(ctx, files)
	if err != nil {
		return nil, err
	}

	uploader := actor.UserID
	now := s.now()
	docs := make([]model.Document, 0, len(handles))
	for _, h := range handles {
		docs = append(docs, model.Document{
			StudentID:        studentID,
			UploadedBy:       &uploader,
			OriginalFilename: h.OriginalName,
			StoredFilename:   h.StoredName,
			FilePath:         h.Location,
			FileSize:         h.Size,
			UploadDate:       now,
		})
	}

	if err := s.repo.Document.CreateBatch(ctx, docs); err != nil {
		s.logger.Error("写入文档记录失败，清理已上传文件",
			zap.Int64("student_id", studentID),
			zap.Int("files", len(handles)),
			zap.Error(err),
		)
		s.blobs.Discard(ctx, handles)
		return nil, apperrors.Internal(err)
	}

	s.activity.Record(ctx, actor.UserID,
		fmt.Sprintf("Uploaded %d document(s) for student: %s", len(docs), student.Name),
		model.EntityDocument, nil)
	return docs, nil
}

// ────────────────────── Replace ──────────────────────

func (s *documentService) Replace(ctx context.Context, actor permission.Principal, id int64, file storage.Upload) (*model.DocumentDetail, error) {
	old, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	h, err := s.blobs.Save(ctx, file)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"original_filename": h.OriginalName,
		"stored_filename":   h.StoredName,
		"file_path":         h.Location,
		"file_size":         h.Size,
		"upload_date":       s.now(),
		"uploaded_by":       actor.UserID,
	}
	if err := s.repo.Document.Update(ctx, id, updates); err != nil {
		s.logger.Error("更新文档记录失败，删除新文件",
			zap.Int64("document_id", id),
			zap.String("stored_name", h.StoredName),
			zap.Error(err),
		)
		s.blobs.Discard(ctx, []storage.Handle{*h})
		return nil, notFound(err, ErrDocumentNotFound)
	}

	// 旧文件删除失败只会残留文件，不影响新记录
	if err := s.blobs.Delete(ctx, old.StoredFilename); err != nil {
		s.logger.Warn("删除旧文件失败，文件残留",
			zap.Int64("document_id", id),
			zap.String("stored_name", old.StoredFilename),
			zap.Error(err),
		)
	}

	s.activity.Record(ctx, actor.UserID,
		fmt.Sprintf("Re-uploaded/Replaced document \"%s\" for student: %s", old.OriginalFilename, old.StudentName),
		model.EntityDocument, idRef(id))

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ────────────────────── Delete ──────────────────────

func (s *documentService) Delete(ctx context.Context, actor permission.Principal, id int64) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	// 先删行再删文件：行删除失败时文件保持原样；文件删除失败只会残留无引用的 blob
	if err := s.repo.Document.Delete(ctx, id); err != nil {
		s.logger.Error("删除文档失败", zap.Int64("document_id", id), zap.Error(err))
		return notFound(err, ErrDocumentNotFound)
	}
	s.blobs.DiscardNames(ctx, []string{doc.StoredFilename})

	s.activity.Record(ctx, actor.UserID,
		fmt.Sprintf("Deleted document \"%s\" from student: %s", doc.OriginalFilename, doc.StudentName),
		model.EntityDocument, idRef(id))
	return nil
}
