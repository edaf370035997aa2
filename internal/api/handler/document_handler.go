package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/middleware"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/storage"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// 上传表单字段
const (
	fieldDocuments = "documents"
	fieldDocument  = "document"
)

var errNoFile = apperrors.BadRequest("No file uploaded")

// DocumentHandler 文档模块 HTTP 处理器
type DocumentHandler struct {
	documentSvc service.DocumentService
	logger      *zap.Logger
}

// NewDocumentHandler 创建 DocumentHandler
func NewDocumentHandler(documentSvc service.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documentSvc: documentSvc, logger: logger}
}

// List 全部文档
// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	var req dto.DocumentListRequest
	if !bindQuery(c, &req) {
		return
	}

	docs, total, err := h.documentSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKPage(c, "documents", docs, total, req.GetPage(), req.GetLimit())
}

// ListByStudent 某个学生的文档
// GET /api/documents/student/:studentId
func (h *DocumentHandler) ListByStudent(c *gin.Context) {
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	docs, err := h.documentSvc.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"documents": docs})
}

// View 浏览器内联预览
// GET /api/documents/view/:id
func (h *DocumentHandler) View(c *gin.Context) {
	h.stream(c, "inline", true)
}

// Download 附件下载
// GET /api/documents/download/:id
func (h *DocumentHandler) Download(c *gin.Context) {
	h.stream(c, "attachment", false)
}

func (h *DocumentHandler) stream(c *gin.Context, disposition string, sniff bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	doc, rc, err := h.documentSvc.Open(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer rc.Close()

	contentType := storage.OctetStream
	if sniff {
		contentType = storage.ContentType(doc.OriginalFilename)
	}

	c.DataFromReader(http.StatusOK, doc.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename*=UTF-8''%s", disposition, url.PathEscape(doc.OriginalFilename)),
	})
}

// Upload 批量上传学生文档，表单字段 documents
// POST /api/documents/upload/:studentId
func (h *DocumentHandler) Upload(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.formError(c, err, storage.ErrNoFiles)
		return
	}
	defer form.RemoveAll()

	uploads := toUploads(form.File[fieldDocuments])
	docs, err := h.documentSvc.Upload(c.Request.Context(), p, studentID, uploads)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, "Documents uploaded successfully", gin.H{"documents": docs})
}

// Reupload 替换已有文档的文件，表单字段 document
// PUT /api/documents/reupload/:id
func (h *DocumentHandler) Reupload(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile(fieldDocument)
	if err != nil {
		h.formError(c, err, errNoFile)
		return
	}
	if form := c.Request.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	doc, err := h.documentSvc.Replace(c.Request.Context(), p, id, storage.FromFileHeader(fh))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Document re-uploaded successfully", gin.H{"document": doc})
}

// Delete 删除文档
// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.documentSvc.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Document deleted successfully", nil)
}

// formError 表单解析失败：超出请求体上限返回 413，其余视为缺少文件
func (h *DocumentHandler) formError(c *gin.Context, err error, missing error) {
	if middleware.BodyTooLarge(err) {
		response.Fail(c, storage.ErrFileTooLarge)
		return
	}
	h.logger.Debug("解析上传表单失败", zap.Error(err))
	response.Fail(c, missing)
}

func toUploads(files []*multipart.FileHeader) []storage.Upload {
	uploads := make([]storage.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, storage.FromFileHeader(fh))
	}
	return uploads
}
