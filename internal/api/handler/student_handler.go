package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
	exportSvc  service.ExportService
	logger     *zap.Logger
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService, exportSvc service.ExportService, logger *zap.Logger) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, exportSvc: exportSvc, logger: logger}
}

// List 学生列表
// GET /api/students?page=&limit=&search=&sortBy=&order=
func (h *StudentHandler) List(c *gin.Context) {
	var req dto.StudentListRequest
	if !bindQuery(c, &req) {
		return
	}

	students, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKPage(c, "students", students, total, req.GetPage(), req.GetLimit())
}

// Get 学生详情，附带文档与任务
// GET /api/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.studentSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{
		"student":   detail.Student,
		"documents": detail.Documents,
		"tasks":     detail.Tasks,
	})
}

// Create 创建学生
// POST /api/students
func (h *StudentHandler) Create(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, "Student created successfully", gin.H{
		"studentId": student.ID,
		"student":   student,
	})
}

// Update 部分更新学生
// PUT /api/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Student updated successfully", gin.H{"student": student})
}

// Delete 删除学生及其文档、任务
// DELETE /api/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Student deleted successfully", nil)
}

// Export 导出学生列表为 xlsx，沿用列表的搜索与排序参数
// GET /api/students/export
func (h *StudentHandler) Export(c *gin.Context) {
	var req dto.StudentListRequest
	if !bindQuery(c, &req) {
		return
	}

	buf, filename, err := h.exportSvc.ExportStudents(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
