package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
)

// DebugKey gin.Context 中的开关，为 true 时错误响应附带诊断信息
const DebugKey = "response.debug"

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination 计算总页数，limit 非正时按 1 处理
func NewPagination(total int64, page, limit int) Pagination {
	if limit <= 0 {
		limit = 1
	}
	totalPages := int(total / int64(limit))
	if total%int64(limit) > 0 {
		totalPages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// ── 成功响应 ──

// JSON 统一信封：{success, message?, ...payload}
func JSON(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{}
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = status < http.StatusBadRequest
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// OK 200
func OK(c *gin.Context, payload gin.H) {
	JSON(c, http.StatusOK, "", payload)
}

// OKMessage 200 带提示
func OKMessage(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusOK, message, payload)
}

// Created 201
func Created(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusCreated, message, payload)
}

// OKPage 200 分页，列表以 key 命名
func OKPage(c *gin.Context, key string, list interface{}, total int64, page, limit int) {
	OK(c, gin.H{
		key:          list,
		"pagination": NewPagination(total, page, limit),
	})
}

// ── 错误响应 ──

// Fail 按错误分类输出，内部错误不暴露原因
func Fail(c *gin.Context, err error) {
	appErr := apperrors.As(err)

	body := gin.H{}
	if len(appErr.Details) > 0 {
		for k, v := range appErr.Details {
			body[k] = v
		}
	}
	if c.GetBool(DebugKey) && appErr.Err != nil {
		body["stack"] = appErr.Err.Error()
	}
	JSON(c, appErr.Kind.HTTPStatus(), appErr.Message, body)
}

// Abort 输出错误并中止后续处理
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}
