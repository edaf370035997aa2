package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// TaskHandler 任务模块 HTTP 处理器
type TaskHandler struct {
	taskSvc service.TaskService
	logger  *zap.Logger
}

// NewTaskHandler 创建 TaskHandler
func NewTaskHandler(taskSvc service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc, logger: logger}
}

// List 任务列表，可按学生、状态、优先级过滤
// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var req dto.TaskListRequest
	if !bindQuery(c, &req) {
		return
	}

	tasks, total, err := h.taskSvc.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKPage(c, "tasks", tasks, total, req.GetPage(), req.GetLimit())
}

// Get 单个任务
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"task": task})
}

// Create 为学生指派任务
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskSvc.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, "Task created successfully", gin.H{
		"taskId": task.ID,
		"task":   task,
	})
}

// Update 部分更新任务
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskSvc.Update(c.Request.Context(), p, id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Task updated successfully", gin.H{"task": task})
}

// Delete 删除任务
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	p, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.taskSvc.Delete(c.Request.Context(), p, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OKMessage(c, "Task deleted successfully", nil)
}
