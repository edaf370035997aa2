package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// DashboardHandler 仪表盘与活动日志 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	activitySvc  service.ActivityService
	logger       *zap.Logger
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, activitySvc service.ActivityService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, activitySvc: activitySvc, logger: logger}
}

// Stats 仪表盘统计
// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"stats": stats})
}

// Activities 最近活动
// GET /api/dashboard/activities?limit=&offset=
func (h *DashboardHandler) Activities(c *gin.Context) {
	var req dto.ActivityListRequest
	if !bindQuery(c, &req) {
		return
	}

	activities, total, err := h.activitySvc.ListRecent(c.Request.Context(), req.GetLimit(), req.Offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{
		"activities": activities,
		"total":      total,
		"limit":      req.GetLimit(),
		"offset":     req.Offset,
	})
}

// StudentActivities 某个学生的活动
// GET /api/dashboard/activities/student/:studentId
func (h *DashboardHandler) StudentActivities(c *gin.Context) {
	studentID, ok := parseID(c, "studentId")
	if !ok {
		return
	}

	var req dto.EntityActivityRequest
	if !bindQuery(c, &req) {
		return
	}

	activities, err := h.activitySvc.ListForEntity(c.Request.Context(), model.EntityStudent, studentID, req.GetLimit())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.OK(c, gin.H{"activities": activities})
}
