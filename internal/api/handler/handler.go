package handler

import (
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Student   *StudentHandler
	Document  *DocumentHandler
	Task      *TaskHandler
	Dashboard *DashboardHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth, logger),
		User:      NewUserHandler(svc.User, logger),
		Student:   NewStudentHandler(svc.Student, svc.Export, logger),
		Document:  NewDocumentHandler(svc.Document, logger),
		Task:      NewTaskHandler(svc.Task, logger),
		Dashboard: NewDashboardHandler(svc.Dashboard, svc.Activity, logger),
	}
}
