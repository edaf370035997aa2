package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/handler"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/middleware"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/metrics"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/redis"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/response"
)

// multipartOverhead 上传请求体中表单边界与字段的额外开销
const multipartOverhead = 1 << 20

// Pinger 健康检查依赖
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时令牌黑名单与登录限流降级为不生效
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	var (
		blacklist middleware.Blacklist
		limiter   middleware.Limiter
	)
	if rdb != nil {
		blacklist, limiter = rdb, rdb
	}

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Server.IsProduction()))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.Diagnostics(!cfg.Server.IsProduction()))

	r.NoRoute(func(c *gin.Context) {
		response.JSON(c, http.StatusNotFound, "Route not found", nil)
	})

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				logger.Warn("健康检查：数据库不可用", zap.Error(err))
				response.JSON(c, http.StatusServiceUnavailable, "Database unavailable", gin.H{"status": "degraded"})
				return
			}
		}
		response.OK(c, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if cfg.Metrics.Enabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api")

	// 上传接口单独放宽请求体上限，其余接口统一限制
	uploadLimit := int64(cfg.Storage.MaxFiles)*cfg.Storage.MaxFileSize + multipartOverhead
	uploads := api.Group("/documents", middleware.BodyLimit(uploadLimit), middleware.JWTAuth(jwtMgr, blacklist, logger))
	{
		uploads.POST("/upload/:studentId", middleware.RequirePermission(permission.UploadDocs), h.Document.Upload)
		uploads.PUT("/reupload/:id", middleware.RequirePermission(permission.UploadDocs), h.Document.Reupload)
	}

	limited := api.Group("", middleware.BodyLimit(cfg.Server.BodyLimit))

	// 认证模块（无需认证）
	limited.POST("/auth/login",
		middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger),
		h.Auth.Login,
	)

	// 需要认证的路由
	authorized := limited.Group("", middleware.JWTAuth(jwtMgr, blacklist, logger))
	{
		// 认证模块（需要认证）
		authorized.POST("/auth/logout", h.Auth.Logout)
		authorized.GET("/auth/me", h.Auth.Me)
		authorized.PUT("/auth/password", h.Auth.ChangePassword)
		authorized.POST("/auth/register", middleware.RequireSupervisor(), h.Auth.Register)

		// 助理账号
		users := authorized.Group("/users")
		{
			users.GET("", middleware.RequirePermission(permission.ManageUsers), h.User.List)
			users.GET("/:id", middleware.RequirePermission(permission.ManageUsers), h.User.Get)
			users.PUT("/:id/permissions", middleware.RequireSupervisor(), h.User.UpdatePermissions)
			users.DELETE("/:id", middleware.RequireSupervisor(), h.User.Delete)
		}

		// 学生
		students := authorized.Group("/students")
		{
			view := middleware.RequirePermission(permission.ViewStudents)
			edit := middleware.RequirePermission(permission.EditStudent)

			students.GET("", view, h.Student.List)
			students.GET("/export", view, h.Student.Export)
			students.GET("/:id", view, h.Student.Get)
			students.POST("", edit, h.Student.Create)
			students.PUT("/:id", edit, h.Student.Update)
			students.DELETE("/:id", middleware.RequirePermission(permission.DeleteStudent), h.Student.Delete)
		}

		// 文档（上传接口见上方 uploads 分组）
		documents := authorized.Group("/documents")
		{
			view := middleware.RequirePermission(permission.ViewStudents)

			documents.GET("", view, h.Document.List)
			documents.GET("/student/:studentId", view, h.Document.ListByStudent)
			documents.GET("/view/:id", view, h.Document.View)
			documents.GET("/download/:id", view, h.Document.Download)
			documents.DELETE("/:id", middleware.RequirePermission(permission.DeleteStudent), h.Document.Delete)
		}

		// 任务
		tasks := authorized.Group("/tasks")
		{
			view := middleware.RequirePermission(permission.ViewStudents)
			edit := middleware.RequirePermission(permission.EditStudent)

			tasks.GET("", view, h.Task.List)
			tasks.GET("/:id", view, h.Task.Get)
			tasks.POST("", edit, h.Task.Create)
			tasks.PUT("/:id", edit, h.Task.Update)
			tasks.DELETE("/:id", edit, h.Task.Delete)
		}

		// 仪表盘
		dashboard := authorized.Group("/dashboard", middleware.RequirePermission(permission.ViewStudents))
		{
			dashboard.GET("/stats", h.Dashboard.Stats)
			dashboard.GET("/activities", h.Dashboard.Activities)
			dashboard.GET("/activities/student/:studentId", h.Dashboard.StudentActivities)
		}
	}

	return r
}
