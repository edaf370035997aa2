package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/handler"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/router"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/service"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/storage"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/database"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	applogger "github.com/neda420/Website-for-student-management-by-supervisor/pkg/logger"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/observability"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("STUDENTTRACK_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志与错误上报
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	flushSentry, err := observability.InitSentry(&cfg.Sentry)
	if err != nil {
		logger.Warn("Sentry 初始化失败，错误上报不可用", zap.Error(err))
	}
	defer flushSentry()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("storage", cfg.Storage.Driver),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, applogger.GormLevel(cfg.Log.Level), logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：未配置或连接失败时降级运行）
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，令牌黑名单与登录限流将不可用", zap.Error(err))
			rdb = nil
		}
	}
	var revoker service.TokenRevoker
	if rdb != nil {
		revoker = rdb
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 初始化文档存储
	store, err := newStore(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatal("初始化文档存储失败", zap.Error(err))
	}
	blobs := storage.NewManager(store, storage.Limits{
		MaxFileSize: cfg.Storage.MaxFileSize,
		MaxFiles:    cfg.Storage.MaxFiles,
	}, logger)

	// 7. 依赖注入: Repository → Service → Handler
	if err := dto.RegisterValidators(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blobs, revoker, logger)
	h := handler.NewHandler(svc, logger)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.EnsureSupervisor(bootCtx, &cfg.Auth.Bootstrap); err != nil {
		logger.Fatal("初始化主管账号失败", zap.Error(err))
	}
	bootCancel()

	// 8. 初始化路由
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, jwtMgr, rdb, sqlDB, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// newStore 按配置选择存储后端
func newStore(ctx context.Context, cfg *config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.StorageB2:
		return storage.NewB2Store(ctx, cfg.B2.AccountID, cfg.B2.ApplicationKey, cfg.B2.Bucket)
	default:
		return storage.NewLocalStore(cfg.UploadDir)
	}
}
