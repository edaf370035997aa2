package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/metrics"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = apperrors.Unauthenticated("Invalid credentials")
	ErrUserNotFound       = apperrors.NotFound("User not found")
	ErrUserExists         = apperrors.Conflict("Username or email already exists")
	ErrWrongPassword      = apperrors.BadRequest("Current password is incorrect")
)

// LoginResult 登录结果
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID int64) (*model.User, error)
	Register(ctx context.Context, actor permission.Principal, req *dto.RegisterRequest) (*model.User, error)
	ChangePassword(ctx context.Context, actor permission.Principal, req *dto.ChangePasswordRequest) error
	EnsureSupervisor(ctx context.Context, cfg *config.BootstrapConfig) error
}

type authService struct {
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	revoker  TokenRevoker
	activity ActivityService
	logger   *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	revoker TokenRevoker,
	activity ActivityService,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		jwtMgr:   jwtMgr,
		revoker:  revoker,
		activity: activity,
		logger:   logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*LoginResult, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	// 3. 签发令牌，能力位以当前存储值为快照
	token, expiresAt, err := s.jwtMgr.Issue(jwt.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Set,
	})
	if err != nil {
		s.logger.Error("签发令牌失败", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.activity.Record(ctx, user.ID, "Logged in", model.EntityUser, idRef(user.ID))

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.revoker == nil {
		s.logger.Debug("未配置令牌黑名单，登出仅由客户端丢弃令牌", zap.Int64("user_id", claims.UserID))
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revoker.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("令牌加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
		return apperrors.Internal(err)
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, actor permission.Principal, req *dto.RegisterRequest) (*model.User, error) {
	exists, err := s.repo.User.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		s.logger.Error("检查用户名/邮箱唯一性失败", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	perms := permission.DefaultAssistant()
	applyFlag(&perms.CanViewStudents, req.CanViewStudents)
	applyFlag(&perms.CanEditStudent, req.CanEditStudent)
	applyFlag(&perms.CanDeleteStudent, req.CanDeleteStudent)
	applyFlag(&perms.CanUploadDocs, req.CanUploadDocs)
	applyFlag(&perms.CanManageUsers, req.CanManageUsers)

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         permission.RoleAssistant,
		Set:          perms,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		s.logger.Error("创建助理失败", zap.String("username", req.Username), zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	s.activity.Record(ctx, actor.UserID, "Created new assistant: "+user.Username, model.EntityUser, idRef(user.ID))
	return user, nil
}

func applyFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, actor permission.Principal, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.repo.User.Update(ctx, user.ID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return notFound(err, ErrUserNotFound)
	}

	s.activity.Record(ctx, user.ID, "Changed password", model.EntityUser, idRef(user.ID))
	return nil
}

// ────────────────────── EnsureSupervisor ──────────────────────

// EnsureSupervisor 库中没有主管时按配置创建；未配置密码则仅告警
func (s *authService) EnsureSupervisor(ctx context.Context, cfg *config.BootstrapConfig) error {
	count, err := s.repo.User.CountByRole(ctx, permission.RoleSupervisor)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Password == "" {
		s.logger.Warn("尚无主管账号，且未配置 auth.bootstrap.password，跳过初始化")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Username:     cfg.Username,
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         permission.RoleSupervisor,
		Set:          permission.Full(),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("已创建初始主管账号", zap.String("username", user.Username))
	return nil
}
