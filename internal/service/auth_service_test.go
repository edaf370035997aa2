package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/model"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

type fakeRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func (f *fakeRevoker) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[jti] = ttl
	return nil
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		TokenTTL:  24 * time.Hour,
	})
}

func setupTestAuthService(revoker TokenRevoker) (AuthService, *mockData, *jwt.Manager) {
	repo, d := newMockRepository()
	jwtMgr := newTestJWT()
	activity := NewActivityService(repo, testLogger)
	return NewAuthService(repo, jwtMgr, revoker, activity, testLogger), d, jwtMgr
}

func createTestUser(d *mockData, username, password string, perms permission.Set) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:           d.id(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         permission.RoleAssistant,
		Set:          perms,
	}
	d.users[u.ID] = u
	return u
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, d, jwtMgr := setupTestAuthService(nil)
	user := createTestUser(d, "alice", "password123", permission.Set{CanViewStudents: true, CanUploadDocs: true})

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.Token == "" {
		t.Fatal("Token 不应为空")
	}

	claims, err := jwtMgr.Verify(result.Token)
	if err != nil {
		t.Fatalf("签发的令牌应可验证: %v", err)
	}
	if claims.UserID != user.ID || !claims.CanUploadDocs || claims.CanDeleteStudent {
		t.Errorf("令牌声明不匹配: %+v", claims)
	}

	entry := lastActivity(d)
	if entry == nil || entry.Action != "Logged in" || entry.EntityType != model.EntityUser {
		t.Errorf("登录应记录活动日志，实际: %+v", entry)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	createTestUser(d, "alice", "password123", permission.DefaultAssistant())

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "wrong_password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
	if len(d.activity) != 0 {
		t.Error("登录失败不应写入活动日志")
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "nobody", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_ActivityFailureDoesNotFailLogin(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	createTestUser(d, "alice", "password123", permission.DefaultAssistant())
	d.failOn["Activity.Create"] = errors.New("disk full")

	if _, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "password123"}); err != nil {
		t.Errorf("活动日志失败不应影响登录: %v", err)
	}
}

// ── 权限快照 ──

func TestToken_PermissionSnapshot(t *testing.T) {
	repo, d := newMockRepository()
	jwtMgr := newTestJWT()
	activity := NewActivityService(repo, testLogger)
	auth := NewAuthService(repo, jwtMgr, nil, activity, testLogger)
	users := NewUserService(repo, activity, testLogger)
	user := createTestUser(d, "alice", "password123", permission.DefaultAssistant())
	ctx := context.Background()

	first, err := auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}

	// 主管授予删除权限
	grant := true
	if _, err := users.UpdatePermissions(ctx, supervisorPrincipal(d), user.ID, &dto.UpdatePermissionsRequest{CanDeleteStudent: &grant}); err != nil {
		t.Fatalf("授权失败: %v", err)
	}

	old, _ := jwtMgr.Verify(first.Token)
	if permission.RequireCapability(old.Principal(), permission.DeleteStudent) == nil {
		t.Error("旧令牌不应获得新授予的权限")
	}

	second, _ := auth.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "password123"})
	fresh, _ := jwtMgr.Verify(second.Token)
	if err := permission.RequireCapability(fresh.Principal(), permission.DeleteStudent); err != nil {
		t.Errorf("重新登录后应获得权限: %v", err)
	}
}

// ── 注册测试 ──

func TestRegister_DefaultsToViewOnly(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	actor := supervisorPrincipal(d)

	user, err := svc.Register(context.Background(), actor, &dto.RegisterRequest{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "secret12",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if user.Role != permission.RoleAssistant {
		t.Errorf("期望角色 assistant，实际 %s", user.Role)
	}
	if user.Set != permission.DefaultAssistant() {
		t.Errorf("默认权限应仅为查看，实际 %+v", user.Set)
	}

	entry := lastActivity(d)
	if entry == nil || entry.Action != "Created new assistant: bob" || *entry.EntityID != user.ID {
		t.Errorf("活动日志不匹配: %+v", entry)
	}
}

func TestRegister_ExplicitFlags(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	no, yes := false, true

	user, err := svc.Register(context.Background(), supervisorPrincipal(d), &dto.RegisterRequest{
		Username:        "carol",
		Email:           "carol@example.com",
		Password:        "secret12",
		CanViewStudents: &no,
		CanUploadDocs:   &yes,
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if user.CanViewStudents || !user.CanUploadDocs {
		t.Errorf("显式能力位未生效: %+v", user.Set)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	createTestUser(d, "alice", "password123", permission.DefaultAssistant())

	_, err := svc.Register(context.Background(), supervisorPrincipal(d), &dto.RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret12",
	})
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("期望 ErrUserExists，实际: %v", err)
	}
}

// ── 其他 ──

func TestMe_ReadsStoredProfile(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	user := createTestUser(d, "alice", "password123", permission.DefaultAssistant())
	d.users[user.ID].CanEditStudent = true

	got, err := svc.Me(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if !got.CanEditStudent {
		t.Error("Me 应返回当前存储的能力位")
	}

	if _, err := svc.Me(context.Background(), 9999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestLogout(t *testing.T) {
	revoker := &fakeRevoker{revoked: make(map[string]time.Duration)}
	svc, d, jwtMgr := setupTestAuthService(revoker)
	createTestUser(d, "alice", "password123", permission.DefaultAssistant())

	result, _ := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "password123"})
	claims, _ := jwtMgr.Verify(result.Token)

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := revoker.revoked[claims.ID]
	if !ok {
		t.Fatal("令牌 JTI 应加入黑名单")
	}
	if ttl <= 0 || ttl > 24*time.Hour {
		t.Errorf("黑名单 TTL 应为令牌剩余有效期，实际 %v", ttl)
	}
}

func TestLogout_WithoutRevoker(t *testing.T) {
	svc, d, jwtMgr := setupTestAuthService(nil)
	createTestUser(d, "alice", "password123", permission.DefaultAssistant())

	result, _ := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "password123"})
	claims, _ := jwtMgr.Verify(result.Token)

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Errorf("未配置黑名单时 Logout 应直接成功: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	user := createTestUser(d, "alice", "password123", permission.DefaultAssistant())
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.Principal(), &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpass123"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Errorf("期望 ErrWrongPassword，实际: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.Principal(), &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpass123"}); err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "newpass123"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}

func TestEnsureSupervisor(t *testing.T) {
	svc, d, _ := setupTestAuthService(nil)
	ctx := context.Background()
	cfg := &config.BootstrapConfig{Username: "admin", Email: "admin@example.com", Password: "admin-pass-123"}

	if err := svc.EnsureSupervisor(ctx, cfg); err != nil {
		t.Fatalf("EnsureSupervisor 应成功: %v", err)
	}
	if err := svc.EnsureSupervisor(ctx, cfg); err != nil {
		t.Fatalf("重复调用应无副作用: %v", err)
	}

	var supervisors int
	for _, u := range d.users {
		if u.IsSupervisor() {
			supervisors++
		}
	}
	if supervisors != 1 {
		t.Errorf("期望 1 个主管，实际 %d", supervisors)
	}
}
