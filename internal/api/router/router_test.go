package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/api/handler"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/jwt"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Mode: config.ModeDevelopment, BodyLimit: 1 << 20},
		Auth:    config.AuthConfig{JWTSecret: "router-test-secret-0123456789", TokenTTL: time.Hour},
		Storage: config.StorageConfig{MaxFileSize: 1 << 20, MaxFiles: 10},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

// 守卫在处理器之前拒绝请求，因此处理器可以为空
func setupRouter(db Pinger) (*gin.Engine, *jwt.Manager) {
	cfg := testConfig()
	mgr := jwt.NewManager(&cfg.Auth)
	return Setup(cfg, &handler.Handler{}, mgr, nil, db, zap.NewNop()), mgr
}

func bearer(t *testing.T, mgr *jwt.Manager, role permission.Role, perms permission.Set) string {
	t.Helper()
	token, _, err := mgr.Issue(jwt.Identity{UserID: 2, Username: "u", Role: role, Permissions: perms})
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r, _ := setupRouter(stubPinger{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Errorf("期望 200，实际 %d", w.Code)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("期望响应带 X-Request-ID")
		}
	})

	t.Run("数据库不可用", func(t *testing.T) {
		r, _ := setupRouter(stubPinger{err: errors.New("down")})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("期望 503，实际 %d", w.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestNoRoute(t *testing.T) {
	r, _ := setupRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

func TestRoutesRequireToken(t *testing.T) {
	r, _ := setupRouter(nil)
	routes := [][2]string{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/students"},
		{http.MethodGet, "/api/documents/view/1"},
		{http.MethodPost, "/api/documents/upload/1"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodGet, "/api/dashboard/stats"},
		{http.MethodGet, "/api/users"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt[0], rt[1], nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s 期望 401，实际 %d", rt[0], rt[1], w.Code)
		}
	}
}

// TestGuardMatrix 仅有查看权限的助理访问各写接口均被拒绝
func TestGuardMatrix(t *testing.T) {
	r, mgr := setupRouter(nil)
	viewer := bearer(t, mgr, permission.RoleAssistant, permission.DefaultAssistant())
	manager := bearer(t, mgr, permission.RoleAssistant, permission.Set{CanManageUsers: true})

	tests := []struct {
		method, path, token, wantMsg string
	}{
		{http.MethodPost, "/api/students", viewer, "Access denied. Required permission: can_edit_student"},
		{http.MethodPut, "/api/students/1", viewer, "Access denied. Required permission: can_edit_student"},
		{http.MethodDelete, "/api/students/1", viewer, "Access denied. Required permission: can_delete_student"},
		{http.MethodDelete, "/api/documents/1", viewer, "Access denied. Required permission: can_delete_student"},
		{http.MethodPost, "/api/documents/upload/1", viewer, "Access denied. Required permission: can_upload_docs"},
		{http.MethodPut, "/api/documents/reupload/1", viewer, "Access denied. Required permission: can_upload_docs"},
		{http.MethodPost, "/api/tasks", viewer, "Access denied. Required permission: can_edit_student"},
		{http.MethodDelete, "/api/tasks/1", viewer, "Access denied. Required permission: can_edit_student"},
		{http.MethodGet, "/api/users", viewer, "Access denied. Required permission: can_manage_users"},
		{http.MethodPost, "/api/auth/register", manager, "Access denied. Supervisor privileges required."},
		{http.MethodPut, "/api/users/3/permissions", manager, "Access denied. Supervisor privileges required."},
		{http.MethodDelete, "/api/users/3", manager, "Access denied. Supervisor privileges required."},
		{http.MethodGet, "/api/students", manager, "Access denied. Required permission: can_view_students"},
		{http.MethodGet, "/api/dashboard/stats", manager, "Access denied. Required permission: can_view_students"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.Header.Set("Authorization", tt.token)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusForbidden {
				t.Fatalf("期望 403，实际 %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantMsg) {
				t.Errorf("期望消息 %q，实际 %s", tt.wantMsg, w.Body.String())
			}
		})
	}
}

func TestBodyLimitOnJSONRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Server.BodyLimit = 16
	mgr := jwt.NewManager(&cfg.Auth)
	r := Setup(cfg, &handler.Handler{}, mgr, nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"someone","password":"long enough"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("期望 413，实际 %d", w.Code)
	}
}
