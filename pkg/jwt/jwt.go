package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/permission"
)

const issuer = "studenttrack"

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Identity 签发令牌所需的账号快照
type Identity struct {
	UserID      int64
	Username    string
	Email       string
	Role        permission.Role
	Permissions permission.Set
}

// Claims 自定义 JWT 声明
// 能力位在签发时复制，之后账号权限变更不影响已签发令牌
type Claims struct {
	UserID   int64           `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     permission.Role `json:"role"`
	permission.Set
	jwtv5.RegisteredClaims
}

// Principal 转换为授权判定使用的调用方
func (c *Claims) Principal() permission.Principal {
	return permission.Principal{
		UserID:      c.UserID,
		Username:    c.Username,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: c.Set,
	}
}

// Manager JWT 管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// WithClock 替换时钟，用于测试过期边界
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// TTL 令牌有效期
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue 签发令牌，返回令牌与过期时间
// NumericDate 只保留整秒，签发时刻先截断，iat、exp 与返回值共用同一基准
func (m *Manager) Issue(id Identity) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
		Set:      id.Permissions,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify 解析并验证令牌
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithTimeFunc(m.now), jwtv5.WithIssuer(issuer), jwtv5.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
