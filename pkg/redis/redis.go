package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
)

// 所有键带统一前缀，便于与其他应用共用实例
const (
	keyPrefix       = "studenttrack:"
	revokedTokenKey = keyPrefix + "revoked:"
	rateLimitKey    = keyPrefix + "rl:"
)

// Client 封装令牌吊销与登录限流两类用途
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 连接并 Ping；失败时返回错误，由调用方决定是否降级
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis ping %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis 已连接", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Client{rdb: rdb, logger: logger.Named("redis")}, nil
}

// BlacklistToken 吊销令牌直到其自然过期；ttl<=0 说明令牌已失效，无需记录
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, revokedTokenKey+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("吊销令牌: %w", err)
	}
	c.logger.Debug("令牌已吊销", zap.String("jti", jti), zap.Duration("ttl", ttl))
	return nil
}

// IsBlacklisted 令牌是否已被吊销
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedTokenKey+jti).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CheckRateLimit 以有序集合实现滑动窗口，返回本次请求是否在 limit 之内
// 被拒绝的请求也占用窗口配额，持续重试不会提前解封
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	key = rateLimitKey + key
	now := time.Now().UnixNano()
	cutoff := strconv.FormatInt(now-window.Nanoseconds(), 10)

	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", "("+cutoff)
		p.ZAdd(ctx, key, goredis.Z{Score: float64(now), Member: uuid.NewString()})
		card = p.ZCard(ctx, key)
		p.PExpire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("限流计数: %w", err)
	}
	return card.Val() <= int64(limit), nil
}

// Ping 健康检查
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
