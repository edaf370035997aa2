package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/neda420/Website-for-student-management-by-supervisor/config"
)

// InitSentry DSN 为空时不启用，返回的函数在退出前刷新缓冲
func InitSentry(cfg *config.SentryConfig) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr 未初始化时为空操作
func CaptureErr(err error) {
	if err != nil {
		sentry.CaptureException(err)
	}
}

// CapturePanic 上报 recover 得到的值
func CapturePanic(v interface{}) {
	sentry.CurrentHub().Recover(v)
}
