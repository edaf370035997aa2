package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
	"github.com/neda420/Website-for-student-management-by-supervisor/pkg/metrics"
)

var (
	ErrNoFiles       = apperrors.BadRequest("No files uploaded")
	ErrTooManyFiles  = apperrors.BadRequest("Too many files")
	ErrFileTooLarge  = apperrors.PayloadTooLarge("File too large")
	ErrBlobNotFound  = apperrors.NotFound("File not found on server")
	ErrUnreadable    = apperrors.BadRequest("Unable to read uploaded file")
	errStoreInternal = errors.New("写入存储失败")
)

// Limits 上传限制
type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// Upload 待写入的文件
type Upload struct {
	Filename string
	Size     int64 // 客户端声明的大小，未知时为 -1
	Open     func() (io.ReadCloser, error)
}

// FromFileHeader 由 multipart 表单文件构造 Upload
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Handle 已写入的 blob
type Handle struct {
	OriginalName string
	StoredName   string
	Location     string
	Size         int64
}

// Manager blob 管理器
type Manager struct {
	store  Store
	limits Limits
	logger *zap.Logger
	now    func() time.Time
}

// NewManager 创建 blob 管理器
func NewManager(store Store, limits Limits, logger *zap.Logger) *Manager {
	return &Manager{store: store, limits: limits, logger: logger, now: time.Now}
}

// Limits 当前上传限制
func (m *Manager) Limits() Limits {
	return m.limits
}

func (m *Manager) tooLarge() error {
	return apperrors.Wrap(apperrors.KindPayloadTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s", formatSize(m.limits.MaxFileSize)), ErrFileTooLarge)
}

func (m *Manager) tooMany() error {
	return apperrors.Wrap(apperrors.KindBadRequest,
		fmt.Sprintf("Too many files. Maximum is %d files", m.limits.MaxFiles), ErrTooManyFiles)
}

// Save 写入单个文件，超出大小上限时不留下任何 blob
func (m *Manager) Save(ctx context.Context, u Upload) (*Handle, error) {
	if u.Size > m.limits.MaxFileSize {
		return nil, m.tooLarge()
	}

	rc, err := u.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindBadRequest, ErrUnreadable.Message, err)
	}
	defer rc.Close()

	name := m.storedName(u.Filename)
	n, err := m.store.Put(ctx, name, io.LimitReader(rc, m.limits.MaxFileSize+1))
	metrics.ObserveBlob("put", err)
	if err != nil {
		// name 被占用时对象不属于本次写入，不能清理
		if !errors.Is(err, ErrExists) {
			m.remove(ctx, name)
		}
		return nil, apperrors.Internal(fmt.Errorf("%w: %s: %v", errStoreInternal, name, err))
	}
	if n > m.limits.MaxFileSize {
		m.remove(ctx, name)
		return nil, m.tooLarge()
	}

	metrics.UploadedBytes.Add(float64(n))
	return &Handle{
		OriginalName: u.Filename,
		StoredName:   name,
		Location:     m.store.Location(name),
		Size:         n,
	}, nil
}

// SaveBatch 全部写入或全部不写入：任一文件失败时删除本批次已写入的 blob
func (m *Manager) SaveBatch(ctx context.Context, uploads []Upload) ([]Handle, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(uploads) > m.limits.MaxFiles {
		return nil, m.tooMany()
	}
	for _, u := range uploads {
		if u.Size > m.limits.MaxFileSize {
			return nil, m.tooLarge()
		}
	}

	handles := make([]Handle, 0, len(uploads))
	for _, u := range uploads {
		h, err := m.Save(ctx, u)
		if err != nil {
			m.Discard(ctx, handles)
			return nil, err
		}
		handles = append(handles, *h)
	}
	return handles, nil
}

// Open 读取 blob
func (m *Manager) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	rc, err := m.store.Open(ctx, storedName)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rc, nil
}

// Delete 删除 blob，重复删除视为成功
func (m *Manager) Delete(ctx context.Context, storedName string) error {
	err := m.store.Delete(ctx, storedName)
	metrics.ObserveBlob("delete", err)
	return err
}

// Discard 尽力删除一组 blob（补偿清理），失败仅记录日志
func (m *Manager) Discard(ctx context.Context, handles []Handle) {
	for _, h := range handles {
		m.remove(ctx, h.StoredName)
	}
}

// DiscardNames 同 Discard，按存储文件名
func (m *Manager) DiscardNames(ctx context.Context, names []string) {
	for _, name := range names {
		m.remove(ctx, name)
	}
}

func (m *Manager) remove(ctx context.Context, name string) {
	if err := m.Delete(context.WithoutCancel(ctx), name); err != nil {
		m.logger.Error("删除 blob 失败，文件可能残留",
			zap.String("stored_name", name),
			zap.Error(err),
		)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// storedName 生成 <原名>-<毫秒时间戳>-<随机串><扩展名>
func (m *Manager) storedName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if len(ext) > 16 || unsafeChars.MatchString(ext) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "_"), "._")
	if len(base) > 100 {
		base = base[:100]
	}
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, m.now().UnixMilli(), uuid.NewString()[:8], ext)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
