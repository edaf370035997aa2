package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
)

const testMaxSize = 1 << 10

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	return NewManager(store, Limits{MaxFileSize: testMaxSize, MaxFiles: 3}, zap.NewNop()), dir
}

func upload(name string, data []byte) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveAndOpen(t *testing.T) {
	m, dir := newTestManager(t)
	ctx := context.Background()

	h, err := m.Save(ctx, upload("Transcript Final.pdf", []byte("hello")))
	require.NoError(t, err)

	assert.Equal(t, "Transcript Final.pdf", h.OriginalName)
	assert.EqualValues(t, 5, h.Size)
	assert.True(t, strings.HasPrefix(h.StoredName, "Transcript_Final-"), h.StoredName)
	assert.True(t, strings.HasSuffix(h.StoredName, ".pdf"), h.StoredName)
	assert.Equal(t, []string{h.StoredName}, filesIn(t, dir))

	rc, err := m.Open(ctx, h.StoredName)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSave_StoredNamesAreUnique(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Save(ctx, upload("same.txt", []byte("a")))
	require.NoError(t, err)
	b, err := m.Save(ctx, upload("same.txt", []byte("b")))
	require.NoError(t, err)
	assert.NotEqual(t, a.StoredName, b.StoredName)
}

func TestSave_RejectsTraversalInName(t *testing.T) {
	m, dir := newTestManager(t)

	h, err := m.Save(context.Background(), upload("../../etc/passwd", []byte("x")))
	require.NoError(t, err)
	assert.False(t, strings.Contains(h.StoredName, "/"))
	assert.Len(t, filesIn(t, dir), 1)
}

func TestSave_OversizeDeclared(t *testing.T) {
	m, dir := newTestManager(t)

	_, err := m.Save(context.Background(), upload("big.bin", make([]byte, testMaxSize+1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Equal(t, apperrors.KindPayloadTooLarge, apperrors.KindOf(err))
	assert.Equal(t, "File too large. Maximum size is 1KB", apperrors.As(err).Message)
	assert.Empty(t, filesIn(t, dir))
}

func TestSave_OversizeStreamed(t *testing.T) {
	m, dir := newTestManager(t)

	// 声明大小与实际内容不符时以实际写入量为准
	u := upload("liar.bin", make([]byte, testMaxSize+10))
	u.Size = 10

	_, err := m.Save(context.Background(), u)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Empty(t, filesIn(t, dir))
}

func TestSave_ExactlyAtLimit(t *testing.T) {
	m, _ := newTestManager(t)

	h, err := m.Save(context.Background(), upload("edge.bin", make([]byte, testMaxSize)))
	require.NoError(t, err)
	assert.EqualValues(t, testMaxSize, h.Size)
}

func TestSaveBatch_Limits(t *testing.T) {
	m, dir := newTestManager(t)
	ctx := context.Background()

	_, err := m.SaveBatch(ctx, nil)
	assert.True(t, errors.Is(err, ErrNoFiles))

	four := []Upload{
		upload("a.txt", []byte("a")), upload("b.txt", []byte("b")),
		upload("c.txt", []byte("c")), upload("d.txt", []byte("d")),
	}
	_, err = m.SaveBatch(ctx, four)
	assert.True(t, errors.Is(err, ErrTooManyFiles))
	assert.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
	assert.Empty(t, filesIn(t, dir))
}

func TestSaveBatch_OversizeLeavesNothing(t *testing.T) {
	m, dir := newTestManager(t)

	big := upload("b.bin", make([]byte, testMaxSize+1))
	big.Size = 1 // 只有写入时才能发现超限

	_, err := m.SaveBatch(context.Background(), []Upload{
		upload("a.txt", []byte("first")),
		big,
		upload("c.txt", []byte("third")),
	})
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Empty(t, filesIn(t, dir), "失败批次不应残留任何文件")
}

// failingStore 第 failAt 次 Put 时返回错误
type failingStore struct {
	*LocalStore
	puts   int
	failAt int
}

func (s *failingStore) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	s.puts++
	if s.puts == s.failAt {
		return 0, errors.New("disk full")
	}
	return s.LocalStore.Put(ctx, name, r)
}

func TestSaveBatch_StoreFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocalStore(dir)
	require.NoError(t, err)
	m := NewManager(&failingStore{LocalStore: local, failAt: 3}, Limits{MaxFileSize: testMaxSize, MaxFiles: 3}, zap.NewNop())

	_, err = m.SaveBatch(context.Background(), []Upload{
		upload("a.txt", []byte("a")), upload("b.txt", []byte("b")), upload("c.txt", []byte("c")),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Empty(t, filesIn(t, dir))
}

// occupiedStore 每次 Put 都报告 name 已被占用，并记录 Delete 调用
type occupiedStore struct {
	*LocalStore
	deleted []string
}

func (s *occupiedStore) Put(_ context.Context, name string, _ io.Reader) (int64, error) {
	return 0, fmt.Errorf("%w: %s", ErrExists, name)
}

func (s *occupiedStore) Delete(ctx context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return s.LocalStore.Delete(ctx, name)
}

func TestSave_OccupiedNameIsNotRemoved(t *testing.T) {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	store := &occupiedStore{LocalStore: local}
	m := NewManager(store, Limits{MaxFileSize: testMaxSize, MaxFiles: 3}, zap.NewNop())

	_, err = m.Save(context.Background(), upload("a.txt", []byte("a")))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Empty(t, store.deleted, "不应删除已占用 name 上的对象")
}

func TestDelete_Idempotent(t *testing.T) {
	m, dir := newTestManager(t)
	ctx := context.Background()

	h, err := m.Save(ctx, upload("x.txt", []byte("x")))
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, h.StoredName))
	require.NoError(t, m.Delete(ctx, h.StoredName))
	assert.Empty(t, filesIn(t, dir))
}

func TestOpen_Missing(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Open(context.Background(), "missing.pdf")
	assert.True(t, errors.Is(err, ErrBlobNotFound))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.pdf":     "application/pdf",
		"a.JPG":     "image/jpeg",
		"a.jpeg":    "image/jpeg",
		"a.png":     "image/png",
		"notes.txt": "text/plain",
		"a.docx":    OctetStream,
		"noext":     OctetStream,
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}
