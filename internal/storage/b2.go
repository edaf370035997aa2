package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2Store Backblaze B2 存储
type B2Store struct {
	bucket *b2.Bucket

	// 以下两个函数默认绑定 bucket，单元测试可替换
	writer func(ctx context.Context, name string) io.WriteCloser
	exists func(ctx context.Context, name string) (bool, error)
}

// NewB2Store 连接 B2 并打开 bucket
func NewB2Store(ctx context.Context, accountID, appKey, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, fmt.Errorf("创建 b2 客户端失败: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("获取 bucket 失败: %w", err)
	}

	s := &B2Store{bucket: bucket}
	s.writer = func(ctx context.Context, name string) io.WriteCloser {
		return bucket.Object(name).NewWriter(ctx)
	}
	s.exists = func(ctx context.Context, name string) (bool, error) {
		_, err := bucket.Object(name).Attrs(ctx)
		switch {
		case err == nil:
			return true, nil
		case b2.IsNotExist(err):
			return false, nil
		default:
			return false, err
		}
	}
	return s, nil
}

// Put 写入新对象；name 已存在时返回 ErrExists
// 复制失败时先取消写入器的 ctx 再 Close，blazer 不会提交残缺对象
func (s *B2Store) Put(ctx context.Context, name string, r io.Reader) (int64, error) {
	found, err := s.exists(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("查询对象失败: %w", err)
	}
	if found {
		return 0, fmt.Errorf("%w: %s", ErrExists, name)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.writer(wctx, name)

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("写入对象失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("关闭写入器失败: %w", err)
	}
	return n, nil
}

func (s *B2Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := s.bucket.Object(name)
	if _, err := obj.Attrs(ctx); err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj.NewReader(ctx), nil
}

func (s *B2Store) Delete(ctx context.Context, name string) error {
	if err := s.bucket.Object(name).Delete(ctx); err != nil && !b2.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *B2Store) Location(name string) string {
	return fmt.Sprintf("b2://%s/%s", s.bucket.Name(), name)
}
