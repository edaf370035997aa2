// Package storage 管理文档文件（blob）的写入、读取与删除。
//
// Store 是具体后端（本地目录 / Backblaze B2），Manager 在其上实现
// 单文件与批次上限、批次失败清理和存储文件名生成。
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound blob 不存在
	ErrNotFound = errors.New("blob 不存在")
	// ErrExists 写入的 name 已被占用
	ErrExists = errors.New("blob 已存在")
)

// Store blob 存储后端
type Store interface {
	// Put 写入 name，返回写入字节数；name 已存在时报错
	Put(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open 读取 name，不存在时返回 ErrNotFound
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Delete 删除 name，不存在视为成功
	Delete(ctx context.Context, name string) error
	// Location 记录在元数据中的存储位置
	Location(name string) string
}
