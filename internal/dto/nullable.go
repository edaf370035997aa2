package dto

import (
	"bytes"
	"encoding/json"
)

// Optional 区分「未提供」「显式 null」「提供值」三种状态的 JSON 字段
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON 字段出现即视为已提供
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Ptr 已提供且非 null 时返回值指针
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Some 构造已提供的值
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null 构造显式 null
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}
