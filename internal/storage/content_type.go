package storage

import (
	"path/filepath"
	"strings"
)

// OctetStream 未知类型与下载时使用的类型
const OctetStream = "application/octet-stream"

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".txt":  "text/plain",
}

// ContentType 按扩展名推断在线预览的类型
func ContentType(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return OctetStream
}
