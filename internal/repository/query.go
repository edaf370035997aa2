package repository

import (
	"strings"
)

// ListParams 列表查询参数
type ListParams struct {
	Search string
	SortBy string
	Asc    bool
	Offset int
	Limit  int
}

// sortColumns 排序白名单：请求字段 → SQL 表达式
type sortColumns map[string]string

// orderBy 生成排序子句，sortBy 不在白名单内时回退到 fallback
func (s sortColumns) orderBy(sortBy, fallback string, asc bool) string {
	col, ok := s[sortBy]
	if !ok {
		col = s[fallback]
	}
	if asc {
		return col + " ASC"
	}
	return col + " DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 大小写不敏感子串匹配的 ILIKE 模式，转义通配符
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
