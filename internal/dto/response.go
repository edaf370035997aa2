package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page  int `form:"page"  binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetLimit 获取每页数量（含默认值）
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return 10
	}
	return p.Limit
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetLimit()
}

// ListQuery 列表通用参数：分页 + 搜索 + 排序
// SortBy 不在白名单内时由仓储层静默回退到默认字段
type ListQuery struct {
	PaginationRequest
	Search string `form:"search" binding:"omitempty,max=100"`
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
}

// Ascending 仅 "asc" 为升序，其余一律降序
func (q *ListQuery) Ascending() bool {
	return q.Order == "asc"
}
