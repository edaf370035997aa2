package dto

// DocumentListRequest 文档列表查询参数
type DocumentListRequest struct {
	ListQuery
}
