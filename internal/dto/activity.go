package dto

// ActivityListRequest 活动日志查询参数
type ActivityListRequest struct {
	Limit  int `form:"limit"  binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// GetLimit 默认 20 条
func (r *ActivityListRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}

// EntityActivityRequest 单个实体的活动日志查询参数
type EntityActivityRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// GetLimit 默认 10 条
func (r *EntityActivityRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 10
	}
	return r.Limit
}
