package dto

import "github.com/neda420/Website-for-student-management-by-supervisor/internal/model"

// DashboardStats 仪表盘统计
type DashboardStats struct {
	TotalStudents     int64                `json:"totalStudents"`
	TotalAssistants   int64                `json:"totalAssistants"`
	TotalDocuments    int64                `json:"totalDocuments"`
	RecentUploads     int64                `json:"recentUploads"`
	RecentUploadsList []model.RecentUpload `json:"recentUploadsList"`
	StudentsByStatus  []model.StatusCount  `json:"studentsByStatus"`
	Assignments       model.TaskStats      `json:"assignments"`
}
