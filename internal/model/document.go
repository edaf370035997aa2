package model

import "time"

// Document 学生文档元数据，文件内容由存储层保存
type Document struct {
	ID               int64     `gorm:"primaryKey"          json:"id"`
	StudentID        int64     `gorm:"not null;index"      json:"student_id"`
	UploadedBy       *int64    `                           json:"uploaded_by"`
	OriginalFilename string    `gorm:"size:255;not null"   json:"original_filename"`
	StoredFilename   string    `gorm:"size:255;not null"   json:"stored_filename"`
	FilePath         string    `gorm:"size:500;not null"   json:"file_path"`
	FileSize         int64     `gorm:"not null"            json:"file_size"`
	UploadDate       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"upload_date"`
}

func (Document) TableName() string { return "documents" }

// DocumentDetail 附带学生姓名与上传者用户名
type DocumentDetail struct {
	Document
	StudentName    string  `json:"student_name"`
	UploadedByName *string `json:"uploaded_by_name"`
}

// RecentUpload 仪表盘最近上传条目
type RecentUpload struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	UploadDate       time.Time `json:"upload_date"`
	StudentName      *string   `json:"student_name"`
	UploadedByName   *string   `json:"uploaded_by_name"`
}
