package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/neda420/Website-for-student-management-by-supervisor/internal/dto"
	"github.com/neda420/Website-for-student-management-by-supervisor/internal/repository"
	apperrors "github.com/neda420/Website-for-student-management-by-supervisor/pkg/errors"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportStudents 按列表的搜索与排序条件导出全部学生（不分页）
	ExportStudents(ctx context.Context, req *dto.StudentListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var studentSheetHeaders = []string{"ID", "Name", "Email", "Department", "Status", "GPA", "Assigned Tasks", "Created At"}

func (s *exportService) ExportStudents(ctx context.Context, req *dto.StudentListRequest) (*bytes.Buffer, string, error) {
	// 1. 查询学生（Limit=0 不分页）
	students, _, err := s.repo.Student.List(ctx, toListParams(req.Search, req.SortBy, req.Ascending(), 0, 0))
	if err != nil {
		s.logger.Error("查询导出学生失败", zap.Error(err))
		return nil, "", apperrors.Internal(err)
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Students"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", apperrors.Internal(err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 28)
	f.SetColWidth(sheet, "D", "D", 20)
	f.SetColWidth(sheet, "E", "F", 12)
	f.SetColWidth(sheet, "G", "G", 40)
	f.SetColWidth(sheet, "H", "H", 20)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 表头
	for i, h := range studentSheetHeaders {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(studentSheetHeaders)-1), 1), headerStyle)

	// 数据行
	for i, st := range students {
		row := i + 2
		f.SetCellValue(sheet, cell("A", row), st.ID)
		f.SetCellValue(sheet, cell("B", row), st.Name)
		f.SetCellValue(sheet, cell("C", row), st.Email)
		f.SetCellValue(sheet, cell("D", row), deref(st.Department))
		f.SetCellValue(sheet, cell("E", row), st.Status)
		if st.GPA != nil {
			f.SetCellValue(sheet, cell("F", row), *st.GPA)
		}
		f.SetCellValue(sheet, cell("G", row), deref(st.AssignedTasks))
		f.SetCellValue(sheet, cell("H", row), st.CreatedAt.Format("2006-01-02 15:04"))
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", apperrors.Internal(err)
	}

	filename := fmt.Sprintf("students_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
