package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService 导出：directory CSV + matrix Excel
type ExportService struct {
	directory *DirectoryService
	matrix    *MatrixService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(directory *DirectoryService, matrix *MatrixService, logger *zap.Logger) *ExportService {
	return &ExportService{directory: directory, matrix: matrix, logger: logger}
}

// DirectoryExportHeader directory CSV 表头
var DirectoryExportHeader = []string{
	"Username",
	"Email",
	"Organization",
	"Role",
	"Total",
	"Active",
	"Expiring",
	"Expired",
}

// ExportDirectoryCSV 导出过滤/排序后的 directory（不分页，全量）
func (s *ExportService) ExportDirectoryCSV(ctx context.Context, req ListDirectoryRequest) ([]byte, error) {
	req.Page = 1
	req.PageSize = 1 << 30 // 导出不分页
	resp, err := s.directory.ListDirectory(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(DirectoryExportHeader); err != nil {
		return nil, err
	}
	for _, item := range resp.Items {
		row := []string{
			item.Username,
			item.Email,
			item.OrganizationName,
			item.Role,
			strconv.Itoa(item.Stats.Total),
			strconv.Itoa(item.Stats.Active),
			strconv.Itoa(item.Stats.Expiring),
			strconv.Itoa(item.Stats.Expired),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportMatrixXLSX 导出状态过滤后的矩阵 Excel
// 第一列 Category，第二列 Competency，其后每人一列
func (s *ExportService) ExportMatrixXLSX(ctx context.Context, req BuildMatrixRequest) ([]byte, error) {
	matrix, err := s.matrix.BuildMatrix(ctx, req)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Competency Matrix"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close() // Close on error
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Category", "Competency"}
	for _, col := range matrix.Columns {
		headers = append(headers, col.Username)
	}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 前两列宽一点，人员列统一宽度
	_ = f.SetColWidth(sheetName, "A", "A", 18)
	_ = f.SetColWidth(sheetName, "B", "B", 30)
	if len(matrix.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(2 + len(matrix.Columns))
		_ = f.SetColWidth(sheetName, "C", last, 14)
	}

	rowIdx := 2
	for _, group := range matrix.Groups {
		for _, row := range group.Rows {
			values := []any{group.Category, row.Name}
			for _, cell := range row.Cells {
				values = append(values, matrixCellText(cell))
			}
			for col, v := range values {
				cellName, err := excelize.CoordinatesToCellName(col+1, rowIdx)
				if err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to convert coordinates: %w", err)
				}
				if err := f.SetCellValue(sheetName, cellName, v); err != nil {
					f.Close()
					return nil, fmt.Errorf("failed to set cell %s: %w", cellName, err)
				}
			}
			rowIdx++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func matrixCellText(cell *MatrixCellDTO) string {
	text := cell.Status
	if cell.PendingApproval {
		text += " (pending)"
	}
	if cell.ExpiryDate != "" {
		text += " " + cell.ExpiryDate
	}
	return text
}
