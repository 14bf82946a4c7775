package files

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExcelInput 工作表读取参数
type ExcelInput struct {
	Filename string
	Sheet    string
	Max      int // 最多读取的数据行，<=0 不限
}

// ReadExcel 首行为表头（遇到空单元格截止），之后逐行读取直到空行或 Max
// 工作表不存在时返回空结果
func ReadExcel(in ExcelInput, logger *zap.Logger) ([]map[string]any, error) {
	logger = orNop(logger)

	f, err := excelize.OpenFile(in.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(in.Sheet); err != nil || idx < 0 {
		logger.Warn("worksheet not found", zap.String("file", in.Filename), zap.String("sheet", in.Sheet))
		return nil, nil
	}

	sheetRows, err := f.GetRows(in.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", in.Sheet, err)
	}
	if len(sheetRows) == 0 {
		return nil, nil
	}

	var headers []string
	for _, cell := range sheetRows[0] {
		if cell == "" {
			break
		}
		headers = append(headers, cell)
	}
	logger.Debug("excel headers", zap.Strings("headers", headers))

	var rows []map[string]any
	for _, cells := range sheetRows[1:] {
		if in.Max > 0 && len(rows) >= in.Max {
			break
		}
		row := make(map[string]any)
		for c, value := range cells {
			if c >= len(headers) || value == "" {
				continue
			}
			row[headers[c]] = value
		}
		if len(row) == 0 {
			break
		}
		rows = append(rows, row)
	}

	logger.Info("read excel", zap.String("file", in.Filename), zap.String("sheet", in.Sheet), zap.Int("rows", len(rows)))
	return rows, nil
}
