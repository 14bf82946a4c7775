package files

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions 读取 CSV 的选项
type CSVOptions struct {
	Delimiter rune // 默认 ','
	Verbose   bool
	Logger    *zap.Logger
}

// Column 输出 CSV 的列，ID 为行的键，Title 为表头
type Column struct {
	ID    string
	Title string
}

// ReadCSV 读取 CSV，首行为表头，每行转成以表头为键的 map
func ReadCSV(filename string, opts CSVOptions) ([]map[string]any, error) {
	logger := orNop(opts.Logger)
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	logger.Info("reading csv", zap.String("file", filename), zap.String("delimiter", string(opts.Delimiter)))

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = opts.Delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		logger.Info("read csv", zap.String("file", filename), zap.Int("rows", 0))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var rows []map[string]any
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		row := make(map[string]any, len(header))
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = value
			}
		}
		rows = append(rows, row)
	}

	if opts.Verbose {
		logger.Info("csv rows", zap.Any("rows", rows))
	}
	logger.Info("read csv", zap.String("file", filename), zap.Int("rows", len(rows)))
	return rows, nil
}

// WriteCSV 按列写出所有行
func WriteCSV(filename string, header []Column, rows []map[string]any, logger *zap.Logger) error {
	return WriteCSVMax(filename, header, rows, 0, logger)
}

// WriteCSVMax 最多写出 max 行，max<=0 不限
func WriteCSVMax(filename string, header []Column, rows []map[string]any, max int, logger *zap.Logger) error {
	logger = orNop(logger)
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	if err := ensureDir(filename); err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	titles := make([]string, len(header))
	for i, col := range header {
		titles[i] = col.Title
		if titles[i] == "" {
			titles[i] = col.ID
		}
	}
	if err := w.Write(titles); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range rows {
		for i, col := range header {
			record[i] = cellText(row[col.ID])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	logger.Info("wrote csv", zap.String("file", filename), zap.Int("rows", len(rows)))
	return nil
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int64, int32:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
