package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"demotools/internal/config"
	"demotools/internal/files"
	"demotools/internal/mapping"
	"demotools/internal/metrics"

	"go.uber.org/zap"
)

// ImportTask 读取 CSV / Excel / JSON，按规则映射后输出
type ImportTask struct {
	jobBase
	job      config.ImportJobConfig
	creator  Creator
	importer Importer
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// ImportResult 一次导入的统计
type ImportResult struct {
	Records  int
	Created  int
	Imported int
	Failed   int
}

func NewImportTask(job config.ImportJobConfig, deps Deps) (*ImportTask, error) {
	base, err := newJobBase(job.Name, job.Schedule, job.Timeout, job.Enabled)
	if err != nil {
		return nil, err
	}
	t := &ImportTask{
		jobBase:  base,
		job:      job,
		metrics:  deps.Metrics,
		logger:   deps.logger().With(zap.String("task", job.Name)),
		importer: deps.Importer,
	}
	if job.Endpoint != "" {
		if deps.Endpoints == nil {
			return nil, fmt.Errorf("import job %s: no platform client for endpoint %s", job.Name, job.Endpoint)
		}
		t.creator = deps.Endpoints(job.Endpoint)
	}
	if job.Container != "" && deps.Importer == nil {
		return nil, fmt.Errorf("import job %s: no import api client for container %s", job.Name, job.Container)
	}
	return t, nil
}

func (t *ImportTask) Run(ctx context.Context) error {
	_, err := t.Execute(ctx)
	return err
}

// Execute 执行导入并返回统计
func (t *ImportTask) Execute(ctx context.Context) (ImportResult, error) {
	var result ImportResult
	start := time.Now()

	rules, err := mapping.LoadRules(t.job.Rules)
	if err != nil {
		return result, err
	}
	if err := mapping.Validate(rules); err != nil {
		return result, fmt.Errorf("invalid rules in %s: %w", t.job.Rules, err)
	}

	records, err := ReadRecords(t.job.Input, t.job.Sheet, t.job.Delimiter, t.job.Max, t.logger)
	if err != nil {
		return result, err
	}
	result.Records = len(records)

	docs := MapRecords(rules, records, mapping.Options{Debug: t.job.Debug, Logger: t.logger})
	t.metrics.ObserveMapped(len(docs))
	t.logger.Info("records mapped", zap.Int("records", len(records)), zap.Int("rules", len(rules)))

	if t.job.Output != "" {
		if err := files.WriteJSON(t.job.Output, docs, 2, t.logger); err != nil {
			return result, err
		}
	}

	var errs []error
	if t.creator != nil {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if _, err := t.creator.Create(ctx, doc); err != nil {
				result.Failed++
				t.logger.Error("failed to create resource",
					zap.String("endpoint", t.job.Endpoint),
					zap.Int("record", i),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("record %d: %w", i, err))
				continue
			}
			result.Created++
		}
	}

	if t.job.Container != "" {
		if err := t.importer.Ensure(ctx, t.job.Container, "product-draft"); err != nil {
			return result, err
		}
		drafts := make([]any, len(docs))
		for i, d := range docs {
			drafts[i] = d
		}
		if _, err := t.importer.ImportProductDrafts(ctx, t.job.Container, drafts); err != nil {
			return result, err
		}
		result.Imported = len(drafts)
	}

	t.logger.Info("import completed",
		zap.Int("records", result.Records),
		zap.Int("created", result.Created),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)),
	)
	if len(errs) > 0 {
		return result, fmt.Errorf("%d of %d records failed: %w", result.Failed, len(docs), errors.Join(errs...))
	}
	return result, nil
}

// MapRecords 对每条记录应用规则
func MapRecords(rules []mapping.Rule, records []any, opts mapping.Options) []*mapping.Document {
	mapper := mapping.NewMapper(rules, opts)
	docs := make([]*mapping.Document, 0, len(records))
	for _, rec := range records {
		docs = append(docs, mapper.Map(rec))
	}
	return docs
}

// ReadRecords 按扩展名读取输入文件，max<=0 表示不限
// JSON 输入须为对象数组，保留字段顺序
func ReadRecords(filename, sheet, delimiter string, max int, logger *zap.Logger) ([]any, error) {
	var records []any
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		opts := files.CSVOptions{Logger: logger}
		if delimiter != "" {
			r, _ := utf8.DecodeRuneInString(delimiter)
			opts.Delimiter = r
		}
		rows, err := files.ReadCSV(filename, opts)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			records = append(records, row)
		}
	case ".xlsx", ".xlsm":
		if sheet == "" {
			sheet = "Sheet1"
		}
		rows, err := files.ReadExcel(files.ExcelInput{Filename: filename, Sheet: sheet, Max: max}, logger)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			records = append(records, row)
		}
	case ".json":
		var raw json.RawMessage
		if err := files.ReadJSON(filename, &raw, logger); err != nil {
			return nil, err
		}
		docs, err := mapping.DecodeDocuments(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		for _, d := range docs {
			records = append(records, d)
		}
	default:
		return nil, fmt.Errorf("unsupported input file %s", filename)
	}

	if max > 0 && len(records) > max {
		records = records[:max]
	}
	return records, nil
}
