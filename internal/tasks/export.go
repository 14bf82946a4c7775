package tasks

import (
	"context"
	"fmt"
	"time"

	"demotools/internal/cache"
	"demotools/internal/config"
	"demotools/internal/files"
	"demotools/internal/pagination"
	"demotools/internal/platform"
	"demotools/internal/sink"

	"go.uber.org/zap"
)

// ExportTask 分页读取平台资源写入 sink
//
// 默认逐页写入（回调模式）。配置了 cache_file 时改为累积模式：
// 结果经 LargeQuery 缓存，整体写入 sink 并可输出到 inspect 文件。
type ExportTask struct {
	jobBase
	job       config.ExportJobConfig
	endpoint  pagination.Endpoint
	paginator *pagination.Paginator
	sink      sink.Sink
	inspector files.Inspector
	logger    *zap.Logger
}

func NewExportTask(job config.ExportJobConfig, deps Deps) (*ExportTask, error) {
	base, err := newJobBase(job.Name, job.Schedule, job.Timeout, job.Enabled)
	if err != nil {
		return nil, err
	}
	if deps.Endpoints == nil {
		return nil, fmt.Errorf("export job %s: no platform client", job.Name)
	}
	if job.Collection == "" {
		job.Collection = job.Endpoint
	}
	return newExportTask(base, job, deps.Endpoints(job.Endpoint), deps), nil
}

func newExportTask(base jobBase, job config.ExportJobConfig, ep pagination.Endpoint, deps Deps) *ExportTask {
	p := deps.Paginator
	if p == nil {
		p = pagination.New(pagination.Options{Logger: deps.Logger, Metrics: deps.Metrics})
	}
	s := deps.Sink
	if s == nil {
		s = sink.NewMulti(deps.Logger, deps.Metrics)
	}
	return &ExportTask{
		jobBase:   base,
		job:       job,
		endpoint:  ep,
		paginator: p,
		sink:      s,
		inspector: deps.Inspector,
		logger:    deps.logger().With(zap.String("task", job.Name)),
	}
}

func (t *ExportTask) query() platform.Query {
	return platform.Query{
		Where:         t.job.Where,
		Expand:        t.job.Expand,
		PriceCurrency: t.job.PriceCurrency,
		PriceCountry:  t.job.PriceCountry,
	}
}

func (t *ExportTask) Run(ctx context.Context) error {
	start := time.Now()
	args := pagination.Args{
		Endpoint: t.endpoint,
		Query:    t.query(),
		Max:      t.job.Max,
	}

	if t.job.CacheFile != "" {
		return t.runAccumulated(ctx, args, start)
	}

	var pages, items int
	args.Callback = func(ctx context.Context, results []platform.Resource) error {
		pages++
		items += len(results)
		if err := t.sink.Write(ctx, t.job.Collection, results); err != nil {
			return fmt.Errorf("failed to write page %d: %w", pages, err)
		}
		return nil
	}
	if _, err := t.paginator.GetAll(ctx, args); err != nil {
		return fmt.Errorf("export %s failed: %w", t.job.Name, err)
	}

	t.logger.Info("export completed",
		zap.String("endpoint", t.job.Endpoint),
		zap.Int("pages", pages),
		zap.Int("items", items),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (t *ExportTask) runAccumulated(ctx context.Context, args pagination.Args, start time.Time) error {
	key := cache.Key{Dir: t.job.Name, Filename: t.job.CacheFile}
	results, err := t.paginator.LargeQuery(ctx, args, key)
	if err != nil {
		return fmt.Errorf("export %s failed: %w", t.job.Name, err)
	}

	if err := t.sink.Write(ctx, t.job.Collection, results); err != nil {
		return fmt.Errorf("failed to write export %s: %w", t.job.Name, err)
	}
	if t.job.InspectFile != "" {
		if err := t.inspector.Inspect(t.job.InspectFile, results); err != nil {
			t.logger.Warn("failed to inspect export", zap.Error(err))
		}
	}

	t.logger.Info("export completed",
		zap.String("endpoint", t.job.Endpoint),
		zap.String("cache_key", key.String()),
		zap.Int("items", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
