package tasks

import (
	"context"
	"fmt"
	"time"

	"demotools/internal/config"
	"demotools/internal/files"
	"demotools/internal/metrics"
	"demotools/internal/pagination"
	"demotools/internal/platform"
	"demotools/internal/sink"
	"demotools/internal/task"

	"go.uber.org/zap"
)

// Creator 逐条创建资源的 endpoint
type Creator interface {
	Create(ctx context.Context, draft any) (platform.Resource, error)
}

// Importer Import API 容器操作
type Importer interface {
	Ensure(ctx context.Context, key, resourceType string) error
	ImportProductDrafts(ctx context.Context, key string, drafts []any) ([]platform.Resource, error)
}

// Deps 任务共享的依赖
type Deps struct {
	// Endpoints 按路径返回平台 endpoint，通常为 client.Endpoint
	Endpoints func(path string) *platform.Endpoint
	Paginator *pagination.Paginator
	Sink      sink.Sink
	Importer  Importer
	Inspector files.Inspector
	Metrics   *metrics.Registry
	Logger    *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// jobBase 实现 task.Task 中与配置相关的部分
type jobBase struct {
	name     string
	schedule string
	enabled  bool
	timeout  time.Duration
}

func newJobBase(name, schedule, timeout string, enabled bool) (jobBase, error) {
	b := jobBase{name: name, schedule: schedule, enabled: enabled}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return b, fmt.Errorf("job %s: %w: %v", name, task.ErrInvalidTimeout, err)
		}
		if d <= 0 {
			return b, fmt.Errorf("job %s: %w: %s", name, task.ErrInvalidTimeout, timeout)
		}
		b.timeout = d
	}
	return b, nil
}

func (b jobBase) Name() string           { return b.name }
func (b jobBase) Schedule() string       { return b.schedule }
func (b jobBase) Timeout() time.Duration { return b.timeout }
func (b jobBase) Enabled() bool          { return b.enabled }

// Register 根据 jobs.yaml 创建并注册所有任务
func Register(registry *task.TaskRegistry, jobs *config.JobsConfig, deps Deps) error {
	if jobs == nil {
		return nil
	}
	for _, job := range jobs.Exports {
		t, err := NewExportTask(job, deps)
		if err != nil {
			return err
		}
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("failed to register export job %s: %w", job.Name, err)
		}
	}
	for _, job := range jobs.Imports {
		t, err := NewImportTask(job, deps)
		if err != nil {
			return err
		}
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("failed to register import job %s: %w", job.Name, err)
		}
	}
	deps.logger().Info("jobs registered",
		zap.Int("exports", len(jobs.Exports)),
		zap.Int("imports", len(jobs.Imports)),
	)
	return nil
}
