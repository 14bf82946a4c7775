package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"demotools/internal/metrics"
	"demotools/internal/task"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)


// Scheduler 任务调度器
type Scheduler struct {
	cron           *cron.Cron
	registry       *task.TaskRegistry
	logger         *zap.Logger
	metrics        *metrics.Registry
	running        bool
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	jobEntries     map[string]cron.EntryID
	defaultTimeout time.Duration

	activeMu sync.Mutex
	active   map[string]bool
}

// Config 调度器配置
type Config struct {
	Logger         *zap.Logger
	Registry       *task.TaskRegistry
	Metrics        *metrics.Registry
	DefaultTimeout time.Duration
	Location       *time.Location
}

// NewScheduler 创建新的调度器
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = task.NewTaskRegistry()
	}
	if cfg.DefaultTimeout == 0 {
		cfg.DefaultTimeout = 30 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:           c,
		registry:       cfg.Registry,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		ctx:            ctx,
		cancel:         cancel,
		jobEntries:     make(map[string]cron.EntryID),
		defaultTimeout: cfg.DefaultTimeout,
		active:         make(map[string]bool),
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	tasks := s.registry.GetEnabledTasks()
	for name, t := range tasks {
		if err := s.addTask(name, t); err != nil {
			s.logger.Error("failed to add task",
				zap.String("task", name),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("task registered",
			zap.String("task", name),
			zap.String("schedule", t.Schedule()),
		)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		zap.Int("total_tasks", len(tasks)),
		zap.Int("scheduled", len(s.jobEntries)),
	)
	return nil
}

// Stop 停止调度器，等待执行中的 cron 任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Info("stopping scheduler")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("context cancelled while stopping scheduler")
		s.cancel()
		return ctx.Err()
	}

	s.cancel()
	s.running = false
	return nil
}

// RunNow 立即执行任务并等待结果，不受启用状态和调度表达式限制
func (s *Scheduler) RunNow(ctx context.Context, name string) (task.TaskResult, error) {
	t, err := s.registry.Get(name)
	if err != nil {
		return task.TaskResult{TaskName: name}, err
	}
	result := s.run(ctx, name, t)
	return result, result.Error
}

func (s *Scheduler) addTask(name string, t task.Task) error {
	schedule := t.Schedule()
	if schedule == "" {
		return fmt.Errorf("task schedule cannot be empty")
	}

	entryID, err := s.cron.AddFunc(schedule, func() { s.run(s.ctx, name, t) })
	if err != nil {
		return fmt.Errorf("failed to parse schedule: %w", err)
	}

	s.jobEntries[name] = entryID
	return nil
}

// run 执行一次任务，同名任务不会重叠执行
func (s *Scheduler) run(parent context.Context, name string, t task.Task) task.TaskResult {
	startTime := time.Now()
	result := task.TaskResult{TaskName: name, StartTime: startTime}

	if !s.acquire(name) {
		result.EndTime = time.Now()
		result.Error = fmt.Errorf("%w: %s", task.ErrTaskRunning, name)
		s.logger.Warn("task skipped, previous run still active", zap.String("task", name))
		return result
	}
	defer s.release(name)

	s.logger.Info("task started",
		zap.String("task", name),
		zap.Time("start_time", startTime),
	)

	timeout := t.Timeout()
	if timeout == 0 {
		timeout = s.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	err := t.Run(ctx)

	result.EndTime = time.Now()
	result.Duration = time.Since(startTime)
	result.Success = err == nil
	result.Error = err

	s.metrics.ObserveTask(name, result.Duration, err)
	s.logTaskResult(result)
	return result
}

func (s *Scheduler) acquire(name string) bool {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if s.active[name] {
		return false
	}
	s.active[name] = true
	return true
}

func (s *Scheduler) release(name string) {
	s.activeMu.Lock()
	delete(s.active, name)
	s.activeMu.Unlock()
}

// logTaskResult 记录任务执行结果
func (s *Scheduler) logTaskResult(result task.TaskResult) {
	fields := []zap.Field{
		zap.String("task", result.TaskName),
		zap.Time("start_time", result.StartTime),
		zap.Time("end_time", result.EndTime),
		zap.Duration("duration", result.Duration),
		zap.Bool("success", result.Success),
	}

	if result.Error != nil {
		fields = append(fields, zap.Error(result.Error))
		s.logger.Error("task completed with error", fields...)
	} else {
		s.logger.Info("task completed successfully", fields...)
	}
}

// IsRunning 检查调度器是否运行中
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetTaskCount 已加入 cron 的任务数量
func (s *Scheduler) GetTaskCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobEntries)
}

// RemoveTask 从 cron 中移除任务
func (s *Scheduler) RemoveTask(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.jobEntries[name]
	if !exists {
		return fmt.Errorf("%w: %s", task.ErrTaskNotFound, name)
	}

	s.cron.Remove(entryID)
	delete(s.jobEntries, name)

	s.logger.Info("task removed",
		zap.String("task", name),
	)
	return nil
}
