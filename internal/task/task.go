package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Task 定义了所有任务必须实现的接口
type Task interface {
	// Name 返回任务名称，用于标识和日志记录
	Name() string

	// Schedule 返回 cron 表达式：秒 分 时 日 月 周
	// 为空表示只能手动触发（RunNow）
	Schedule() string

	Run(ctx context.Context) error

	// Timeout 返回 0 时使用调度器默认超时
	Timeout() time.Duration

	Enabled() bool
}

// TaskResult 任务执行结果
type TaskResult struct {
	TaskName  string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Success   bool
	Error     error
}

// TaskRegistry 任务注册表，可并发访问
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewTaskRegistry 创建新的任务注册表
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]Task),
	}
}

// Register 注册任务
func (r *TaskRegistry) Register(task Task) error {
	name := task.Name()
	if name == "" {
		return ErrEmptyTaskName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tasks[name]; exists {
		return fmt.Errorf("%w: %s", ErrTaskAlreadyRegistered, name)
	}
	r.tasks[name] = task
	return nil
}

// Get 按名称获取任务
func (r *TaskRegistry) Get(name string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return t, nil
}

// Names 返回排序后的任务名称
func (r *TaskRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAllTasks 获取所有任务
func (r *TaskRegistry) GetAllTasks() map[string]Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Task, len(r.tasks))
	for k, v := range r.tasks {
		result[k] = v
	}
	return result
}

// GetEnabledTasks 获取所有启用且有调度表达式的任务
func (r *TaskRegistry) GetEnabledTasks() map[string]Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Task)
	for name, t := range r.tasks {
		if t.Enabled() && t.Schedule() != "" {
			result[name] = t
		}
	}
	return result
}
