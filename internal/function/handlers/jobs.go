package handlers

import (
	"context"
	"errors"
	"net/http"

	"demotools/internal/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobRunner 立即执行任务，通常为 *scheduler.Scheduler
type JobRunner interface {
	RunNow(ctx context.Context, name string) (task.TaskResult, error)
}

// JobResult 任务执行结果
type JobResult struct {
	Task       string `json:"task"`
	Success    bool   `json:"success"`
	DurationMS int64  `json:"duration_ms"`
}

// JobsHandler 任务触发与查询
type JobsHandler struct {
	responder
	runner   JobRunner
	registry *task.TaskRegistry
}

func NewJobsHandler(runner JobRunner, registry *task.TaskRegistry, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{responder: newResponder(logger), runner: runner, registry: registry}
}

// List 列出已注册任务
func (h *JobsHandler) List(c *gin.Context) {
	var names []string
	if h.registry != nil {
		names = h.registry.Names()
	}
	h.JSONSuccess(c, gin.H{"jobs": names})
}

// Run 同步执行任务，请求被取消时任务随之取消
func (h *JobsHandler) Run(c *gin.Context) {
	name := c.Param("name")
	if h.runner == nil {
		h.JSONError(c, http.StatusServiceUnavailable, "scheduler not available", nil)
		return
	}

	h.logger.Info("running job on demand", zap.String("task", name))
	result, err := h.runner.RunNow(c.Request.Context(), name)
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		h.JSONError(c, http.StatusNotFound, "job not found", err)
		return
	case errors.Is(err, task.ErrTaskRunning):
		h.JSONError(c, http.StatusConflict, "job is already running", err)
		return
	case err != nil:
		h.JSONInternalError(c, "job failed", err)
		return
	}

	h.JSONSuccess(c, JobResult{
		Task:       name,
		Success:    result.Success,
		DurationMS: result.Duration.Milliseconds(),
	})
}
