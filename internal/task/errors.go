package task

import "errors"

var (
	ErrEmptyTaskName = errors.New("task name cannot be empty")

	ErrTaskAlreadyRegistered = errors.New("task already registered")

	// ErrTaskNotFound 注册表中没有该名称
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskRunning 同名任务上一次执行尚未结束
	ErrTaskRunning = errors.New("task is already running")

	// ErrInvalidTimeout 任务配置的超时无法解析或不为正
	ErrInvalidTimeout = errors.New("invalid task timeout")
)
