package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"demotools/internal/cache"
	"demotools/internal/config"
	"demotools/internal/database"
	"demotools/internal/files"
	"demotools/internal/function"
	"demotools/internal/importapi"
	"demotools/internal/logger"
	"demotools/internal/metrics"
	"demotools/internal/pagination"
	"demotools/internal/platform"
	"demotools/internal/scheduler"
	"demotools/internal/sink"
	"demotools/internal/task"
	"demotools/internal/tasks"

	"go.uber.org/zap"
)

const jobsFile = "configs/jobs.yaml"

func main() {
	// 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := logger.NewLogger(logger.FromConfig(cfg.Logger))
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	zapLogger.Info("application starting",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	envFile, err := cfg.Platform.LoadEnv(zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to load env file", zap.Error(err))
	}
	if envFile != "" {
		zapLogger.Info("env file loaded", zap.String("path", envFile))
	}

	ctx := context.Background()

	dbs, err := database.New(ctx, database.ConfigFromAppConfig(cfg, zapLogger))
	if err != nil {
		zapLogger.Fatal("failed to initialize databases", zap.Error(err))
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	store, err := cache.New(cache.Config{Backend: cfg.Cache.Backend, Dir: cfg.Cache.Dir}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open cache", zap.Error(err))
	}

	deps := tasks.Deps{
		Paginator: pagination.New(pagination.Options{Logger: zapLogger, Metrics: reg, Cache: store}),
		Inspector: files.Inspector{Enabled: cfg.Inspect.Enabled, Dir: cfg.Inspect.Dir, Logger: zapLogger},
		Metrics:   reg,
		Logger:    zapLogger,
	}

	// 凭证不全时不创建平台客户端，依赖平台的任务注册会失败
	if err := cfg.Platform.Validate(); err != nil {
		zapLogger.Warn("platform credentials incomplete, platform jobs unavailable", zap.Error(err))
	} else {
		client, err := newPlatformClient(&cfg.Platform, zapLogger, reg)
		if err != nil {
			zapLogger.Fatal("failed to create platform client", zap.Error(err))
		}
		deps.Endpoints = client.Endpoint
		deps.Importer = importapi.NewContainers(
			client.WithAPIURL(cfg.Platform.ImportURL(), cfg.Platform.ProjectKey),
			importapi.Options{Logger: zapLogger},
		)
	}

	sinks, err := sink.Build(ctx, sink.ConfigFromAppConfig(cfg.Sinks), dbs, zapLogger, reg)
	if err != nil {
		zapLogger.Fatal("failed to build sinks", zap.Error(err))
	}
	deps.Sink = sinks

	jobs, err := config.LoadJobsConfig(jobsFile, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to load jobs config", zap.Error(err))
	}

	registry := task.NewTaskRegistry()
	if err := tasks.Register(registry, jobs, deps); err != nil {
		zapLogger.Fatal("failed to register tasks", zap.Error(err))
	}

	location, err := cfg.GetLocation()
	if err != nil {
		zapLogger.Warn("failed to load location, using UTC", zap.Error(err))
		location = time.UTC
	}

	defaultTimeout, err := cfg.GetDefaultTimeout()
	if err != nil {
		zapLogger.Warn("failed to parse default timeout, using 30m", zap.Error(err))
		defaultTimeout = 30 * time.Minute
	}

	sched := scheduler.NewScheduler(scheduler.Config{
		Logger:         zapLogger,
		Registry:       registry,
		Metrics:        reg,
		DefaultTimeout: defaultTimeout,
		Location:       location,
	})
	if err := sched.Start(); err != nil {
		zapLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	zapLogger.Info("scheduler started successfully",
		zap.Int("task_count", sched.GetTaskCount()),
	)

	var server *function.Server
	if cfg.Server.Enabled {
		server = function.NewServer(&cfg.Server, &function.Dependencies{
			Config:   cfg,
			Registry: registry,
			Runner:   sched,
			Pinger:   dbs,
			Metrics:  reg,
			Logger:   zapLogger,
		})
		if err := server.Start(); err != nil {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("received signal, shutting down...",
		zap.String("signal", sig.String()),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Stop(shutdownCtx); err != nil {
			zapLogger.Error("error stopping server", zap.Error(err))
		}
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		zapLogger.Error("error stopping scheduler", zap.Error(err))
	}
	if err := sinks.Close(); err != nil {
		zapLogger.Error("error closing sinks", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		zapLogger.Error("error closing cache", zap.Error(err))
	}
	if err := dbs.Close(); err != nil {
		zapLogger.Error("error closing databases", zap.Error(err))
	}

	zapLogger.Info("application stopped")
}

// newPlatformClient 根据配置创建平台 API 客户端
func newPlatformClient(p *config.PlatformConfig, log *zap.Logger, reg *metrics.Registry) (*platform.Client, error) {
	return platform.NewClient(platform.Config{
		ProjectKey:   p.ProjectKey,
		APIURL:       p.APIURL,
		AuthURL:      p.AuthURL,
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Scopes:       p.Scopes,
		Timeout:      p.Timeout,
		RateLimit:    p.RateLimit,
		Burst:        p.Burst,
		LogAPICalls:  p.LogAPICalls,
		Retry: platform.RetryConfig{
			MaxRetries:     p.Retry.MaxRetries,
			InitialBackoff: p.Retry.InitialBackoff,
			MaxBackoff:     p.Retry.MaxBackoff,
			BackoffFactor:  p.Retry.BackoffFactor,
			Jitter:         p.Retry.Jitter,
		},
		Logger:  log,
		Metrics: reg,
	})
}
