package function

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"demotools/internal/config"
	"demotools/internal/function/handlers"
	"demotools/internal/metrics"
	"demotools/internal/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 服务器依赖，未提供的依赖对应的路由不注册
type Dependencies struct {
	Config   *config.Config
	Registry *task.TaskRegistry
	Runner   handlers.JobRunner
	Pinger   handlers.Pinger
	Metrics  *metrics.Registry
	Logger   *zap.Logger
}

// Server HTTP 服务器
type Server struct {
	config       *config.ServerConfig
	router       *gin.Engine
	logger       *zap.Logger
	httpServer   *http.Server
	dependencies *Dependencies
}

// NewServer 创建新的 HTTP 服务器
func NewServer(cfg *config.ServerConfig, deps *Dependencies) *Server {
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger

	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	router := gin.New()
	router.Use(ginLogger(logger))
	router.Use(gin.Recovery())

	server := &Server{
		config:       cfg,
		router:       router,
		logger:       logger,
		dependencies: deps,
	}

	NewRouter(router, logger, deps).SetupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // 任务同步执行，写超时由任务自身的超时控制
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// Handler 供测试直接使用
func (s *Server) Handler() http.Handler { return s.router }

// Start 在后台启动服务器，监听失败时立即返回错误
func (s *Server) Start() error {
	if !s.config.Enabled {
		s.logger.Info("http server is disabled, skipping startup")
		return nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.logger.Info("starting http server",
		zap.String("addr", ln.Addr().String()),
		zap.String("mode", gin.Mode()),
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped unexpectedly", zap.Error(err))
		}
	}()
	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error shutting down http server", zap.Error(err))
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}

// RegisterCustomRoutes 在 /api/v1 下注册额外路由
func (s *Server) RegisterCustomRoutes(registerFunc func(*gin.RouterGroup)) {
	NewRouter(s.router, s.logger, s.dependencies).RegisterCustomRoutes(registerFunc)
}

// ginLogger 请求日志中间件
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("error", errs))
		}
		logger.Info("http request", fields...)
	}
}
