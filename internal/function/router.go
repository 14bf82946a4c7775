package function

import (
	"demotools/internal/function/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router 路由管理器
type Router struct {
	router       *gin.Engine
	logger       *zap.Logger
	dependencies *Dependencies
}

// NewRouter 创建路由管理器
func NewRouter(router *gin.Engine, logger *zap.Logger, deps *Dependencies) *Router {
	return &Router{
		router:       router,
		logger:       logger,
		dependencies: deps,
	}
}

// SetupRoutes 设置所有路由
func (r *Router) SetupRoutes() {
	deps := r.dependencies

	version := ""
	if deps.Config != nil {
		version = deps.Config.App.Version
	}
	r.router.GET("/health", handlers.NewHealthHandler(version, deps.Pinger, r.logger).Health)

	if deps.Metrics != nil {
		path := "/metrics"
		if deps.Config != nil && deps.Config.Metrics.Path != "" {
			path = deps.Config.Metrics.Path
		}
		if deps.Config == nil || deps.Config.Metrics.Enabled {
			r.router.GET(path, gin.WrapH(deps.Metrics.Handler()))
		}
	}

	api := r.router.Group("/api/v1")
	{
		functions := api.Group("/functions")
		{
			mappingHandler := handlers.NewMappingHandler(deps.Metrics, r.logger)
			functions.POST("/map", mappingHandler.Map)

			typesHandler := handlers.NewTypesHandler(r.logger)
			functions.POST("/types/diff", typesHandler.Diff)

			jobsHandler := handlers.NewJobsHandler(deps.Runner, deps.Registry, r.logger)
			functions.GET("/jobs", jobsHandler.List)
			functions.POST("/jobs/:name/run", jobsHandler.Run)
		}
	}
}

// RegisterCustomRoutes 注册自定义路由
func (r *Router) RegisterCustomRoutes(registerFunc func(*gin.RouterGroup)) {
	api := r.router.Group("/api/v1")
	registerFunc(api)
}
