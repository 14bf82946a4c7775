package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可探活的依赖，例如数据库
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	responder
	version string
	pinger  Pinger
}

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Databases string `json:"databases"`
}

func NewHealthHandler(version string, pinger Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{responder: newResponder(logger), version: version, pinger: pinger}
}

// Health 数据库不可用时返回 503
func (h *HealthHandler) Health(c *gin.Context) {
	status := HealthStatus{Status: "ok", Version: h.version, Databases: "disabled"}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			status.Status = "degraded"
			status.Databases = err.Error()
			c.JSON(http.StatusServiceUnavailable, SuccessResponse{Code: http.StatusServiceUnavailable, Message: "degraded", Data: status})
			return
		}
		status.Databases = "ok"
	}
	h.JSONSuccess(c, status)
}
