package handlers

import (
	"demotools/internal/resources"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TypeDiffRequest 新旧类型定义
type TypeDiffRequest struct {
	Old resources.Type `json:"old"`
	New resources.Type `json:"new"`
}

// TypeDiffResponse 更新动作和不支持的变更提示
type TypeDiffResponse struct {
	Actions  []resources.UpdateAction `json:"actions"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// TypesHandler 类型定义比较
type TypesHandler struct {
	responder
}

func NewTypesHandler(logger *zap.Logger) *TypesHandler {
	return &TypesHandler{responder: newResponder(logger)}
}

// Diff 只计算动作，不调用平台
func (h *TypesHandler) Diff(c *gin.Context) {
	var req TypeDiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.JSONBadRequest(c, "invalid request body", err)
		return
	}
	actions, warnings := resources.Diff(req.Old, req.New)
	if actions == nil {
		actions = []resources.UpdateAction{}
	}
	h.JSONSuccess(c, TypeDiffResponse{Actions: actions, Warnings: warnings})
}
