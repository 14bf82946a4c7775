package handlers

import (
	"errors"
	"fmt"

	"demotools/internal/mapping"
	"demotools/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxMapRecords 单次请求允许的记录数
const MaxMapRecords = 10000

// MapRequest 规则与待映射的记录
type MapRequest struct {
	Rules   []mapping.Rule      `json:"rules"`
	Records []*mapping.Document `json:"records"`
	Debug   bool                `json:"debug"`
}

// MapResponse 映射结果，与 records 一一对应
type MapResponse struct {
	Documents []*mapping.Document `json:"documents"`
}

// MappingHandler 字段映射
type MappingHandler struct {
	responder
	metrics *metrics.Registry
}

func NewMappingHandler(m *metrics.Registry, logger *zap.Logger) *MappingHandler {
	return &MappingHandler{responder: newResponder(logger), metrics: m}
}

// Map 先校验规则，校验失败返回 400
func (h *MappingHandler) Map(c *gin.Context) {
	var req MapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.JSONBadRequest(c, "invalid request body", err)
		return
	}
	if len(req.Rules) == 0 {
		h.JSONBadRequest(c, "invalid rules", errors.New("no rules given"))
		return
	}
	if len(req.Records) > MaxMapRecords {
		h.JSONBadRequest(c, "too many records", fmt.Errorf("%d records, at most %d allowed", len(req.Records), MaxMapRecords))
		return
	}
	if err := mapping.Validate(req.Rules); err != nil {
		h.JSONBadRequest(c, "invalid rules", err)
		return
	}

	mapper := mapping.NewMapper(req.Rules, mapping.Options{Debug: req.Debug, Logger: h.logger})
	docs := make([]*mapping.Document, 0, len(req.Records))
	for _, rec := range req.Records {
		if rec == nil {
			rec = mapping.NewDocument()
		}
		docs = append(docs, mapper.Map(rec))
	}
	h.metrics.ObserveMapped(len(docs))

	h.JSONSuccess(c, MapResponse{Documents: docs})
}
