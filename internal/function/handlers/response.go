package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuccessResponse 成功响应
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// responder 各处理器共用的响应方法
type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger}
}

// JSONSuccess 返回成功响应
func (r responder) JSONSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// JSONError 返回指定状态码的错误响应，5xx 记为 Error，其余记为 Warn
func (r responder) JSONError(c *gin.Context, status int, message string, err error) {
	response := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
		if status >= http.StatusInternalServerError {
			r.logger.Error(message, zap.Error(err))
		} else {
			r.logger.Warn(message, zap.Error(err))
		}
	}
	c.JSON(status, response)
}

// JSONBadRequest 返回400错误
func (r responder) JSONBadRequest(c *gin.Context, message string, err error) {
	r.JSONError(c, http.StatusBadRequest, message, err)
}

// JSONInternalError 返回500错误
func (r responder) JSONInternalError(c *gin.Context, message string, err error) {
	r.JSONError(c, http.StatusInternalServerError, message, err)
}
