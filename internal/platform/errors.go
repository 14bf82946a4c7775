package platform

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorObject 平台返回的单条错误
type ErrorObject struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
	Errors     []ErrorObject
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error: status code %d: %s %s: %s", e.StatusCode, e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP error: status code %d: %s %s", e.StatusCode, e.Method, e.URL)
}

func newAPIError(method, url string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Method:     method,
		URL:        url,
		Body:       string(body),
	}
	var payload struct {
		Message string        `json:"message"`
		Errors  []ErrorObject `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.Errors = payload.Errors
	}
	return apiErr
}

// IsNotFound 判断错误链中是否有 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Allow404 把 404 转成零值且无错误
func Allow404[T any](v T, err error) (T, error) {
	if IsNotFound(err) {
		var zero T
		return zero, nil
	}
	return v, err
}
