package platform

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// RetryConfig 重试策略
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64 // 0-1
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
	}
}

// shouldRetry 决定失败的请求能否重发
// 幂等方法：网络错误、429 和 5xx 可重试
// POST 可能已被服务端处理，只在 429 / 503（请求未被受理）时重试
func shouldRetry(method string, statusCode int, err error) bool {
	if method == http.MethodPost {
		return statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable
	}
	if err != nil && statusCode == 0 {
		return true
	}
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// backoff Retry-After 同样受 MaxBackoff 限制
func (rc RetryConfig) backoff(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if rc.MaxBackoff > 0 && retryAfter > rc.MaxBackoff {
			return rc.MaxBackoff
		}
		return retryAfter
	}
	factor := rc.BackoffFactor
	if factor <= 0 {
		factor = 2
	}
	d := float64(rc.InitialBackoff) * math.Pow(factor, float64(attempt))
	if rc.Jitter > 0 {
		d += d * rc.Jitter * (rand.Float64()*2 - 1)
	}
	if rc.MaxBackoff > 0 && d > float64(rc.MaxBackoff) {
		d = float64(rc.MaxBackoff)
	}
	return time.Duration(d)
}

// parseRetryAfter 支持秒数和 HTTP-date 两种格式
func parseRetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
