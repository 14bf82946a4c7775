package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"demotools/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const userAgent = "demotools/1.0"

// Client 平台 HTTP API 客户端
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       RetryConfig
	logAPICalls bool
	logger      *zap.Logger
	metrics     *metrics.Registry
}

// Config API 客户端配置
type Config struct {
	ProjectKey   string
	APIURL       string
	AuthURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
	RateLimit    float64 // 每秒请求数，0 表示不限
	Burst        int
	Retry        RetryConfig
	LogAPICalls  bool
	Logger       *zap.Logger
	Metrics      *metrics.Registry

	// HTTPClient 非空时直接使用，不走 OAuth2（测试用）
	HTTPClient *http.Client
}

// NewClient 创建新的 API 客户端
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api url is required")
	}
	if cfg.ProjectKey == "" {
		return nil, fmt.Errorf("project key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
		if cfg.ClientID != "" {
			if cfg.AuthURL == "" {
				return nil, fmt.Errorf("auth url is required for client credentials")
			}
			cc := clientcredentials.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				TokenURL:     strings.TrimRight(cfg.AuthURL, "/") + "/oauth/token",
				Scopes:       cfg.Scopes,
				AuthStyle:    oauth2.AuthStyleInHeader,
			}
			ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
			httpClient = cc.Client(ctx)
			httpClient.Timeout = cfg.Timeout
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.APIURL, "/") + "/" + cfg.ProjectKey,
		httpClient:  httpClient,
		limiter:     limiter,
		retry:       cfg.Retry,
		logAPICalls: cfg.LogAPICalls,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}, nil
}

// WithAPIURL 共享认证与限流，换一个 API 主机（例如 import API）
func (c *Client) WithAPIURL(apiURL, projectKey string) *Client {
	clone := *c
	clone.baseURL = strings.TrimRight(apiURL, "/") + "/" + projectKey
	return &clone
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do 执行请求并返回响应体，可重试的失败按退避策略重发（见 shouldRetry）
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.logger.Error("failed to marshal JSON body", zap.Error(err))
			return nil, fmt.Errorf("failed to marshal JSON body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
		}

		data, status, header, err := c.send(ctx, method, fullURL, payload)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil || !shouldRetry(method, status, err) || attempt >= c.retry.MaxRetries {
			return nil, err
		}

		wait := c.retry.backoff(attempt, parseRetryAfter(header))
		c.logger.Warn("retrying API request",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.Int("status_code", status),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
		)
		c.metrics.ObserveRetry()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *Client) send(ctx context.Context, method, fullURL string, payload []byte) ([]byte, int, http.Header, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		c.logger.Error("failed to create request", zap.String("url", fullURL), zap.Error(err))
		return nil, 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	correlationID := uuid.NewString()
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
		return nil, 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, resp.StatusCode, elapsed)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.String("correlation_id", correlationID),
	}
	if c.logAPICalls {
		c.logger.Info("api call", fields...)
	} else {
		c.logger.Debug("api call", fields...)
	}

	if err != nil {
		c.logger.Error("failed to read response body", zap.String("url", fullURL), zap.Error(err))
		return nil, resp.StatusCode, resp.Header, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(method, fullURL, resp.StatusCode, data)
		if resp.StatusCode == http.StatusNotFound {
			c.logger.Debug("resource not found", fields...)
		} else {
			c.logger.Error("HTTP response error", append(fields, zap.String("message", apiErr.Message))...)
		}
		return nil, resp.StatusCode, resp.Header, apiErr
	}
	return data, resp.StatusCode, resp.Header, nil
}
