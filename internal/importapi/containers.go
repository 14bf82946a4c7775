package importapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"demotools/internal/platform"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 15 * time.Second
	// MaxBatchSize 单次导入请求的资源上限
	MaxBatchSize = 20
)

// Options 容器操作参数
type Options struct {
	PollInterval time.Duration
	MaxWait      time.Duration
	BatchSize    int
	Logger       *zap.Logger
}

// Containers import API 的容器与导入请求
type Containers struct {
	client       *platform.Client
	pollInterval time.Duration
	maxWait      time.Duration
	batchSize    int
	logger       *zap.Logger
}

// NewContainers client 需指向 import API 主机
func NewContainers(client *platform.Client, opts Options) *Containers {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.BatchSize <= 0 || opts.BatchSize > MaxBatchSize {
		opts.BatchSize = MaxBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Containers{
		client:       client,
		pollInterval: opts.PollInterval,
		maxWait:      opts.MaxWait,
		batchSize:    opts.BatchSize,
		logger:       opts.Logger,
	}
}

func containerPath(key string) string {
	return "import-containers/" + url.PathEscape(key)
}

// Ensure 容器不存在时创建并等待其可见
// 超时仍不可见只记录警告，不返回错误
func (c *Containers) Ensure(ctx context.Context, key, resourceType string) error {
	c.logger.Info("checking for container", zap.String("key", key))
	_, err := c.client.Do(ctx, http.MethodGet, containerPath(key), nil, nil)
	if err == nil {
		c.logger.Info("container exists", zap.String("key", key))
		return nil
	}
	if !platform.IsNotFound(err) {
		return fmt.Errorf("failed to get import container %s: %w", key, err)
	}

	c.logger.Info("creating container", zap.String("key", key), zap.String("resource_type", resourceType))
	body := map[string]string{"key": key, "resourceType": resourceType}
	if _, err := c.client.Do(ctx, http.MethodPost, "import-containers", nil, body); err != nil {
		return fmt.Errorf("failed to create import container %s: %w", key, err)
	}

	var waited time.Duration
	for waited < c.maxWait {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
		waited += c.pollInterval

		if _, err := c.client.Do(ctx, http.MethodGet, containerPath(key), nil, nil); err == nil {
			c.logger.Info("import container verified", zap.String("key", key), zap.Duration("waited", waited))
			return nil
		}
		c.logger.Debug("container not ready yet", zap.String("key", key), zap.Duration("waited", waited))
	}

	c.logger.Warn("could not verify container creation", zap.String("key", key), zap.Duration("max_wait", c.maxWait))
	return nil
}

// ImportProductDrafts 按批提交 product draft，返回每批的响应
func (c *Containers) ImportProductDrafts(ctx context.Context, key string, drafts []any) ([]platform.Resource, error) {
	path := "product-drafts/" + containerPath(key)
	var responses []platform.Resource
	for start := 0; start < len(drafts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(drafts) {
			end = len(drafts)
		}
		body := map[string]any{"type": "product-draft", "resources": drafts[start:end]}
		data, err := c.client.Do(ctx, http.MethodPost, path, nil, body)
		if err != nil {
			return responses, fmt.Errorf("failed to import batch %d-%d into %s: %w", start, end, key, err)
		}
		var res platform.Resource
		if err := json.Unmarshal(data, &res); err != nil {
			return responses, fmt.Errorf("failed to decode import response: %w", err)
		}
		responses = append(responses, res)
		c.logger.Info("imported product drafts", zap.String("container", key), zap.Int("from", start), zap.Int("to", end))
	}
	return responses, nil
}
