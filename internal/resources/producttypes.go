package resources

import (
	"context"
	"fmt"

	"demotools/internal/platform"

	"go.uber.org/zap"
)

// ProductTypes product-types 端点的操作
type ProductTypes struct {
	endpoint *platform.Endpoint
	logger   *zap.Logger
}

func NewProductTypes(client *platform.Client, logger *zap.Logger) *ProductTypes {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductTypes{endpoint: client.Endpoint("product-types"), logger: logger}
}

// Get 不存在时返回 nil
func (p *ProductTypes) Get(ctx context.Context, key string) (platform.Resource, error) {
	p.logger.Info("getting product type", zap.String("key", key))
	res, err := platform.Allow404(p.endpoint.GetByKey(ctx, key))
	if err != nil {
		return nil, fmt.Errorf("failed to get product type %s: %w", key, err)
	}
	return res, nil
}

func (p *ProductTypes) Create(ctx context.Context, draft any) (platform.Resource, error) {
	p.logger.Info("creating product type")
	res, err := p.endpoint.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create product type: %w", err)
	}
	return res, nil
}

func (p *ProductTypes) Delete(ctx context.Context, key string, version int64) error {
	p.logger.Info("deleting product type", zap.String("key", key), zap.Int64("version", version))
	if _, err := p.endpoint.DeleteByKey(ctx, key, version); err != nil {
		return fmt.Errorf("failed to delete product type %s: %w", key, err)
	}
	return nil
}

// Update 返回更新后的版本号
func (p *ProductTypes) Update(ctx context.Context, key string, version int64, actions any) (int64, error) {
	p.logger.Info("updating product type", zap.String("key", key))
	res, err := p.endpoint.UpdateByKey(ctx, key, version, actions)
	if err != nil {
		return 0, fmt.Errorf("failed to update product type %s: %w", key, err)
	}
	return res.Version(), nil
}
