package resources

import (
	"context"
	"errors"
	"fmt"

	"demotools/internal/pagination"
	"demotools/internal/platform"

	"go.uber.org/zap"
)

// ProductAction 针对单个商品返回更新动作，nil 表示跳过
type ProductAction func(product platform.Resource) UpdateAction

// VariantAction 针对商品的单个变体返回更新动作，nil 表示跳过
type VariantAction func(product, variant platform.Resource) UpdateAction

// BulkResult 批量更新统计
type BulkResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Products 遍历所有商品投影并逐个提交更新
type Products struct {
	projections pagination.Endpoint
	products    *platform.Endpoint
	paginator   *pagination.Paginator
	logger      *zap.Logger
	debug       bool
}

func NewProducts(client *platform.Client, paginator *pagination.Paginator, logger *zap.Logger, debug bool) *Products {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Products{
		projections: client.Endpoint("product-projections"),
		products:    client.Endpoint("products"),
		paginator:   paginator,
		logger:      logger,
		debug:       debug,
	}
}

// ActionAllProducts 每个商品最多一个动作
func (p *Products) ActionAllProducts(ctx context.Context, fn ProductAction) (BulkResult, error) {
	var result BulkResult
	err := p.eachProduct(ctx, func(ctx context.Context, product platform.Resource) {
		if action := fn(product); action != nil {
			p.apply(ctx, product, []UpdateAction{action}, &result)
		}
	})
	p.logger.Info("bulk product update finished", zap.Int("updated", result.Updated), zap.Int("errors", result.Errors))
	return result, err
}

// ActionAllVariants 对 masterVariant 与所有 variants 收集动作，一个商品一次提交
func (p *Products) ActionAllVariants(ctx context.Context, fn VariantAction) (BulkResult, error) {
	var result BulkResult
	err := p.eachProduct(ctx, func(ctx context.Context, product platform.Resource) {
		var actions []UpdateAction
		for _, variant := range variantsOf(product) {
			if action := fn(product, variant); action != nil {
				actions = append(actions, action)
			}
		}
		p.apply(ctx, product, actions, &result)
	})
	p.logger.Info("bulk variant update finished", zap.Int("updated", result.Updated), zap.Int("errors", result.Errors))
	return result, err
}

func (p *Products) eachProduct(ctx context.Context, fn func(context.Context, platform.Resource)) error {
	_, err := p.paginator.GetAll(ctx, pagination.Args{
		Endpoint: p.projections,
		Callback: func(ctx context.Context, page []platform.Resource) error {
			for _, product := range page {
				fn(ctx, product)
			}
			return ctx.Err()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to iterate products: %w", err)
	}
	return nil
}

func (p *Products) apply(ctx context.Context, product platform.Resource, actions []UpdateAction, result *BulkResult) {
	if len(actions) == 0 {
		return
	}
	if p.debug {
		p.logger.Info("product actions", zap.String("key", product.Key()), zap.Any("actions", actions))
	}
	p.logger.Info("updating product", zap.String("key", product.Key()), zap.Int("actions", len(actions)))

	if _, err := p.products.UpdateByID(ctx, product.ID(), product.Version(), actions); err != nil {
		result.Errors++
		fields := []zap.Field{zap.String("id", product.ID()), zap.Error(err)}
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields, zap.Any("errors", apiErr.Errors))
		}
		p.logger.Error("failed to update product", fields...)
		return
	}
	result.Updated++
}

func variantsOf(product platform.Resource) []platform.Resource {
	var out []platform.Resource
	if master := asResource(product["masterVariant"]); master != nil {
		out = append(out, master)
	}
	if list, ok := product["variants"].([]any); ok {
		for _, v := range list {
			if variant := asResource(v); variant != nil {
				out = append(out, variant)
			}
		}
	}
	return out
}

func asResource(v any) platform.Resource {
	switch t := v.(type) {
	case map[string]any:
		return platform.Resource(t)
	case platform.Resource:
		return t
	}
	return nil
}
