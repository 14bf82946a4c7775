package pagination

import (
	"context"
	"fmt"

	"demotools/internal/cache"
	"demotools/internal/metrics"
	"demotools/internal/platform"

	"go.uber.org/zap"
)

// PageSize 平台单页上限
const PageSize = 500

// Endpoint 支持列表查询的资源
type Endpoint interface {
	Get(ctx context.Context, q platform.Query) (*platform.PagedResult, error)
}

// PageFunc 每个非空页调用一次
type PageFunc func(ctx context.Context, results []platform.Resource) error

// Args 一次全量拉取的参数
// Query 中的 Where、Expand 与 Price* 会被保留，分页相关字段由 Paginator 覆盖
type Args struct {
	Endpoint Endpoint
	Query    platform.Query
	Max      int // <=0 表示不限
	Callback PageFunc
}

// Options Paginator 依赖
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Registry
	Cache   cache.Store
}

// Paginator 按 id 升序游标顺序拉取
type Paginator struct {
	logger  *zap.Logger
	metrics *metrics.Registry
	cache   cache.Store
}

func New(opts Options) *Paginator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Paginator{logger: opts.Logger, metrics: opts.Metrics, cache: opts.Cache}
}

// GetAll 无依赖的便捷入口
func GetAll(ctx context.Context, args Args) ([]platform.Resource, error) {
	return New(Options{}).GetAll(ctx, args)
}

// GetAll 拉取全部结果
// 有 Callback 时逐页回调并返回 nil；否则累积返回。Max 只在累积模式下截止循环
func (p *Paginator) GetAll(ctx context.Context, args Args) ([]platform.Resource, error) {
	if args.Endpoint == nil {
		return nil, ErrNoEndpoint
	}
	limit := PageSize
	if args.Max > 0 && args.Max < limit {
		limit = args.Max
	}
	name := endpointName(args.Endpoint)

	var (
		results []platform.Resource
		cursor  string
		fetched int
	)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q := args.Query
		q.WithTotal = false
		q.Limit = limit
		q.Offset = 0
		q.Sort = []string{"id asc"}
		q.Where = cursorWhere(args.Query.Where, cursor)

		res, err := args.Endpoint.Get(ctx, q)
		if err != nil {
			p.logger.Error("failed to fetch page",
				zap.String("endpoint", name),
				zap.Int("page", page),
				zap.String("cursor", cursor),
				zap.Error(err),
			)
			return nil, fmt.Errorf("failed to fetch page %d of %s: %w", page, name, err)
		}
		if res == nil {
			res = &platform.PagedResult{}
		}
		if res.Count != len(res.Results) {
			return nil, &CountMismatchError{Page: page, Cursor: cursor, Count: res.Count, Results: len(res.Results)}
		}
		p.metrics.ObservePage(res.Count)

		if res.Count > 0 {
			fetched += res.Count
			if args.Callback != nil {
				if err := args.Callback(ctx, res.Results); err != nil {
					return nil, fmt.Errorf("page callback failed on page %d: %w", page, err)
				}
			} else {
				results = append(results, res.Results...)
			}
			cursor = res.Results[res.Count-1].ID()
			p.logger.Debug("fetched items",
				zap.String("endpoint", name),
				zap.Int("page", page),
				zap.Int("total", fetched),
			)
		}

		if res.Count < limit {
			break
		}
		if args.Callback == nil && args.Max > 0 && len(results) >= args.Max {
			break
		}
	}

	p.logger.Info("pagination finished", zap.String("endpoint", name), zap.Int("items", fetched))
	if args.Callback != nil {
		return nil, nil
	}
	return results, nil
}

// LargeQuery 带缓存的 GetAll，命中缓存时不发请求
func (p *Paginator) LargeQuery(ctx context.Context, args Args, key cache.Key) ([]platform.Resource, error) {
	args.Callback = nil
	if p.cache == nil {
		return p.GetAll(ctx, args)
	}

	var cached []platform.Resource
	ok, err := p.cache.Read(key, &cached)
	if err != nil {
		p.logger.Warn("failed to read cache", zap.String("key", key.String()), zap.Error(err))
	} else if ok {
		p.logger.Info("query served from cache", zap.String("key", key.String()), zap.Int("items", len(cached)))
		return cached, nil
	}

	results, err := p.GetAll(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Write(key, results); err != nil {
		p.logger.Warn("failed to write cache", zap.String("key", key.String()), zap.Error(err))
	}
	return results, nil
}

func cursorWhere(filter, cursor string) string {
	if cursor == "" {
		return filter
	}
	pred := fmt.Sprintf("id > %q", cursor)
	if filter == "" {
		return pred
	}
	return filter + " and " + pred
}

func endpointName(ep Endpoint) string {
	if named, ok := ep.(interface{ Path() string }); ok {
		return named.Path()
	}
	return fmt.Sprintf("%T", ep)
}
