package pagination

import (
	"context"
	"fmt"

	"demotools/internal/platform"
)

// countWindow 平台 offset 上限，超过后用 id 游标开新窗口
const countWindow = 10000

// Count 统计总数，不受 offset 上限限制
func Count(ctx context.Context, ep Endpoint, q platform.Query) (int64, error) {
	if ep == nil {
		return 0, ErrNoEndpoint
	}
	var (
		total  int64
		cursor string
	)
	for {
		n, err := windowTotal(ctx, ep, q, cursor)
		if err != nil {
			return 0, err
		}
		if n < countWindow {
			return total + n, nil
		}

		last, err := windowLastID(ctx, ep, q, cursor)
		if err != nil {
			return 0, err
		}
		total += countWindow
		cursor = last
	}
}

func windowTotal(ctx context.Context, ep Endpoint, base platform.Query, cursor string) (int64, error) {
	q := base
	q.Where = cursorWhere(base.Where, cursor)
	q.WithTotal = true
	q.Limit = 1
	q.Offset = 0
	q.Sort = []string{"id asc"}
	res, err := ep.Get(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to query total: %w", err)
	}
	if res == nil || res.Total == nil {
		return 0, ErrNoTotal
	}
	return *res.Total, nil
}

func windowLastID(ctx context.Context, ep Endpoint, base platform.Query, cursor string) (string, error) {
	q := base
	q.Where = cursorWhere(base.Where, cursor)
	q.WithTotal = false
	q.Limit = PageSize
	q.Offset = countWindow - PageSize
	q.Sort = []string{"id asc"}
	res, err := ep.Get(ctx, q)
	if err != nil {
		return "", fmt.Errorf("failed to query window end: %w", err)
	}
	if res == nil || len(res.Results) == 0 {
		return "", fmt.Errorf("empty window after cursor %q", cursor)
	}
	return res.Results[len(res.Results)-1].ID(), nil
}
