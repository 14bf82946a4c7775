package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Resource 平台返回的任意资源
type Resource map[string]any

func (r Resource) ID() string {
	s, _ := r["id"].(string)
	return s
}

func (r Resource) Key() string {
	s, _ := r["key"].(string)
	return s
}

// Version 资源版本，缺失时为 0
func (r Resource) Version() int64 {
	switch v := r["version"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

// Decode 转成具体结构体
func (r Resource) Decode(v any) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal resource: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode resource: %w", err)
	}
	return nil
}

// PagedResult 列表查询的一页
type PagedResult struct {
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
	Count   int        `json:"count"`
	Total   *int64     `json:"total,omitempty"`
	Results []Resource `json:"results"`
}

// Endpoint 单个资源路径（products、types、product-types ...）
type Endpoint struct {
	client *Client
	path   string
}

func (c *Client) Endpoint(path string) *Endpoint {
	return &Endpoint{client: c, path: path}
}

func (e *Endpoint) Path() string { return e.path }

func (e *Endpoint) Get(ctx context.Context, q Query) (*PagedResult, error) {
	body, err := e.client.Do(ctx, http.MethodGet, e.path, q.Values(), nil)
	if err != nil {
		return nil, err
	}
	var page PagedResult
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page of %s: %w", e.path, err)
	}
	return &page, nil
}

func (e *Endpoint) GetByID(ctx context.Context, id string, expand ...string) (Resource, error) {
	return e.one(ctx, http.MethodGet, url.PathEscape(id), expandValues(expand), nil)
}

func (e *Endpoint) GetByKey(ctx context.Context, key string, expand ...string) (Resource, error) {
	return e.one(ctx, http.MethodGet, "key="+url.PathEscape(key), expandValues(expand), nil)
}

func (e *Endpoint) Create(ctx context.Context, draft any) (Resource, error) {
	return e.one(ctx, http.MethodPost, "", nil, draft)
}

func (e *Endpoint) UpdateByID(ctx context.Context, id string, version int64, actions any) (Resource, error) {
	return e.one(ctx, http.MethodPost, url.PathEscape(id), nil, updateBody(version, actions))
}

func (e *Endpoint) UpdateByKey(ctx context.Context, key string, version int64, actions any) (Resource, error) {
	return e.one(ctx, http.MethodPost, "key="+url.PathEscape(key), nil, updateBody(version, actions))
}

func (e *Endpoint) DeleteByID(ctx context.Context, id string, version int64) (Resource, error) {
	return e.one(ctx, http.MethodDelete, url.PathEscape(id), versionValues(version), nil)
}

func (e *Endpoint) DeleteByKey(ctx context.Context, key string, version int64) (Resource, error) {
	return e.one(ctx, http.MethodDelete, "key="+url.PathEscape(key), versionValues(version), nil)
}

func (e *Endpoint) one(ctx context.Context, method, sub string, query url.Values, body any) (Resource, error) {
	p := e.path
	if sub != "" {
		p += "/" + sub
	}
	data, err := e.client.Do(ctx, method, p, query, body)
	if err != nil {
		return nil, err
	}
	var res Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", p, err)
	}
	return res, nil
}

func updateBody(version int64, actions any) map[string]any {
	return map[string]any{"version": version, "actions": actions}
}

func versionValues(version int64) url.Values {
	return url.Values{"version": []string{strconv.FormatInt(version, 10)}}
}

func expandValues(expand []string) url.Values {
	if len(expand) == 0 {
		return nil
	}
	return url.Values{"expand": expand}
}
