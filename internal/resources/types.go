package resources

import (
	"context"
	"fmt"

	"demotools/internal/platform"

	"go.uber.org/zap"
)

// LocalizedString 按 locale 的文本
type LocalizedString map[string]string

// EnumValue Enum 的 Label 为字符串，LocalizedEnum 的 Label 为 LocalizedString
type EnumValue struct {
	Key   string `json:"key"`
	Label any    `json:"label"`
}

// FieldType 字段类型，Set 通过 ElementType 嵌套
type FieldType struct {
	Name            string      `json:"name"`
	Values          []EnumValue `json:"values,omitempty"`
	ElementType     *FieldType  `json:"elementType,omitempty"`
	ReferenceTypeID string      `json:"referenceTypeId,omitempty"`
}

type FieldDefinition struct {
	Name      string          `json:"name"`
	Type      FieldType       `json:"type"`
	Label     LocalizedString `json:"label,omitempty"`
	Required  bool            `json:"required"`
	InputHint string          `json:"inputHint,omitempty"`
}

// Type 自定义类型（也用作 draft）
type Type struct {
	ID               string            `json:"id,omitempty"`
	Version          int64             `json:"version,omitempty"`
	Key              string            `json:"key"`
	Name             LocalizedString   `json:"name"`
	Description      LocalizedString   `json:"description,omitempty"`
	ResourceTypeIDs  []string          `json:"resourceTypeIds"`
	FieldDefinitions []FieldDefinition `json:"fieldDefinitions"`
}

// UpdateAction 平台更新动作
type UpdateAction map[string]any

// Types types 端点的操作
type Types struct {
	endpoint *platform.Endpoint
	logger   *zap.Logger
}

func NewTypes(client *platform.Client, logger *zap.Logger) *Types {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Types{endpoint: client.Endpoint("types"), logger: logger}
}

// Get 不存在时返回 nil
func (t *Types) Get(ctx context.Context, key string) (*Type, error) {
	t.logger.Info("getting type", zap.String("key", key))
	res, err := platform.Allow404(t.endpoint.GetByKey(ctx, key))
	if err != nil {
		return nil, fmt.Errorf("failed to get type %s: %w", key, err)
	}
	if res == nil {
		return nil, nil
	}
	var typ Type
	if err := res.Decode(&typ); err != nil {
		return nil, err
	}
	return &typ, nil
}

func (t *Types) Create(ctx context.Context, draft Type) (platform.Resource, error) {
	t.logger.Info("creating type", zap.String("key", draft.Key))
	draft.ID, draft.Version = "", 0
	res, err := t.endpoint.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("failed to create type %s: %w", draft.Key, err)
	}
	return res, nil
}

func (t *Types) Delete(ctx context.Context, key string, version int64) error {
	t.logger.Info("deleting type", zap.String("key", key), zap.Int64("version", version))
	if _, err := t.endpoint.DeleteByKey(ctx, key, version); err != nil {
		return fmt.Errorf("failed to delete type %s: %w", key, err)
	}
	return nil
}

// CreateOrUpdate 不存在则创建，否则提交差异动作；无差异时不发请求
func (t *Types) CreateOrUpdate(ctx context.Context, draft Type) (platform.Resource, error) {
	existing, err := t.Get(ctx, draft.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return t.Create(ctx, draft)
	}

	actions, warnings := Diff(*existing, draft)
	for _, w := range warnings {
		t.logger.Warn("type change not applied", zap.String("key", draft.Key), zap.String("reason", w))
	}
	if len(actions) == 0 {
		t.logger.Info("no changes", zap.String("key", draft.Key))
		return nil, nil
	}

	t.logger.Info("updating type", zap.String("key", draft.Key), zap.Int("actions", len(actions)))
	res, err := t.endpoint.UpdateByKey(ctx, draft.Key, existing.Version, actions)
	if err != nil {
		return nil, fmt.Errorf("failed to update type %s: %w", draft.Key, err)
	}
	return res, nil
}
