package cache

import (
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"
)

const (
	BackendFile   = "file"
	BackendPebble = "pebble"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Key 缓存条目位置
type Key struct {
	Dir      string
	Filename string
}

func (k Key) String() string { return path.Join(k.Dir, k.Filename) }

func (k Key) valid() error {
	if k.Filename == "" {
		return fmt.Errorf("cache key filename is empty")
	}
	return nil
}

// Store 以 JSON 存取任意值
type Store interface {
	// Read 把缓存内容解码到 v，未命中返回 false
	Read(key Key, v any) (bool, error)
	Write(key Key, v any) error
	Close() error
}

// Config 缓存配置
type Config struct {
	Backend string
	Dir     string
}

// New 按配置选择后端
func New(cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir, logger), nil
	case BackendPebble:
		return NewPebbleStore(cfg.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
