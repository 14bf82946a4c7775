package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore 每个 Key 一个缩进 JSON 文件
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore root 为空时 Key.Dir 按原样解析（相对当前目录）
func NewFileStore(root string, logger *zap.Logger) *FileStore {
	return &FileStore{root: root, logger: logger}
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.root, key.Dir, key.Filename)
}

func (s *FileStore) Read(key Key, v any) (bool, error) {
	if err := key.valid(); err != nil {
		return false, err
	}
	p := s.path(key)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache file %s: %w", p, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode cache file %s: %w", p, err)
	}
	s.logger.Debug("cache hit", zap.String("path", p))
	return true, nil
}

func (s *FileStore) Write(key Key, v any) error {
	if err := key.valid(); err != nil {
		return err
	}
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", p, err)
	}
	s.logger.Debug("cache written", zap.String("path", p), zap.Int("bytes", len(data)))
	return nil
}

func (s *FileStore) Close() error { return nil }
