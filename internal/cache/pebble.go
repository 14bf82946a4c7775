package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// PebbleStore 嵌入式 KV 后端，键为 dir/filename
type PebbleStore struct {
	db     *pebble.DB
	logger *zap.Logger
}

func NewPebbleStore(dir string, logger *zap.Logger) (*PebbleStore, error) {
	if dir == "" {
		dir = "cache.pebble"
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble cache: %w", err)
	}
	logger.Info("pebble cache opened", zap.String("dir", dir))
	return &PebbleStore{db: db, logger: logger}, nil
}

func (s *PebbleStore) Read(key Key, v any) (bool, error) {
	if err := key.valid(); err != nil {
		return false, err
	}
	val, closer, err := s.db.Get([]byte(key.String()))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	s.logger.Debug("cache hit", zap.String("key", key.String()))
	return true, nil
}

func (s *PebbleStore) Write(key Key, v any) error {
	if err := key.valid(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := s.db.Set([]byte(key.String()), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }
