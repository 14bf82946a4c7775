package files

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ReadJSON 读取 JSON 文件并解码到 v
func ReadJSON(filename string, v any, logger *zap.Logger) error {
	logger = orNop(logger)
	if filename == "" {
		return fmt.Errorf("no filename passed to ReadJSON")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read json file: %w", err)
	}
	logger.Info("read json", zap.String("file", filename), zap.Int("bytes", len(data)))
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode json file %s: %w", filename, err)
	}
	return nil
}

// WriteJSON 写出 JSON，indent 为缩进空格数，0 为紧凑格式
func WriteJSON(filename string, data any, indent int, logger *zap.Logger) error {
	logger = orNop(logger)
	if err := ensureDir(filename); err != nil {
		return err
	}

	var (
		out []byte
		err error
	)
	if indent > 0 {
		out, err = json.MarshalIndent(data, "", strings.Repeat(" ", indent))
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	logger.Info("writing json", zap.String("file", filename))
	if err := os.WriteFile(filename, out, 0o644); err != nil {
		return fmt.Errorf("failed to write json file: %w", err)
	}
	return nil
}

// Inspector 调试时把中间结果写成 JSON
type Inspector struct {
	Enabled bool
	Dir     string
	Logger  *zap.Logger
}

func (i Inspector) Inspect(filename string, data any) error {
	logger := orNop(i.Logger)
	if !i.Enabled {
		logger.Debug("inspect disabled")
		return nil
	}
	if filename == "" {
		logger.Error("inspect filename is empty")
		return fmt.Errorf("inspect filename is empty")
	}
	return WriteJSON(filepath.Join(i.Dir, filename), data, 1, logger)
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
