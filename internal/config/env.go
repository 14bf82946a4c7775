package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// DefaultEnvFile ENV_PATH 未设置时的凭证文件
const DefaultEnvFile = "../env/.env"

// envFiles 按优先级返回候选 .env 文件
func envFiles() []string {
	var files []string
	if p := os.Getenv("ENV_PATH"); p != "" {
		files = append(files, p)
	}
	return append(files, DefaultEnvFile)
}

// LoadEnv 加载第一个存在的 .env 文件，再用 CTP_* 环境变量覆盖平台凭证。
// 已存在的进程环境变量优先于文件中的值。返回加载的文件，未找到时为空。
func (p *PlatformConfig) LoadEnv(logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var loaded string
	for _, f := range envFiles() {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return "", fmt.Errorf("failed to load env file %s: %w", f, err)
		}
		loaded = f
		break
	}
	if loaded == "" {
		logger.Warn("no env file found, using process environment", zap.Strings("candidates", envFiles()))
	} else {
		logger.Info("env file loaded", zap.String("file", loaded))
	}

	overrides := []struct {
		name string
		dst  *string
	}{
		{"CTP_PROJECT_KEY", &p.ProjectKey},
		{"CTP_CLIENT_ID", &p.ClientID},
		{"CTP_CLIENT_SECRET", &p.ClientSecret},
		{"CTP_AUTH_URL", &p.AuthURL},
		{"CTP_API_URL", &p.APIURL},
		{"CTP_CONNECT_URL", &p.ConnectURLOverride},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.name)); v != "" {
			*o.dst = v
		}
	}
	if scopes := strings.Fields(os.Getenv("CTP_SCOPES")); len(scopes) > 0 {
		p.Scopes = scopes
	}
	return loaded, nil
}

// ImportURL Import API 地址
func (p *PlatformConfig) ImportURL() string {
	return strings.Replace(p.APIURL, "api.", "import.", 1)
}

// ConnectURL Connect API 地址
func (p *PlatformConfig) ConnectURL() string {
	if p.ConnectURLOverride != "" {
		return p.ConnectURLOverride
	}
	return strings.Replace(p.APIURL, "api.", "connect.", 1)
}

// Validate 列出缺失的凭证
func (p *PlatformConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"CTP_PROJECT_KEY", p.ProjectKey},
		{"CTP_CLIENT_ID", p.ClientID},
		{"CTP_CLIENT_SECRET", p.ClientSecret},
		{"CTP_AUTH_URL", p.AuthURL},
		{"CTP_API_URL", p.APIURL},
	}
	var errs []error
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.name))
		}
	}
	return errors.Join(errs...)
}
