package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "demotools", cfg.App.Name)
	assert.Equal(t, 30*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, 3, cfg.Platform.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Platform.Retry.InitialBackoff)
	assert.Equal(t, 5*time.Minute, cfg.Database.MySQL.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.Database.MongoDB.MaxIdleTime)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	timeout, err := cfg.GetDefaultTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
platform:
  project_key: from-file
  timeout: 10s
  scopes: ["manage_project:demo"]
database:
  postgresql:
    conn_max_idle_time: 1m
sinks:
  kafka:
    enabled: true
    brokers: ["k1:9092"]
`)
	t.Setenv("DEMOTOOLS_SERVER_PORT", "9191")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Platform.ProjectKey)
	assert.Equal(t, 10*time.Second, cfg.Platform.Timeout)
	assert.Equal(t, []string{"manage_project:demo"}, cfg.Platform.Scopes)
	assert.Equal(t, time.Minute, cfg.Database.PostgreSQL.ConnMaxIdleTime)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.True(t, cfg.Sinks.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092"}, cfg.Sinks.Kafka.Brokers)
}

func TestLoad_BadDuration(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "platform:\n  timeout: soon\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "platform.timeout")
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", `CTP_PROJECT_KEY=demo-project
CTP_CLIENT_ID=client
CTP_CLIENT_SECRET=secret
CTP_SCOPES="manage_products:demo-project view_types:demo-project"
`)
	t.Setenv("ENV_PATH", envFile)
	// 进程环境优先于文件
	t.Setenv("CTP_CLIENT_ID", "from-process")
	for _, k := range []string{"CTP_PROJECT_KEY", "CTP_CLIENT_SECRET", "CTP_SCOPES", "CTP_AUTH_URL", "CTP_API_URL", "CTP_CONNECT_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	p := PlatformConfig{APIURL: "https://api.europe-west1.gcp.commercetools.com"}
	loaded, err := p.LoadEnv(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, envFile, loaded)
	assert.Equal(t, "demo-project", p.ProjectKey)
	assert.Equal(t, "from-process", p.ClientID)
	assert.Equal(t, "secret", p.ClientSecret)
	assert.Equal(t, []string{"manage_products:demo-project", "view_types:demo-project"}, p.Scopes)
	assert.Equal(t, "https://import.europe-west1.gcp.commercetools.com", p.ImportURL())
	assert.Equal(t, "https://connect.europe-west1.gcp.commercetools.com", p.ConnectURL())
}

func TestPlatformConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlatformConfig
		missing []string
	}{
		{
			name: "complete",
			cfg:  PlatformConfig{ProjectKey: "p", ClientID: "c", ClientSecret: "s", AuthURL: "a", APIURL: "u"},
		},
		{
			name:    "missing secret and project",
			cfg:     PlatformConfig{ClientID: "c", AuthURL: "a", APIURL: "u"},
			missing: []string{"CTP_PROJECT_KEY", "CTP_CLIENT_SECRET"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.missing) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, m := range tt.missing {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestConnectURL_Override(t *testing.T) {
	p := PlatformConfig{APIURL: "https://api.example.com", ConnectURLOverride: "https://connect.other"}
	assert.Equal(t, "https://connect.other", p.ConnectURL())
}

func TestLoadJobsConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		jobs, err := LoadJobsConfig(filepath.Join(t.TempDir(), "jobs.yaml"), zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, jobs.Exports)
		assert.Empty(t, jobs.Imports)
	})

	t.Run("exports and imports", func(t *testing.T) {
		p := writeFile(t, t.TempDir(), "jobs.yaml", `
exports:
  - name: products-export
    enabled: true
    schedule: "0 */30 * * * *"
    endpoint: product-projections
    where: 'masterData(published = true)'
    max: 1000
imports:
  - name: catalog-import
    input: data/catalog.csv
    rules: rules/catalog.yaml
    container: catalog
`)
		jobs, err := LoadJobsConfig(p, nil)
		require.NoError(t, err)
		require.Len(t, jobs.Exports, 1)
		assert.Equal(t, "product-projections", jobs.Exports[0].Endpoint)
		assert.Equal(t, 1000, jobs.Exports[0].Max)
		require.Len(t, jobs.Imports, 1)
		assert.Equal(t, "catalog", jobs.Imports[0].Container)
	})

	t.Run("invalid", func(t *testing.T) {
		p := writeFile(t, t.TempDir(), "jobs.yaml", `
exports:
  - name: dup
    endpoint: categories
imports:
  - name: dup
    input: a.csv
    rules: r.yaml
`)
		_, err := LoadJobsConfig(p, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate job name "dup"`)
		assert.Contains(t, err.Error(), "one of output, endpoint or container")
	})
}
