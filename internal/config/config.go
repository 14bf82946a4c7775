package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Platform  PlatformConfig  `mapstructure:"platform"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Inspect   InspectConfig   `mapstructure:"inspect"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Sinks     SinksConfig     `mapstructure:"sinks"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"` // development, production
}

// SchedulerConfig 调度器配置
type SchedulerConfig struct {
	DefaultTimeout string `mapstructure:"default_timeout"` // 例如: "30m"
	Location       string `mapstructure:"location"`        // 例如: "Europe/Berlin"
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // 日志输出路径
	MaxSize    int    `mapstructure:"max_size"`    // 日志文件最大大小(MB)
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // 日志保留天数
	Compress   bool   `mapstructure:"compress"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MySQL      MySQLConfig      `mapstructure:"mysql"`
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
	MongoDB    MongoDBConfig    `mapstructure:"mongodb"`
}

// SQLPoolConfig 连接池配置，MySQL 与 PostgreSQL 共用
type SQLPoolConfig struct {
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeStr string `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTimeStr string `mapstructure:"conn_max_idle_time"`

	// 由 parseDurations 填充
	ConnMaxLifetime time.Duration `mapstructure:"-"`
	ConnMaxIdleTime time.Duration `mapstructure:"-"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	Charset       string `mapstructure:"charset"`
	SQLPoolConfig `mapstructure:",squash"`
}

// PostgreSQLConfig PostgreSQL 配置
type PostgreSQLConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	SSLMode       string `mapstructure:"sslmode"`
	SQLPoolConfig `mapstructure:",squash"`
}

// MongoDBConfig MongoDB 配置
type MongoDBConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	AuthSource     string `mapstructure:"auth_source"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	ReplicaSet     string `mapstructure:"replica_set"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	MaxIdleTimeStr string `mapstructure:"max_idle_time"`

	MaxIdleTime time.Duration `mapstructure:"-"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"` // gin 模式: debug, release, test
}

// PlatformConfig 平台 API 配置，凭证可被 CTP_* 环境变量覆盖
type PlatformConfig struct {
	ProjectKey         string      `mapstructure:"project_key"`
	ClientID           string      `mapstructure:"client_id"`
	ClientSecret       string      `mapstructure:"client_secret"`
	AuthURL            string      `mapstructure:"auth_url"`
	APIURL             string      `mapstructure:"api_url"`
	ConnectURLOverride string      `mapstructure:"connect_url"`
	Scopes             []string    `mapstructure:"scopes"`
	TimeoutStr         string      `mapstructure:"timeout"`
	RateLimit          float64     `mapstructure:"rate_limit"` // 每秒请求数，0 表示不限
	Burst              int         `mapstructure:"burst"`
	LogAPICalls        bool        `mapstructure:"log_api_calls"`
	Retry              RetryConfig `mapstructure:"retry"`

	Timeout time.Duration `mapstructure:"-"`
}

// RetryConfig 请求重试配置
type RetryConfig struct {
	MaxRetries        int     `mapstructure:"max_retries"`
	InitialBackoffStr string  `mapstructure:"initial_backoff"`
	MaxBackoffStr     string  `mapstructure:"max_backoff"`
	BackoffFactor     float64 `mapstructure:"backoff_factor"`
	Jitter            float64 `mapstructure:"jitter"`

	InitialBackoff time.Duration `mapstructure:"-"`
	MaxBackoff     time.Duration `mapstructure:"-"`
}

// CacheConfig 大查询缓存配置
type CacheConfig struct {
	Backend string `mapstructure:"backend"` // file, pebble
	Dir     string `mapstructure:"dir"`
}

// InspectConfig 调试输出配置
type InspectConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SinksConfig 导出结果写入目标
type SinksConfig struct {
	Mongo MongoSinkConfig `mapstructure:"mongo"`
	SQL   SQLSinkConfig   `mapstructure:"sql"`
	Kafka KafkaSinkConfig `mapstructure:"kafka"`
}

type MongoSinkConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type SQLSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dialect string `mapstructure:"dialect"` // mysql, postgres
	Table   string `mapstructure:"table"`
}

type KafkaSinkConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 环境变量：DEMOTOOLS_PLATFORM_PROJECT_KEY 等
	v.SetEnvPrefix("DEMOTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.parseDurations(); err != nil {
		return nil, fmt.Errorf("failed to parse durations: %w", err)
	}

	return &config, nil
}

// parseDurations 解析时间字符串
func (c *Config) parseDurations() error {
	fields := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"database.mysql.conn_max_lifetime", c.Database.MySQL.ConnMaxLifetimeStr, &c.Database.MySQL.ConnMaxLifetime},
		{"database.mysql.conn_max_idle_time", c.Database.MySQL.ConnMaxIdleTimeStr, &c.Database.MySQL.ConnMaxIdleTime},
		{"database.postgresql.conn_max_lifetime", c.Database.PostgreSQL.ConnMaxLifetimeStr, &c.Database.PostgreSQL.ConnMaxLifetime},
		{"database.postgresql.conn_max_idle_time", c.Database.PostgreSQL.ConnMaxIdleTimeStr, &c.Database.PostgreSQL.ConnMaxIdleTime},
		{"database.mongodb.max_idle_time", c.Database.MongoDB.MaxIdleTimeStr, &c.Database.MongoDB.MaxIdleTime},
		{"platform.timeout", c.Platform.TimeoutStr, &c.Platform.Timeout},
		{"platform.retry.initial_backoff", c.Platform.Retry.InitialBackoffStr, &c.Platform.Retry.InitialBackoff},
		{"platform.retry.max_backoff", c.Platform.Retry.MaxBackoffStr, &c.Platform.Retry.MaxBackoff},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := time.ParseDuration(f.value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = d
	}
	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "demotools")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("scheduler.default_timeout", "30m")
	v.SetDefault("scheduler.location", "UTC")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)

	// MySQL
	v.SetDefault("database.mysql.enabled", false)
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.charset", "utf8mb4")
	v.SetDefault("database.mysql.max_open_conns", 25)
	v.SetDefault("database.mysql.max_idle_conns", 5)
	v.SetDefault("database.mysql.conn_max_lifetime", "5m")
	v.SetDefault("database.mysql.conn_max_idle_time", "10m")

	// PostgreSQL
	v.SetDefault("database.postgresql.enabled", false)
	v.SetDefault("database.postgresql.host", "localhost")
	v.SetDefault("database.postgresql.port", 5432)
	v.SetDefault("database.postgresql.sslmode", "disable")
	v.SetDefault("database.postgresql.max_open_conns", 25)
	v.SetDefault("database.postgresql.max_idle_conns", 5)
	v.SetDefault("database.postgresql.conn_max_lifetime", "5m")
	v.SetDefault("database.postgresql.conn_max_idle_time", "10m")

	// MongoDB
	v.SetDefault("database.mongodb.enabled", false)
	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.database", "demotools")
	v.SetDefault("database.mongodb.auth_source", "admin")
	v.SetDefault("database.mongodb.max_pool_size", 100)
	v.SetDefault("database.mongodb.min_pool_size", 10)
	v.SetDefault("database.mongodb.max_idle_time", "30m")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("platform.auth_url", "https://auth.europe-west1.gcp.commercetools.com")
	v.SetDefault("platform.api_url", "https://api.europe-west1.gcp.commercetools.com")
	v.SetDefault("platform.timeout", "30s")
	v.SetDefault("platform.rate_limit", 0)
	v.SetDefault("platform.burst", 1)
	v.SetDefault("platform.log_api_calls", false)
	v.SetDefault("platform.retry.max_retries", 3)
	v.SetDefault("platform.retry.initial_backoff", "500ms")
	v.SetDefault("platform.retry.max_backoff", "30s")
	v.SetDefault("platform.retry.backoff_factor", 2.0)
	v.SetDefault("platform.retry.jitter", 0.1)

	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "cache")

	v.SetDefault("inspect.enabled", false)
	v.SetDefault("inspect.dir", "inspect")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("sinks.mongo.enabled", false)
	v.SetDefault("sinks.sql.enabled", false)
	v.SetDefault("sinks.sql.dialect", "mysql")
	v.SetDefault("sinks.sql.table", "resources")
	v.SetDefault("sinks.kafka.enabled", false)
	v.SetDefault("sinks.kafka.topic", "demotools.resources")
}

// GetDefaultTimeout 获取默认超时时间
func (c *Config) GetDefaultTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Scheduler.DefaultTimeout)
}

// GetLocation 获取时区
func (c *Config) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Scheduler.Location)
}
