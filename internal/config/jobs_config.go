package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// JobsConfig jobs.yaml 中的导出与导入任务
type JobsConfig struct {
	Exports []ExportJobConfig `mapstructure:"exports"`
	Imports []ImportJobConfig `mapstructure:"imports"`
}

// ExportJobConfig 分页读取一个 endpoint 并写入 sink
type ExportJobConfig struct {
	Name       string   `mapstructure:"name"`
	Enabled    bool     `mapstructure:"enabled"`
	Schedule   string   `mapstructure:"schedule"` // 秒 分 时 日 月 周
	Timeout    string   `mapstructure:"timeout"`
	Endpoint   string   `mapstructure:"endpoint"`   // 例如 product-projections
	Collection string   `mapstructure:"collection"` // sink 中的集合名，默认同 endpoint
	Where      string   `mapstructure:"where"`
	Expand     []string `mapstructure:"expand"`
	Max        int      `mapstructure:"max"`

	// 价格范围参数
	PriceCurrency string `mapstructure:"price_currency"`
	PriceCountry  string `mapstructure:"price_country"`

	// CacheFile 非空时走 LargeQuery（累积模式 + 缓存），InspectFile 输出结果
	CacheFile   string `mapstructure:"cache_file"`
	InspectFile string `mapstructure:"inspect_file"`
}

// ImportJobConfig 读取文件、按规则映射后写出或创建
type ImportJobConfig struct {
	Name      string `mapstructure:"name"`
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`
	Timeout   string `mapstructure:"timeout"`
	Input     string `mapstructure:"input"` // .csv / .xlsx / .json
	Sheet     string `mapstructure:"sheet"`
	Delimiter string `mapstructure:"delimiter"`
	Rules     string `mapstructure:"rules"`
	Max       int    `mapstructure:"max"`
	Debug     bool   `mapstructure:"debug"`

	// 输出方式，可同时配置
	Output    string `mapstructure:"output"`    // JSON 文件
	Endpoint  string `mapstructure:"endpoint"`  // 逐条 POST 到平台 endpoint
	Container string `mapstructure:"container"` // Import API 容器 key
}

// LoadJobsConfig 从指定文件加载任务配置，文件不存在时返回空配置
func LoadJobsConfig(filePath string, logger *zap.Logger) (*JobsConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		logger.Warn("jobs config file not found, using default empty config",
			zap.String("file_path", filePath),
		)
		return &JobsConfig{}, nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read jobs config file: %w", err)
	}

	var jobs JobsConfig
	if err := v.Unmarshal(&jobs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jobs config: %w", err)
	}
	if err := jobs.validate(); err != nil {
		return nil, err
	}

	logger.Info("jobs config loaded successfully",
		zap.String("config_file", filePath),
		zap.Int("exports", len(jobs.Exports)),
		zap.Int("imports", len(jobs.Imports)),
	)
	return &jobs, nil
}

func (j *JobsConfig) validate() error {
	seen := make(map[string]bool)
	var errs []error
	check := func(kind, name string) {
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%s job without a name", kind))
		case seen[name]:
			errs = append(errs, fmt.Errorf("duplicate job name %q", name))
		}
		seen[name] = true
	}
	for _, e := range j.Exports {
		check("export", e.Name)
		if e.Endpoint == "" {
			errs = append(errs, fmt.Errorf("export job %q: endpoint is required", e.Name))
		}
	}
	for _, i := range j.Imports {
		check("import", i.Name)
		if i.Input == "" || i.Rules == "" {
			errs = append(errs, fmt.Errorf("import job %q: input and rules are required", i.Name))
		}
		if i.Output == "" && i.Endpoint == "" && i.Container == "" {
			errs = append(errs, fmt.Errorf("import job %q: one of output, endpoint or container is required", i.Name))
		}
	}
	return errors.Join(errs...)
}
