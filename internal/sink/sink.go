package sink

import (
	"context"
	"errors"
	"fmt"

	"demotools/internal/database"
	"demotools/internal/metrics"
	"demotools/internal/platform"

	"go.uber.org/zap"
)

// Sink 导出结果的写入目标
type Sink interface {
	Name() string
	// Write 写入一批资源，collection 为资源类别（products、categories ...）
	Write(ctx context.Context, collection string, resources []platform.Resource) error
	Close() error
}

// Config 启用哪些 sink
type Config struct {
	Mongo MongoConfig
	SQL   SQLConfig
	Kafka KafkaConfig
}

type MongoConfig struct {
	Enabled bool
}

type SQLConfig struct {
	Enabled bool
	Dialect string // mysql | postgres
	Table   string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Build 按配置创建 sink，数据库连接来自 dbs
func Build(ctx context.Context, cfg Config, dbs *database.Databases, logger *zap.Logger, m *metrics.Registry) (*Multi, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sinks []Sink

	if cfg.Mongo.Enabled {
		db, err := dbs.RequireMongoDB()
		if err != nil {
			return nil, fmt.Errorf("failed to build mongo sink: %w", err)
		}
		sinks = append(sinks, NewMongoSink(db, logger))
	}

	if cfg.SQL.Enabled {
		dialect, err := ParseDialect(cfg.SQL.Dialect)
		if err != nil {
			return nil, err
		}
		conn, err := dbs.RequireMySQL()
		if dialect == Postgres {
			conn, err = dbs.RequirePostgreSQL()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build sql sink: %w", err)
		}
		s, err := NewSQLSink(conn, dialect, cfg.SQL.Table, logger)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureTable(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if cfg.Kafka.Enabled {
		s, err := NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	logger.Info("sinks ready", zap.Strings("sinks", names))
	return NewMulti(logger, m, sinks...), nil
}

// Multi 依次写入所有 sink，单个失败不影响其他
type Multi struct {
	sinks   []Sink
	logger  *zap.Logger
	metrics *metrics.Registry
}

func NewMulti(logger *zap.Logger, m *metrics.Registry, sinks ...Sink) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: sinks, logger: logger, metrics: m}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Write(ctx context.Context, collection string, resources []platform.Resource) error {
	if len(resources) == 0 {
		return nil
	}
	var errs []error
	for _, s := range m.sinks {
		err := s.Write(ctx, collection, resources)
		m.metrics.ObserveSinkWrite(s.Name(), len(resources), err)
		if err != nil {
			m.logger.Error("sink write failed",
				zap.String("sink", s.Name()),
				zap.String("collection", collection),
				zap.Int("count", len(resources)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
