package sink

import "demotools/internal/config"

// ConfigFromAppConfig 从应用配置转换为 sink 配置
func ConfigFromAppConfig(cfg config.SinksConfig) Config {
	return Config{
		Mongo: MongoConfig{Enabled: cfg.Mongo.Enabled},
		SQL: SQLConfig{
			Enabled: cfg.SQL.Enabled,
			Dialect: cfg.SQL.Dialect,
			Table:   cfg.SQL.Table,
		},
		Kafka: KafkaConfig{
			Enabled: cfg.Kafka.Enabled,
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		},
	}
}
