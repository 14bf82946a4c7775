package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Databases 已启用的数据库连接，供各 sink 使用
type Databases struct {
	MySQL      *sql.DB
	PostgreSQL *sql.DB
	MongoDB    *mongo.Database
	logger     *zap.Logger
}

// Config 数据库配置
type Config struct {
	MySQL      MySQLConfig
	PostgreSQL PostgreSQLConfig
	MongoDB    MongoDBConfig
	Logger     *zap.Logger
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	Charset         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN go-sql-driver 格式
func (c MySQLConfig) DSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// PostgreSQLConfig PostgreSQL 配置
type PostgreSQLConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN lib/pq URL 格式
func (c PostgreSQLConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// MongoDBConfig MongoDB 配置
type MongoDBConfig struct {
	Enabled     bool
	URI         string
	Database    string
	AuthSource  string
	Username    string
	Password    string
	ReplicaSet  string
	MaxPoolSize uint64
	MinPoolSize uint64
	MaxIdleTime time.Duration
}

// New 连接所有已启用的数据库，任一失败则关闭已建立的连接
func New(ctx context.Context, cfg Config) (*Databases, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	db := &Databases{logger: cfg.Logger}

	if cfg.MySQL.Enabled {
		conn, err := openSQL(ctx, "mysql", cfg.MySQL.DSN(), poolConfig{
			cfg.MySQL.MaxOpenConns, cfg.MySQL.MaxIdleConns, cfg.MySQL.ConnMaxLifetime, cfg.MySQL.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect MySQL: %w", err)
		}
		db.MySQL = conn
		cfg.Logger.Info("MySQL connected", zap.String("host", cfg.MySQL.Host), zap.String("database", cfg.MySQL.Database))
	}

	if cfg.PostgreSQL.Enabled {
		conn, err := openSQL(ctx, "postgres", cfg.PostgreSQL.DSN(), poolConfig{
			cfg.PostgreSQL.MaxOpenConns, cfg.PostgreSQL.MaxIdleConns, cfg.PostgreSQL.ConnMaxLifetime, cfg.PostgreSQL.ConnMaxIdleTime,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect PostgreSQL: %w", err)
		}
		db.PostgreSQL = conn
		cfg.Logger.Info("PostgreSQL connected", zap.String("host", cfg.PostgreSQL.Host), zap.String("database", cfg.PostgreSQL.Database))
	}

	if cfg.MongoDB.Enabled {
		mdb, err := connectMongoDB(ctx, cfg.MongoDB)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
		}
		db.MongoDB = mdb
		cfg.Logger.Info("MongoDB connected", zap.String("database", cfg.MongoDB.Database))
	}

	return db, nil
}

type poolConfig struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

func openSQL(ctx context.Context, driver, dsn string, pool poolConfig) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	conn.SetMaxOpenConns(pool.maxOpen)
	conn.SetMaxIdleConns(pool.maxIdle)
	conn.SetConnMaxLifetime(pool.maxLifetime)
	conn.SetConnMaxIdleTime(pool.maxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return conn, nil
}

func connectMongoDB(ctx context.Context, cfg MongoDBConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetAuth(options.Credential{
			AuthSource: cfg.AuthSource,
			Username:   cfg.Username,
			Password:   cfg.Password,
		})
	}
	if cfg.ReplicaSet != "" {
		opts.SetReplicaSet(cfg.ReplicaSet)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.MaxIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxIdleTime)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(cfg.Database), nil
}

// RequireMySQL 未启用时返回错误
func (d *Databases) RequireMySQL() (*sql.DB, error) {
	if d == nil || d.MySQL == nil {
		return nil, fmt.Errorf("MySQL is not enabled or not connected")
	}
	return d.MySQL, nil
}

func (d *Databases) RequirePostgreSQL() (*sql.DB, error) {
	if d == nil || d.PostgreSQL == nil {
		return nil, fmt.Errorf("PostgreSQL is not enabled or not connected")
	}
	return d.PostgreSQL, nil
}

func (d *Databases) RequireMongoDB() (*mongo.Database, error) {
	if d == nil || d.MongoDB == nil {
		return nil, fmt.Errorf("MongoDB is not enabled or not connected")
	}
	return d.MongoDB, nil
}

// Close 关闭所有数据库连接
func (d *Databases) Close() error {
	var errs []error
	if d.MySQL != nil {
		if err := d.MySQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MySQL: %w", err))
		} else {
			d.logger.Info("MySQL connection closed")
		}
	}
	if d.PostgreSQL != nil {
		if err := d.PostgreSQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close PostgreSQL: %w", err))
		} else {
			d.logger.Info("PostgreSQL connection closed")
		}
	}
	if d.MongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.MongoDB.Client().Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MongoDB: %w", err))
		} else {
			d.logger.Info("MongoDB connection closed")
		}
	}
	return errors.Join(errs...)
}

// Ping 检查所有已启用数据库的连接状态
func (d *Databases) Ping(ctx context.Context) error {
	if d.MySQL != nil {
		if err := d.MySQL.PingContext(ctx); err != nil {
			return fmt.Errorf("MySQL ping failed: %w", err)
		}
	}
	if d.PostgreSQL != nil {
		if err := d.PostgreSQL.PingContext(ctx); err != nil {
			return fmt.Errorf("PostgreSQL ping failed: %w", err)
		}
	}
	if d.MongoDB != nil {
		if err := d.MongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB ping failed: %w", err)
		}
	}
	return nil
}
