package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"demotools/internal/platform"

	"go.uber.org/zap"
)

// Dialect SQL 方言
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// sqlBatchSize 单条 INSERT 的最大行数
const sqlBatchSize = 200

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return "", fmt.Errorf("unknown sql dialect %q", s)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLSink 以 (collection, id) 为主键把资源 JSON 写入一张表
type SQLSink struct {
	db      execer
	dialect Dialect
	table   string
	logger  *zap.Logger
	now     func() time.Time
}

func NewSQLSink(db execer, dialect Dialect, table string, logger *zap.Logger) (*SQLSink, error) {
	if table == "" {
		table = "resources"
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLSink{db: db, dialect: dialect, table: table, logger: logger, now: time.Now}, nil
}

func (s *SQLSink) Name() string { return "sql-" + string(s.dialect) }

func (s *SQLSink) EnsureTable(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case Postgres:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
	collection VARCHAR(128) NOT NULL,
	id VARCHAR(64) NOT NULL,
	version BIGINT NOT NULL,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`, s.table)
	default:
		ddl = fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` (\n"+
			"\tcollection VARCHAR(128) NOT NULL,\n"+
			"\tid VARCHAR(64) NOT NULL,\n"+
			"\tversion BIGINT NOT NULL,\n"+
			"\tbody JSON NOT NULL,\n"+
			"\tupdated_at DATETIME(6) NOT NULL,\n"+
			"\tPRIMARY KEY (collection, id)\n"+
			")", s.table)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	s.logger.Info("sql sink table ready", zap.String("table", s.table), zap.String("dialect", string(s.dialect)))
	return nil
}

func (s *SQLSink) Write(ctx context.Context, collection string, resources []platform.Resource) error {
	now := s.now().UTC()
	var rows [][]any
	for _, r := range resources {
		if r.ID() == "" {
			continue
		}
		body, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode resource %s: %w", r.ID(), err)
		}
		rows = append(rows, []any{collection, r.ID(), r.Version(), string(body), now})
	}

	for start := 0; start < len(rows); start += sqlBatchSize {
		end := start + sqlBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := s.upsertStatement(rows[start:end])
		if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert into %s: %w", s.table, err)
		}
	}
	s.logger.Debug("sql upsert completed", zap.String("table", s.table), zap.String("collection", collection), zap.Int("rows", len(rows)))
	return nil
}

func (s *SQLSink) upsertStatement(rows [][]any) (string, []any) {
	const columns = 5
	var b strings.Builder
	args := make([]any, 0, len(rows)*columns)

	if s.dialect == Postgres {
		fmt.Fprintf(&b, `INSERT INTO "%s" (collection, id, version, body, updated_at) VALUES `, s.table)
	} else {
		fmt.Fprintf(&b, "INSERT INTO `%s` (collection, id, version, body, updated_at) VALUES ", s.table)
	}

	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < columns; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			if s.dialect == Postgres {
				fmt.Fprintf(&b, "$%d", i*columns+j+1)
			} else {
				b.WriteByte('?')
			}
		}
		b.WriteByte(')')
		args = append(args, row...)
	}

	if s.dialect == Postgres {
		b.WriteString(" ON CONFLICT (collection, id) DO UPDATE SET version = EXCLUDED.version, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at")
	} else {
		b.WriteString(" ON DUPLICATE KEY UPDATE version = VALUES(version), body = VALUES(body), updated_at = VALUES(updated_at)")
	}
	return b.String(), args
}

func (s *SQLSink) Close() error { return nil }
