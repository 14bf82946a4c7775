package database

import (
	"context"
	"testing"
	"time"

	"demotools/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	mysql := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "ct"}
	assert.Equal(t, "u:p@tcp(db:3306)/ct?charset=utf8mb4&parseTime=True&loc=UTC", mysql.DSN())

	pg := PostgreSQLConfig{Host: "pg", Port: 5432, Username: "u", Password: "p@ss", Database: "ct"}
	assert.Equal(t, "postgres://u:p%40ss@pg:5432/ct?sslmode=disable", pg.DSN())
}

func TestNew_NothingEnabled(t *testing.T) {
	dbs, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.NoError(t, dbs.Ping(context.Background()))

	_, err = dbs.RequireMySQL()
	assert.Error(t, err)
	_, err = dbs.RequirePostgreSQL()
	assert.Error(t, err)
	_, err = dbs.RequireMongoDB()
	assert.Error(t, err)

	assert.NoError(t, dbs.Close())
}

func TestRequire_NilManager(t *testing.T) {
	var dbs *Databases
	_, err := dbs.RequireMongoDB()
	assert.Error(t, err)
}

func TestConfigFromAppConfig(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Database.MongoDB.Enabled = true

	dc := ConfigFromAppConfig(cfg, nil)
	assert.True(t, dc.MongoDB.Enabled)
	assert.Equal(t, 30*time.Minute, dc.MongoDB.MaxIdleTime)
	assert.Equal(t, 5*time.Minute, dc.MySQL.ConnMaxLifetime)
	assert.Equal(t, "disable", dc.PostgreSQL.SSLMode)
}
