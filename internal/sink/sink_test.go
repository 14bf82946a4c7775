package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"demotools/internal/database"
	"demotools/internal/metrics"
	"demotools/internal/platform"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleResources() []platform.Resource {
	return []platform.Resource{
		{"id": "a", "version": float64(1), "key": "ka"},
		{"key": "no-id"},
		{"id": "b", "version": float64(3)},
	}
}

type fakeBulkWriter struct {
	models []mongo.WriteModel
	err    error
}

func (f *fakeBulkWriter) BulkWrite(_ context.Context, models []mongo.WriteModel, _ ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	f.models = append(f.models, models...)
	if f.err != nil {
		return nil, f.err
	}
	return &mongo.BulkWriteResult{UpsertedCount: int64(len(models))}, nil
}

func TestMongoSink_Write(t *testing.T) {
	fake := &fakeBulkWriter{}
	var gotCollection string
	s := &MongoSink{
		collection: func(name string) bulkWriter { gotCollection = name; return fake },
		logger:     zap.NewNop(),
		now:        func() time.Time { return fixedNow },
	}

	require.NoError(t, s.Write(context.Background(), "products", sampleResources()))
	assert.Equal(t, "products", gotCollection)
	require.Len(t, fake.models, 2)

	first := fake.models[0].(*mongo.UpdateOneModel)
	assert.Equal(t, bson.M{"_id": "a"}, first.Filter)
	assert.True(t, *first.Upsert)
	update := first.Update.(bson.M)
	assert.Equal(t, "ka", update["$set"].(bson.M)["key"])
	assert.Equal(t, fixedNow, update["$setOnInsert"].(bson.M)["created_at"])
}

func TestMongoSink_WriteError(t *testing.T) {
	boom := errors.New("no primary")
	s := &MongoSink{
		collection: func(string) bulkWriter { return &fakeBulkWriter{err: boom} },
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	assert.ErrorIs(t, s.Write(context.Background(), "products", sampleResources()), boom)
}

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls []execCall
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query, args})
	return nil, nil
}

func TestSQLSink_Statements(t *testing.T) {
	tests := []struct {
		dialect   Dialect
		wantQuery string
	}{
		{
			dialect:   MySQL,
			wantQuery: "INSERT INTO `ct_resources` (collection, id, version, body, updated_at) VALUES (?, ?, ?, ?, ?), (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE version = VALUES(version), body = VALUES(body), updated_at = VALUES(updated_at)",
		},
		{
			dialect:   Postgres,
			wantQuery: `INSERT INTO "ct_resources" (collection, id, version, body, updated_at) VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10) ON CONFLICT (collection, id) DO UPDATE SET version = EXCLUDED.version, body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			db := &fakeExecer{}
			s, err := NewSQLSink(db, tt.dialect, "ct_resources", zap.NewNop())
			require.NoError(t, err)
			s.now = func() time.Time { return fixedNow }

			require.NoError(t, s.EnsureTable(context.Background()))
			require.NoError(t, s.Write(context.Background(), "products", sampleResources()))

			require.Len(t, db.calls, 2)
			assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS")
			assert.Equal(t, tt.wantQuery, db.calls[1].query)
			assert.Equal(t, []any{"products", "a", int64(1), `{"id":"a","key":"ka","version":1}`, fixedNow}, db.calls[1].args[:5])
		})
	}
}

func TestSQLSink_Batches(t *testing.T) {
	db := &fakeExecer{}
	s, err := NewSQLSink(db, MySQL, "", zap.NewNop())
	require.NoError(t, err)

	resources := make([]platform.Resource, 450)
	for i := range resources {
		resources[i] = platform.Resource{"id": fmt.Sprintf("id-%d", i)}
	}
	require.NoError(t, s.Write(context.Background(), "products", resources))
	assert.Len(t, db.calls, 3)
}

func TestNewSQLSink_RejectsBadTable(t *testing.T) {
	_, err := NewSQLSink(&fakeExecer{}, MySQL, "x; DROP TABLE y", nil)
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}

type fakeKafkaWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink_Write(t *testing.T) {
	w := &fakeKafkaWriter{}
	s := newKafkaSinkWith(w, zap.NewNop())

	require.NoError(t, s.Write(context.Background(), "categories", sampleResources()[:1]))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "a", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"id":"a","version":1,"key":"ka"}`, string(w.msgs[0].Value))
	assert.Equal(t, []kafka.Header{{Key: "collection", Value: []byte("categories")}}, w.msgs[0].Headers)

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSink_Validation(t *testing.T) {
	_, err := NewKafkaSink(nil, "t", nil)
	assert.Error(t, err)
	_, err = NewKafkaSink([]string{"localhost:9092"}, "", nil)
	assert.Error(t, err)
	s, err := NewKafkaSink([]string{"k1:9092, k2:9092"}, "ct.resources", nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

type failingSink struct{ err error }

func (f failingSink) Name() string { return "failing" }
func (f failingSink) Write(context.Context, string, []platform.Resource) error {
	return f.err
}
func (f failingSink) Close() error { return nil }

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	reg := metrics.NewRegistry()
	w := &fakeKafkaWriter{}
	boom := errors.New("down")
	m := NewMulti(zap.NewNop(), reg, failingSink{err: boom}, newKafkaSinkWith(w, nil))

	err := m.Write(context.Background(), "products", sampleResources()[:1])
	assert.ErrorIs(t, err, boom)
	assert.Len(t, w.msgs, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.SinkWrites.WithLabelValues("kafka")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.SinkErrors.WithLabelValues("failing")))
}

func TestBuild_RequiresConnections(t *testing.T) {
	dbs, err := database.New(context.Background(), database.Config{})
	require.NoError(t, err)

	_, err = Build(context.Background(), Config{Mongo: MongoConfig{Enabled: true}}, dbs, nil, nil)
	assert.Error(t, err)

	m, err := Build(context.Background(), Config{}, dbs, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, m.Len())
}
