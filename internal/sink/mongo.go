package sink

import (
	"context"
	"fmt"
	"time"

	"demotools/internal/platform"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type bulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// MongoSink 按资源 id 批量 upsert，每个 collection 对应一个 Mongo 集合
type MongoSink struct {
	collection func(name string) bulkWriter
	logger     *zap.Logger
	now        func() time.Time
}

func NewMongoSink(db *mongo.Database, logger *zap.Logger) *MongoSink {
	return &MongoSink{
		collection: func(name string) bulkWriter { return db.Collection(name) },
		logger:     logger,
		now:        time.Now,
	}
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Write(ctx context.Context, collection string, resources []platform.Resource) error {
	models := upsertModels(resources, s.now())
	if len(models) == 0 {
		return nil
	}

	opts := options.BulkWrite().SetOrdered(false)
	result, err := s.collection(collection).BulkWrite(ctx, models, opts)
	if err != nil {
		return fmt.Errorf("failed to bulk upsert into %s: %w", collection, err)
	}

	s.logger.Debug("bulk upsert completed",
		zap.String("collection", collection),
		zap.Int64("matched", result.MatchedCount),
		zap.Int64("upserted", result.UpsertedCount),
		zap.Int64("modified", result.ModifiedCount),
	)
	return nil
}

func (s *MongoSink) Close() error { return nil }

// upsertModels 跳过没有 id 的资源
func upsertModels(resources []platform.Resource, now time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(resources))
	for _, r := range resources {
		id := r.ID()
		if id == "" {
			continue
		}
		set := bson.M{"updated_at": now}
		for k, v := range r {
			if k == "_id" {
				continue
			}
			set[k] = v
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{
				"$set":         set,
				"$setOnInsert": bson.M{"created_at": now},
			}).
			SetUpsert(true))
	}
	return models
}
