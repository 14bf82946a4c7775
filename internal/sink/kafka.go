package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"demotools/internal/platform"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter kafka.Writer 的最小接口
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 每个资源一条消息，key 为资源 id，header collection 标明类别
type KafkaSink struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) (*KafkaSink, error) {
	var addrs []string
	for _, b := range brokers {
		for _, a := range strings.Split(b, ",") {
			if a = strings.TrimSpace(a); a != "" {
				addrs = append(addrs, a)
			}
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("kafka sink needs at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sink needs a topic")
	}
	return newKafkaSinkWith(&kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, logger), nil
}

func newKafkaSinkWith(w messageWriter, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSink{writer: w, logger: logger}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, collection string, resources []platform.Resource) error {
	msgs := make([]kafka.Message, 0, len(resources))
	for _, r := range resources {
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode resource %s: %w", r.ID(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(r.ID()),
			Value:   value,
			Headers: []kafka.Header{{Key: "collection", Value: []byte(collection)}},
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d messages: %w", len(msgs), err)
	}
	s.logger.Debug("published resources", zap.String("collection", collection), zap.Int("count", len(msgs)))
	return nil
}

func (s *KafkaSink) Close() error { return s.writer.Close() }
