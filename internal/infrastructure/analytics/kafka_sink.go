package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

// MessageWriter is the subset of *kafka.Writer the sink uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes analytics rows to Kafka. Messages are keyed by event id so
// a compacted topic or a deduplicating consumer keeps each event once.
type KafkaSink struct {
	writer      MessageWriter
	eventsTopic string
	logsTopic   string
	now         func() time.Time
	logger      zerolog.Logger
}

var _ ports.AnalyticsSink = (*KafkaSink)(nil)

// NewKafkaWriter creates a writer that routes by message topic
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewKafkaSink writes events to {namespace}{topic} and sync logs to {namespace}{topic}.sync_logs
func NewKafkaSink(writer MessageWriter, namespace, topic string, logger zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		writer:      writer,
		eventsTopic: namespace + topic,
		logsTopic:   namespace + topic + ".sync_logs",
		now:         time.Now,
		logger:      logger.With().Str("component", "kafka_sink").Logger(),
	}
}

func (s *KafkaSink) InsertProductEvents(ctx context.Context, events []domain.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}
	insertedAt := s.now()
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		ev.InsertedAt = insertedAt
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", ev.EventID, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: s.eventsTopic,
			Key:   []byte(ev.EventID),
			Value: value,
			Time:  ev.Timestamp,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.EventType)},
				{Key: "store_id", Value: []byte(ev.StoreID)},
			},
		})
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish product events: %w", err)
	}
	s.logger.Debug().Int("events", len(msgs)).Str("topic", s.eventsTopic).Msg("Published product events")
	return nil
}

func (s *KafkaSink) InsertSyncLog(ctx context.Context, log *domain.SyncLog) error {
	value, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to encode sync log: %w", err)
	}
	msg := kafka.Message{
		Topic: s.logsTopic,
		Key:   []byte(log.RunID + "_" + log.StoreID),
		Value: value,
		Time:  log.FinishedAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish sync log: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
