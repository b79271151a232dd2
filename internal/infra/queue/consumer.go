package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
	"github.com/kevinnadar22/announce/pkg/logging"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DeadLetterWriter receives messages the handler could not process.
type DeadLetterWriter interface {
	PublishRaw(ctx context.Context, key, value []byte, reason string) error
}

type KafkaConsumer struct {
	reader  MessageReader
	dlq     DeadLetterWriter
	sampler *logging.ErrorSampler
}

func NewKafkaConsumer(brokers []string, topic string, groupID string, dlq DeadLetterWriter) *KafkaConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,    // invalidations are tiny and latency matters
		MaxBytes: 10e6, // 10MB
	})
	slog.Info("Kafka Consumer initialized", "brokers", brokers, "topic", topic, "group", groupID)
	return NewConsumerWithReader(r, dlq)
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r MessageReader, dlq DeadLetterWriter) *KafkaConsumer {
	return &KafkaConsumer{
		reader:  r,
		dlq:     dlq,
		sampler: logging.NewErrorSampler(10),
	}
}

type MessageHandler func(ctx context.Context, event *domain.AnnouncementEvent) error

// Start blocks, handing each event to handler until ctx ends or the reader
// fails. Malformed messages and handler failures go to the DLQ.
func (c *KafkaConsumer) Start(ctx context.Context, handler MessageHandler) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				slog.Error("Error reading kafka message", "error", err)
			}
			break
		}

		var event domain.AnnouncementEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.sampler.Error(slog.Default(), logging.Key(m.Topic, "unmarshal"), "Error unmarshaling announcement event", "error", err)
			metrics.EventsConsumed.WithLabelValues("unknown", "malformed").Inc()
			c.deadLetter(ctx, m, "unknown", err)
			continue
		}

		slog.Debug("Received announcement event", "type", event.Type, "id", event.AnnouncementID, "partition", m.Partition)

		if err := handler(ctx, &event); err != nil {
			slog.Error("Error handling announcement event", "type", event.Type, "id", event.AnnouncementID, "error", err)
			metrics.EventsConsumed.WithLabelValues(event.Type, "failed").Inc()
			c.deadLetter(ctx, m, event.Type, err)
			continue
		}
		metrics.EventsConsumed.WithLabelValues(event.Type, "ok").Inc()
	}
}

func (c *KafkaConsumer) deadLetter(ctx context.Context, m kafka.Message, eventType string, cause error) {
	if c.dlq == nil {
		return
	}
	slog.Info("Publishing failed event to DLQ", "type", eventType, "offset", m.Offset)
	if err := c.dlq.PublishRaw(ctx, m.Key, m.Value, cause.Error()); err != nil {
		slog.Error("Failed to publish to DLQ", "type", eventType, "error", err)
		return
	}
	metrics.DLQMessagesPublished.WithLabelValues(eventType).Inc()
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
