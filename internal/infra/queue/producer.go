package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer MessageWriter
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{}, // Hash balancer ensures messages with same key go to same partition
	}
	slog.Info("Kafka Producer initialized", "brokers", brokers, "topic", topic)
	return &KafkaProducer{writer: w, topic: topic}
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w MessageWriter, topic string) *KafkaProducer {
	return &KafkaProducer{writer: w, topic: topic}
}

func (p *KafkaProducer) Publish(ctx context.Context, event *domain.AnnouncementEvent) error {
	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write to kafka", "topic", p.topic, "error", err)
		metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return err
	}

	metrics.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
	slog.Debug("Published announcement event", "type", event.Type, "id", event.AnnouncementID, "language", event.Language)
	return nil
}

// PublishBatch writes all events in one call.
func (p *KafkaProducer) PublishBatch(ctx context.Context, events []domain.AnnouncementEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for i := range events {
		msg, err := toMessage(&events[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		slog.Error("Failed to write batch to kafka", "topic", p.topic, "count", len(msgs), "error", err)
		for _, e := range events {
			metrics.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		}
		return err
	}
	for _, e := range events {
		metrics.EventsPublished.WithLabelValues(e.Type, "ok").Inc()
	}
	return nil
}

// PublishRaw forwards an unprocessable message unchanged, with the failure
// reason in a header.
func (p *KafkaProducer) PublishRaw(ctx context.Context, key, value []byte, reason string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: []kafka.Header{{Key: "error", Value: []byte(reason)}},
	})
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// Key by announcement id so every event for one announcement stays ordered
// on a single partition.
func toMessage(event *domain.AnnouncementEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.Itoa(event.AnnouncementID)),
		Value: payload,
	}, nil
}

// NoopProducer drops events; used when EVENTS_ENABLED is off.
type NoopProducer struct{}

func (NoopProducer) Publish(context.Context, *domain.AnnouncementEvent) error { return nil }

func (NoopProducer) PublishBatch(context.Context, []domain.AnnouncementEvent) error { return nil }

func (NoopProducer) Close() error { return nil }

var (
	_ domain.EventProducer = (*KafkaProducer)(nil)
	_ domain.EventProducer = NoopProducer{}
)
