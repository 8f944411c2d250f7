// Package event delivers visitor change notifications over Kafka. Delivery
// is best-effort: publish failures are logged and never reach the caller.
package event

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"visitors/internal/platform/metrics"
)

// KafkaPublisher produces visitor events asynchronously. The produce
// callback logs failures; callers fire and forget.
type KafkaPublisher struct {
	client  *kgo.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewKafkaPublisher(brokers []string, logger *slog.Logger, m *metrics.Metrics) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, logger: logger, metrics: m}, nil
}

// Publish produces message to topic. The record key is a fresh uuid so
// events spread across partitions.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, message string) {
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(uuid.NewString()),
		Value: []byte(message),
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("failed to publish visitor event", "topic", topic, "error", err)
			return
		}
		p.logger.Info("produced visitor event", "topic", topic, "message", message)
		if p.metrics != nil {
			p.metrics.EventsPublished.Inc()
		}
	})
}

// Flush waits for buffered records to be delivered, bounded by ctx.
func (p *KafkaPublisher) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}

// Close flushes and releases the Kafka client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct {
	Logger *slog.Logger
}

func (p NopPublisher) Publish(_ context.Context, topic, message string) {
	if p.Logger != nil {
		p.Logger.Debug("event publishing disabled", "topic", topic, "message", message)
	}
}
