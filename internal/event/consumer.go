package event

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Consumer subscribes to the visitor topic in a consumer group and logs each
// message. It keeps the downstream side of the bus observable without
// coupling the service to any particular reaction.
type Consumer struct {
	client *kgo.Client
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, group string, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, logger: logger}, nil
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch visitor events", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			c.logger.Info("consumed visitor event", "topic", r.Topic, "message", string(r.Value))
		})
	}
}

// Close releases the Kafka client, which unblocks Run.
func (c *Consumer) Close() {
	c.client.Close()
}
