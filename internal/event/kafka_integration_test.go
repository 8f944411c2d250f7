//go:build integration

package event_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"visitors/internal/event"
	"visitors/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redpanda = mgr.GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) consume(ctx context.Context, topic string, want int) []string {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	var values []string
	deadline := time.Now().Add(30 * time.Second)
	for len(values) < want && time.Now().Before(deadline) {
		pollCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		fetches := client.PollFetches(pollCtx)
		cancel()
		fetches.EachRecord(func(r *kgo.Record) {
			values = append(values, string(r.Value))
		})
	}
	return values
}

func (s *KafkaPublisherSuite) TestPublishDeliversMessages() {
	const topic = "visitor-events-publish"
	s.redpanda.CreateTopic(s.T(), topic)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, err := event.NewKafkaPublisher([]string{s.redpanda.Broker}, log, nil)
	s.Require().NoError(err)
	defer publisher.Close()

	ctx := context.Background()
	publisher.Publish(ctx, topic, "Visitor fetched: 1")
	publisher.Publish(ctx, topic, "Visitor deleted with ID: 1")
	s.Require().NoError(publisher.Flush(ctx))

	values := s.consume(ctx, topic, 2)
	s.ElementsMatch([]string{"Visitor fetched: 1", "Visitor deleted with ID: 1"}, values)
}

func (s *KafkaPublisherSuite) TestConsumerReadsPublishedEvents() {
	const topic = "visitor-events-consume"
	s.redpanda.CreateTopic(s.T(), topic)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher, err := event.NewKafkaPublisher([]string{s.redpanda.Broker}, log, nil)
	s.Require().NoError(err)
	defer publisher.Close()

	consumer, err := event.NewConsumer([]string{s.redpanda.Broker}, topic, "visitor-app-test", log)
	s.Require().NoError(err)

	done := make(chan error, 1)
	go func() { done <- consumer.Run(context.Background()) }()

	ctx := context.Background()
	publisher.Publish(ctx, topic, `{"id":1,"name":"Ada"}`)
	s.Require().NoError(publisher.Flush(ctx))

	// Give the group consumer time to join and poll before shutting down.
	time.Sleep(5 * time.Second)
	consumer.Close()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(30 * time.Second):
		s.Fail("consumer did not stop after cancellation")
	}
}
