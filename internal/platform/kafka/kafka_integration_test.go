//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/platform/config"
	"equilibrium/internal/platform/kafka"
	id "equilibrium/pkg/domain"
	"equilibrium/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	brokers []string
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.brokers = containers.GetManager().GetRedpanda(s.T()).Brokers
}

func (s *ProducerSuite) TestPublishAndConsume() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "placement-events-" + id.NewEventID().String()[:8]
	producer, err := kafka.NewProducer(config.Kafka{Brokers: s.brokers, Topic: topic})
	s.Require().NoError(err)
	defer producer.Close()

	s.Require().NoError(producer.EnsureTopic(ctx))
	s.Require().NoError(producer.EnsureTopic(ctx), "existing topic is fine")
	s.Require().NoError(producer.Ping(ctx))

	member := id.NewMemberID()
	events := []*models.OutboxEvent{
		{ID: id.NewEventID(), AggregateID: member, Type: models.EventPlacementCompleted, Payload: []byte(`{"n":1}`), CreatedAt: time.Now()},
		{ID: id.NewEventID(), AggregateID: member, Type: models.EventBonusCredited, Payload: []byte(`{"n":2}`), CreatedAt: time.Now()},
	}
	s.Require().NoError(producer.Publish(ctx, events))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var got []*kgo.Record
	for len(got) < len(events) {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		got = append(got, fetches.Records()...)
	}
	s.Equal(`{"n":1}`, string(got[0].Value), "same key keeps commit order")
	s.Equal(`{"n":2}`, string(got[1].Value))
	s.Equal(member.String(), string(got[0].Key))
}
