// Package kafka publishes outbox events with franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"equilibrium/internal/placement/models"
	"equilibrium/internal/platform/config"
)

const (
	headerEventID   = "event_id"
	headerEventType = "event_type"

	defaultPartitions        = 3
	defaultReplicationFactor = 1
)

// Producer writes events to one topic, keyed by aggregate id so every event
// about a member lands on the same partition in commit order.
type Producer struct {
	client *kgo.Client
	topic  string
}

// NewProducer connects to the configured brokers. It returns (nil, nil) when
// no brokers are configured.
func NewProducer(cfg config.Kafka) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic}, nil
}

// EnsureTopic creates the topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	admin := kadm.NewClient(p.client)
	resp, err := admin.CreateTopics(ctx, defaultPartitions, defaultReplicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp.Sorted() {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Ping checks that at least one broker answers.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Publish produces the batch synchronously and fails if any record fails.
func (p *Producer) Publish(ctx context.Context, events []*models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	records := make([]*kgo.Record, len(events))
	for i, e := range events {
		records[i] = Record(p.topic, e)
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// Record maps an outbox event to a Kafka record.
func Record(topic string, e *models.OutboxEvent) *kgo.Record {
	return &kgo.Record{
		Topic:     topic,
		Key:       []byte(e.AggregateID.String()),
		Value:     e.Payload,
		Timestamp: e.CreatedAt,
		Headers: []kgo.RecordHeader{
			{Key: headerEventID, Value: []byte(e.ID.String())},
			{Key: headerEventType, Value: []byte(e.Type)},
		},
	}
}
