// Package kafka publishes episode events to a Kafka topic.
//
// Messages are keyed by group id, so partition ordering within a group
// mirrors the ingestion queue's per-group ordering.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/graphmemco/graphmem/pkg/eventstream"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "graphmem.episodes"

// Config holds Kafka publisher configuration.
type Config struct {
	// Brokers is the list of bootstrap broker addresses. Required.
	Brokers []string

	// Topic is the topic to publish to. Defaults to DefaultTopic.
	Topic string
}

// Publisher writes episode events to Kafka.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &Publisher{writer: writer}, nil
}

// PublishEpisode marshals the event and writes it keyed by group id.
func (p *Publisher) PublishEpisode(ctx context.Context, event *eventstream.EpisodeIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling episode event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.GroupID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("writing episode event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
