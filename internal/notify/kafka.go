package notify

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives export events when no topic is configured.
const DefaultTopic = "ridefare.exports"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by run id.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt ExportCompleted) error {
	body, err := evt.Encode()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.RunID.String()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "ce_type", Value: []byte(EventExportCompleted)},
			{Key: "content-type", Value: []byte("application/cloudevents+json")},
		},
	}
	if err = p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write export event: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}

	return nil
}
