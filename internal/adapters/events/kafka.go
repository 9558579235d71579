package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/tradeforge/insight-mining-service/internal/contracts"
)

// KafkaConsumer reads canonical event envelopes from the analytics ingest
// topic using a consumer group, so multiple worker replicas share partitions.
type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID, topic string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: time.Second,
		}),
	}
}

func (c *KafkaConsumer) Receive(ctx context.Context) (*contracts.EventEnvelope, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	var envelope contracts.EventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	return &envelope, nil
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// KafkaDLQPublisher writes failed envelopes to the dead-letter topic keyed
// by the original partition key, preserving per-entity ordering.
type KafkaDLQPublisher struct {
	writer *kafka.Writer
}

func NewKafkaDLQPublisher(brokers []string, topic string) *KafkaDLQPublisher {
	return &KafkaDLQPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaDLQPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode dlq record: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.OriginalEvent.PartitionKey),
		Value: payload,
	})
}

func (p *KafkaDLQPublisher) Close() error {
	return p.writer.Close()
}
