package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/ride-tracking/internal/models"
)

// DefaultTopic carries one message per accepted ride lookup, keyed by ride id.
const DefaultTopic = "ride-tracking-lookups"

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{Addr: kafka.TCP(brokers...), Topic: topic, Balancer: &kafka.Hash{}, Async: false}
	return &KafkaProducer{writer: w, timeout: 2 * time.Second}
}

// NewKafkaProducerWithWriter is used by tests.
func NewKafkaProducerWithWriter(w MessageWriter) *KafkaProducer {
	return &KafkaProducer{writer: w, timeout: 2 * time.Second}
}

// Record publishes one lookup event.
func (k *KafkaProducer) Record(ctx context.Context, l models.Lookup) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(l.RideID), Value: b, Time: l.FetchedAt})
}

func (k *KafkaProducer) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// DecodeLookup parses a message written by Record.
func DecodeLookup(m kafka.Message) (models.Lookup, error) {
	var l models.Lookup
	err := json.Unmarshal(m.Value, &l)
	return l, err
}
