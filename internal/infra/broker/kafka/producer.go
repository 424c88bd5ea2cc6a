package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

// Producer publishes booking lifecycle events (booking.created,
// booking.cancelled, booking.status_changed) to Kafka. Sends are synchronous:
// a nil error means every in-sync replica acknowledged the message.
type Producer struct {
	sync sarama.SyncProducer
}

// NewProducer connects a sync producer with full-acknowledgement, idempotent
// delivery. Pass a nil config to get the project defaults.
func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.ClientID = "stayhub"
		cfg.Producer.Compression = sarama.CompressionSnappy
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	// Idempotent delivery caps in-flight requests at one.
	cfg.Net.MaxOpenRequests = 1
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

// Publish sends one event payload. The key is the booking aggregate ID, so
// all events of a booking land on the same partition in order.
func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	_, _, err := p.sync.SendMessage(msg)
	return err
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}
