package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
)

// Producer publishes keyed records to a single topic
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewProducer creates a synchronous producer that waits for all in-sync replicas
func NewProducer(id string, brokers []string, topic string) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = id
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return NewProducerFrom(producer, topic), nil
}

// NewProducerFrom wraps an existing sarama producer
func NewProducerFrom(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// Topic returns the destination topic
func (p *Producer) Topic() string { return p.topic }

// Publish sends one record. The context only guards against sending after
// cancellation since sarama's sync producer is not context aware.
func (p *Producer) Publish(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.topic,
		Value:     sarama.ByteEncoder(value),
		Timestamp: time.Now(),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	return nil
}

// Close shuts down the underlying producer
func (p *Producer) Close() error {
	return p.producer.Close()
}
