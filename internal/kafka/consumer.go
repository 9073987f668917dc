package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Shopify/sarama"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// MessageProcessor is a function that processes batches of waveform messages
type MessageProcessor func([]models.WaveformMessage) error

// Consumer represents a Kafka consumer of waveform windows
type Consumer struct {
	id         string
	config     config.KafkaConfig
	consumer   sarama.ConsumerGroup
	processor  MessageProcessor
	logger     zerolog.Logger
	msgBuffer  []models.WaveformMessage
	bufferLock sync.Mutex
	lastFlush  time.Time
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(id string, cfg config.KafkaConfig, processor MessageProcessor, logger zerolog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = id
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin

	// Waveform windows are large; fetch in bigger chunks
	saramaConfig.Consumer.Fetch.Min = 1
	saramaConfig.Consumer.Fetch.Default = 4 * 1024 * 1024
	saramaConfig.Consumer.MaxWaitTime = 250 * time.Millisecond

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return newConsumer(id, cfg, group, processor, logger), nil
}

func newConsumer(id string, cfg config.KafkaConfig, group sarama.ConsumerGroup, processor MessageProcessor, logger zerolog.Logger) *Consumer {
	return &Consumer{
		id:        id,
		config:    cfg,
		consumer:  group,
		processor: processor,
		logger:    logger.With().Str("component", "kafka_consumer").Str("consumer_id", id).Logger(),
		msgBuffer: make([]models.WaveformMessage, 0, cfg.BatchSize),
		lastFlush: time.Now(),
	}
}

// Consume starts consuming messages from Kafka until ctx is cancelled
func (c *Consumer) Consume(ctx context.Context) error {
	defer c.consumer.Close()

	errorChan := make(chan error, 1)
	go func() {
		for err := range c.consumer.Errors() {
			c.logger.Error().Err(err).Msg("consumer group error")
			select {
			case errorChan <- err:
			default:
			}
		}
	}()

	handler := &consumerGroupHandler{
		consumer: c,
		ctx:      ctx,
	}

	// Setup periodic flushing
	flushTicker := time.NewTicker(c.config.BatchTimeout)
	defer flushTicker.Stop()

	go func() {
		for {
			select {
			case now := <-flushTicker.C:
				c.flushIfStale(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Consume
	for {
		select {
		case <-ctx.Done():
			c.flushBuffer()
			return nil
		case err := <-errorChan:
			return err
		default:
			if err := c.consumer.Consume(ctx, []string{c.config.Topic}, handler); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, sarama.ErrClosedConsumerGroup) {
					c.flushBuffer()
					return nil
				}
				return err
			}
		}
	}
}

// addMessage adds a message to the buffer and flushes if needed
func (c *Consumer) addMessage(msg models.WaveformMessage) {
	c.bufferLock.Lock()
	defer c.bufferLock.Unlock()

	c.msgBuffer = append(c.msgBuffer, msg)

	// Flush if buffer is full
	if len(c.msgBuffer) >= c.config.BatchSize {
		c.flushBufferLocked()
	}
}

// flushBuffer flushes the message buffer
func (c *Consumer) flushBuffer() {
	c.bufferLock.Lock()
	defer c.bufferLock.Unlock()

	c.flushBufferLocked()
}

// flushIfStale flushes a partial batch once BatchTimeout has passed since the
// last flush. A size-triggered flush restarts the wait.
func (c *Consumer) flushIfStale(now time.Time) {
	c.bufferLock.Lock()
	defer c.bufferLock.Unlock()

	if now.Sub(c.lastFlush) < c.config.BatchTimeout {
		return
	}
	c.flushBufferLocked()
}

// flushBufferLocked hands the buffered messages to the processor while holding the lock
func (c *Consumer) flushBufferLocked() {
	if len(c.msgBuffer) == 0 {
		return
	}

	messages := make([]models.WaveformMessage, len(c.msgBuffer))
	copy(messages, c.msgBuffer)

	c.msgBuffer = c.msgBuffer[:0]
	c.lastFlush = time.Now()

	if err := c.processor(messages); err != nil {
		c.logger.Error().Err(err).Int("messages", len(messages)).Msg("error processing messages")
	}
}

// DecodeWaveform parses a Kafka record value into a waveform message. Window
// invariants are checked later by the engine so malformed windows are counted.
func DecodeWaveform(value []byte) (models.WaveformMessage, error) {
	var msg models.WaveformMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return models.WaveformMessage{}, fmt.Errorf("decode waveform message: %w", err)
	}
	return msg, nil
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *Consumer
	ctx      context.Context
}

func (h *consumerGroupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if h.ctx.Err() != nil {
			return h.ctx.Err()
		}

		msg, err := DecodeWaveform(message.Value)
		if err != nil {
			h.consumer.logger.Warn().Err(err).
				Int32("partition", message.Partition).
				Int64("offset", message.Offset).
				Msg("skipping undecodable message")
			session.MarkMessage(message, "")
			continue
		}
		if msg.WindowID == "" {
			msg.WindowID = fmt.Sprintf("%s-%d-%d", message.Topic, message.Partition, message.Offset)
		}
		if msg.CapturedAt.IsZero() {
			msg.CapturedAt = message.Timestamp
		}

		h.consumer.addMessage(msg)
		session.MarkMessage(message, "")
	}
	return nil
}
