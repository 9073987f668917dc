// Package broadcast fans detected fault events out to live subscribers.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/config"
	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

// LastEventTTL bounds how long a feeder's latest event stays readable
const LastEventTTL = 24 * time.Hour

// Publisher pushes fault events to real-time consumers
type Publisher interface {
	Publish(ctx context.Context, event models.FaultEvent) error
}

type redisCmdable interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisBroadcaster publishes events on a pub/sub channel and keeps the latest event per feeder
type RedisBroadcaster struct {
	client  redisCmdable
	closer  func() error
	channel string
	logger  zerolog.Logger
}

// NewRedisBroadcaster connects to Redis and verifies it with PING
func NewRedisBroadcaster(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*RedisBroadcaster, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	b := newRedisBroadcaster(rdb, cfg.Channel, logger)
	b.closer = rdb.Close
	return b, nil
}

func newRedisBroadcaster(client redisCmdable, channel string, logger zerolog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  client,
		channel: channel,
		logger:  logger.With().Str("component", "redis_broadcast").Logger(),
	}
}

// Channel returns the pub/sub channel name
func (b *RedisBroadcaster) Channel() string { return b.channel }

// Publish sends the event to subscribers and records it as the feeder's latest
func (b *RedisBroadcaster) Publish(ctx context.Context, event models.FaultEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal fault event: %w", err)
	}

	receivers, err := b.client.Publish(ctx, b.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish fault event: %w", err)
	}

	if event.FeederID != "" {
		if err := b.client.Set(ctx, lastEventKey(event.FeederID), payload, LastEventTTL).Err(); err != nil {
			return fmt.Errorf("store last fault event: %w", err)
		}
	}

	b.logger.Debug().Str("event_id", event.ID).Int64("receivers", receivers).Msg("fault event broadcast")
	return nil
}

// LastEvent returns the most recent event broadcast for a feeder
func (b *RedisBroadcaster) LastEvent(ctx context.Context, feederID string) (models.FaultEvent, bool, error) {
	raw, err := b.client.Get(ctx, lastEventKey(feederID)).Bytes()
	if err == redis.Nil {
		return models.FaultEvent{}, false, nil
	}
	if err != nil {
		return models.FaultEvent{}, false, fmt.Errorf("get last fault event: %w", err)
	}

	var event models.FaultEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return models.FaultEvent{}, false, fmt.Errorf("decode last fault event: %w", err)
	}
	return event, true, nil
}

// Close releases the Redis connection
func (b *RedisBroadcaster) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer()
}

func lastEventKey(feederID string) string {
	return "gridfault:feeder:" + feederID + ":last_event"
}
