package event

import (
	"context"
	"fmt"
	"time"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultStreamKey is the Redis stream inventory events are mirrored to
const DefaultStreamKey = "kitchen:inventory:events"

// StreamClient is the subset of the go-redis client used by the sink
type StreamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// RedisStreamConfig holds Redis stream sink configuration
type RedisStreamConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64 // approximate cap, 0 means unbounded
}

// RedisStreamSink mirrors domain events onto a Redis stream with XADD
type RedisStreamSink struct {
	client     StreamClient
	serializer *EventSerializer
	stream     string
	maxLen     int64
}

// NewRedisStreamSink connects to Redis and returns a sink
func NewRedisStreamSink(ctx context.Context, cfg RedisStreamConfig, serializer *EventSerializer) (*RedisStreamSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStreamSinkWithClient(client, cfg.Stream, cfg.MaxLen, serializer), nil
}

// NewRedisStreamSinkWithClient creates a sink around an existing client
func NewRedisStreamSinkWithClient(client StreamClient, stream string, maxLen int64, serializer *EventSerializer) *RedisStreamSink {
	if stream == "" {
		stream = DefaultStreamKey
	}
	if serializer == nil {
		serializer = NewInventoryEventSerializer()
	}
	return &RedisStreamSink{
		client:     client,
		serializer: serializer,
		stream:     stream,
		maxLen:     maxLen,
	}
}

// Name implements shared.EventSink
func (s *RedisStreamSink) Name() string {
	return "redis:" + s.stream
}

// Stream returns the stream key
func (s *RedisStreamSink) Stream() string {
	return s.stream
}

// Append implements shared.EventSink
func (s *RedisStreamSink) Append(ctx context.Context, event shared.DomainEvent) error {
	env, err := s.serializer.Wrap(event)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"event_id":       env.ID.String(),
			"event_type":     env.Type,
			"aggregate_type": env.AggregateType,
			"aggregate_key":  env.AggregateKey,
			"occurred_at":    env.OccurredAt.UTC().Format(time.RFC3339Nano),
			"payload":        string(env.Payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append event %s to stream %s: %w", env.Type, s.stream, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}

var _ shared.EventSink = (*RedisStreamSink)(nil)
