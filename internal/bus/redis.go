package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// RedisConfig holds connection parameters for the Redis bus.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	Channel    string
}

// RedisBus publishes accepted opportunities as JSON envelopes on a Redis
// Pub/Sub channel, for executors running out of process.
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBus connects to Redis, pings it to verify connectivity, and
// returns the bus.
func NewRedisBus(ctx context.Context, cfg RedisConfig) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("bus: redis ping: %w", err)
	}

	channel := cfg.Channel
	if channel == "" {
		channel = "opportunities"
	}
	return &RedisBus{rdb: rdb, channel: channel}, nil
}

// Publish implements domain.OpportunityBus.
func (b *RedisBus) Publish(ctx context.Context, o domain.Opportunity) error {
	payload, err := json.Marshal(NewEnvelope(o))
	if err != nil {
		return fmt.Errorf("bus: marshal opportunity %s: %w", o.ID, err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("bus: publish %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe creates a Pub/Sub subscription on the bus channel and returns a
// read-only channel of decoded envelopes. The subscription closes when the
// context is cancelled; the returned channel is closed at that point too.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Envelope, error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)

	// Confirm the subscription before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("bus: subscribe %s: %w", b.channel, err)
	}

	out := make(chan Envelope, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the underlying Redis connection.
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}

var _ domain.OpportunityBus = (*RedisBus)(nil)
