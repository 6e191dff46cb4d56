package bus

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// RedisBus carries messages over Redis pub/sub. Channel names are prefixed
// with the configured Prefix.
type RedisBus struct {
	client   *backend.Client
	prefix   string
	owned    bool
	observer observability.Observer
	metrics  *Metrics
}

// NewRedisBus creates a client for cfg and verifies the server is reachable.
func NewRedisBus(ctx context.Context, cfg config.RedisConfig, observer observability.Observer) (*RedisBus, error) {
	client := backend.NewClient(&backend.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	b := NewRedisBusFromClient(client, cfg.Prefix, observer)
	b.owned = true
	return b, nil
}

// NewRedisBusFromClient wraps an existing client. Close leaves the client open.
func NewRedisBusFromClient(client *backend.Client, prefix string, observer observability.Observer) *RedisBus {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	return &RedisBus{
		client:   client,
		prefix:   prefix,
		observer: observer,
		metrics:  NewMetrics(),
	}
}

func (b *RedisBus) key(channel string) string {
	return b.prefix + channel
}

func (b *RedisBus) Publish(ctx context.Context, channel string, msg Message) error {
	msg = msg.stamp(channel)

	data, err := encode(msg)
	if err != nil {
		return err
	}

	receivers, err := b.client.Publish(ctx, b.key(channel), data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	b.metrics.RecordPublished(1)
	emit(ctx, b.observer, EventPublish, "bus.redis", map[string]any{
		"channel":     channel,
		"type":        msg.Type,
		"subscribers": receivers,
	})
	return nil
}

func (b *RedisBus) Receive(ctx context.Context, channel string, timeout time.Duration) (Message, bool, error) {
	pubsub := b.client.Subscribe(ctx, b.key(channel))
	defer pubsub.Close()

	// Wait for the subscription confirmation so publishes that follow are seen.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		return Message{}, false, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	waitCtx, cancel := wait(ctx, timeout)
	defer cancel()

	select {
	case raw, ok := <-pubsub.Channel():
		if !ok {
			return Message{}, false, fmt.Errorf("subscription to %s closed", channel)
		}

		msg, err := decode([]byte(raw.Payload))
		if err != nil {
			return Message{}, false, err
		}

		b.metrics.RecordReceived(1)
		emit(ctx, b.observer, EventReceive, "bus.redis", map[string]any{
			"channel": channel,
			"type":    msg.Type,
		})
		return msg, true, nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		b.metrics.RecordTimeout(1)
		emit(ctx, b.observer, EventTimeout, "bus.redis", map[string]any{
			"channel": channel,
			"timeout": timeout,
		})
		return Message{}, false, nil
	}
}

func (b *RedisBus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

func (b *RedisBus) Close() error {
	if !b.owned {
		return nil
	}
	return b.client.Close()
}
