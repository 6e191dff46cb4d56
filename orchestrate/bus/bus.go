package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// Publisher sends messages on a named channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, msg Message) error
}

// Receiver waits for the next message on a named channel.
//
// Receive subscribes, waits up to timeout for one message, and unsubscribes.
// It returns ok=false with a nil error when the timeout elapses, and the
// context error when ctx is cancelled first. Messages published while no
// Receive is pending on the channel are not delivered.
type Receiver interface {
	Receive(ctx context.Context, channel string, timeout time.Duration) (msg Message, ok bool, err error)
}

// Bus is a publish/subscribe transport.
type Bus interface {
	Publisher
	Receiver
	Close() error
}

// New builds the transport selected by cfg.Transport. The observer receives
// publish/receive events; nil resolves cfg.Observer from the registry.
func New(ctx context.Context, cfg config.BusConfig, observer observability.Observer) (Bus, error) {
	if observer == nil {
		obs, err := observability.GetObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		observer = obs
	}

	switch cfg.Transport {
	case "", config.TransportMemory:
		return NewMemoryBus(cfg.Memory, observer), nil
	case config.TransportNATS:
		return NewNATSBus(ctx, cfg.NATS, observer)
	case config.TransportRedis:
		return NewRedisBus(ctx, cfg.Redis, observer)
	case config.TransportAMQP:
		return NewAMQPBus(cfg.AMQP, observer)
	default:
		return nil, fmt.Errorf("unknown bus transport: %s", cfg.Transport)
	}
}

// wait returns a context bounded by timeout; a non-positive timeout means a
// single non-blocking check.
func wait(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return context.WithTimeout(ctx, timeout)
}
