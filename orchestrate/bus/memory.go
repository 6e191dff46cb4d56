package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("bus closed")

// MemoryBus is an in-process transport. Publish fans a message out to every
// Receive currently pending on the channel and never blocks; a subscriber
// whose buffer is full loses the message.
type MemoryBus struct {
	bufferSize int
	observer   observability.Observer
	metrics    *Metrics

	mu          sync.RWMutex
	subscribers map[string]map[*MessageChannel[Message]]struct{}
	closed      bool
}

func NewMemoryBus(cfg config.MemoryConfig, observer observability.Observer) *MemoryBus {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = config.DefaultMemoryConfig().BufferSize
	}

	return &MemoryBus{
		bufferSize:  cfg.BufferSize,
		observer:    observer,
		metrics:     NewMetrics(),
		subscribers: make(map[string]map[*MessageChannel[Message]]struct{}),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, channel string, msg Message) error {
	msg = msg.stamp(channel)

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	delivered := 0
	for sub := range b.subscribers[channel] {
		if sub.TrySend(msg) {
			delivered++
			continue
		}
		b.metrics.RecordDropped(1)
		emit(ctx, b.observer, EventDropped, "bus.memory", map[string]any{
			"channel": channel,
			"id":      msg.ID,
		})
	}

	b.metrics.RecordPublished(1)
	emit(ctx, b.observer, EventPublish, "bus.memory", map[string]any{
		"channel":     channel,
		"type":        msg.Type,
		"subscribers": delivered,
	})
	return nil
}

func (b *MemoryBus) Receive(ctx context.Context, channel string, timeout time.Duration) (Message, bool, error) {
	sub, err := b.subscribe(channel)
	if err != nil {
		return Message{}, false, err
	}
	defer b.unsubscribe(channel, sub)

	waitCtx, cancel := wait(ctx, timeout)
	defer cancel()

	msg, err := sub.Receive(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		b.metrics.RecordTimeout(1)
		emit(ctx, b.observer, EventTimeout, "bus.memory", map[string]any{
			"channel": channel,
			"timeout": timeout,
		})
		return Message{}, false, nil
	}

	b.metrics.RecordReceived(1)
	emit(ctx, b.observer, EventReceive, "bus.memory", map[string]any{
		"channel": channel,
		"type":    msg.Type,
	})
	return msg, true, nil
}

// Subscribers reports the number of pending receives on channel.
func (b *MemoryBus) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[channel])
}

func (b *MemoryBus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subscribers {
		for sub := range subs {
			sub.Close()
		}
	}
	b.subscribers = nil
	return nil
}

func (b *MemoryBus) subscribe(channel string) (*MessageChannel[Message], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := NewMessageChannel[Message](b.bufferSize)
	subs, exists := b.subscribers[channel]
	if !exists {
		subs = make(map[*MessageChannel[Message]]struct{})
		b.subscribers[channel] = subs
	}
	subs[sub] = struct{}{}
	return sub, nil
}

func (b *MemoryBus) unsubscribe(channel string, sub *MessageChannel[Message]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub.Close()
	if b.subscribers == nil {
		return
	}
	delete(b.subscribers[channel], sub)
	if len(b.subscribers[channel]) == 0 {
		delete(b.subscribers, channel)
	}
}

func (b *MemoryBus) String() string {
	return fmt.Sprintf("MemoryBus{buffer: %d}", b.bufferSize)
}
