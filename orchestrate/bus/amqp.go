package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// AMQPBus carries messages over RabbitMQ. Every bus channel maps to a fanout
// exchange named Prefix+channel; each Receive binds a fresh exclusive,
// auto-delete queue to it for the duration of the wait.
type AMQPBus struct {
	conn     *amqp.Connection
	prefix   string
	observer observability.Observer
	metrics  *Metrics

	mu       sync.Mutex
	publish  *amqp.Channel
	declared map[string]bool
}

func NewAMQPBus(cfg config.AMQPConfig, observer observability.Observer) (*AMQPBus, error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &AMQPBus{
		conn:     conn,
		prefix:   cfg.Prefix,
		observer: observer,
		metrics:  NewMetrics(),
		publish:  ch,
		declared: make(map[string]bool),
	}, nil
}

func (b *AMQPBus) exchange(channel string) string {
	return b.prefix + channel
}

func declareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeFanout, false, true, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	return nil
}

func (b *AMQPBus) Publish(ctx context.Context, channel string, msg Message) error {
	msg = msg.stamp(channel)

	data, err := encode(msg)
	if err != nil {
		return err
	}

	exchange := b.exchange(channel)

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.declared[exchange] {
		if err := declareExchange(b.publish, exchange); err != nil {
			return err
		}
		b.declared[exchange] = true
	}

	err = b.publish.PublishWithContext(ctx, exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   msg.ID,
		Type:        msg.Type,
		Timestamp:   msg.Timestamp,
		Body:        data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	b.metrics.RecordPublished(1)
	emit(ctx, b.observer, EventPublish, "bus.amqp", map[string]any{
		"channel": channel,
		"type":    msg.Type,
	})
	return nil
}

func (b *AMQPBus) Receive(ctx context.Context, channel string, timeout time.Duration) (Message, bool, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return Message{}, false, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	exchange := b.exchange(channel)
	if err := declareExchange(ch, exchange); err != nil {
		return Message{}, false, err
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return Message{}, false, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return Message{}, false, fmt.Errorf("bind queue to %s: %w", exchange, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return Message{}, false, fmt.Errorf("consume %s: %w", queue.Name, err)
	}

	waitCtx, cancel := wait(ctx, timeout)
	defer cancel()

	select {
	case d, ok := <-deliveries:
		if !ok {
			return Message{}, false, fmt.Errorf("delivery channel for %s closed", channel)
		}

		msg, err := decode(d.Body)
		if err != nil {
			return Message{}, false, err
		}

		b.metrics.RecordReceived(1)
		emit(ctx, b.observer, EventReceive, "bus.amqp", map[string]any{
			"channel": channel,
			"type":    msg.Type,
		})
		return msg, true, nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		b.metrics.RecordTimeout(1)
		emit(ctx, b.observer, EventTimeout, "bus.amqp", map[string]any{
			"channel": channel,
			"timeout": timeout,
		})
		return Message{}, false, nil
	}
}

func (b *AMQPBus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publish != nil {
		b.publish.Close()
		b.publish = nil
	}
	if b.conn != nil && !b.conn.IsClosed() {
		if err := b.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	return nil
}
