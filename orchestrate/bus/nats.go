package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// NATSBus carries messages over core NATS subjects. Each bus channel is used
// verbatim as the subject.
type NATSBus struct {
	conn     *nats.Conn
	observer observability.Observer
	metrics  *Metrics
}

// NewNATSBus connects to the server described by cfg. The dial is abandoned
// when ctx is cancelled.
func NewNATSBus(ctx context.Context, cfg config.NATSConfig, observer observability.Observer) (*NATSBus, error) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	conn, err := connectNATS(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &NATSBus{
		conn:     conn,
		observer: observer,
		metrics:  NewMetrics(),
	}, nil
}

func connectNATS(ctx context.Context, cfg config.NATSConfig) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("NATS URL cannot be empty")
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait.AsDuration()),
		nats.Timeout(cfg.Timeout.AsDuration()),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			slog.Debug("NATS connection closed")
		}),
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	} else if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	type result struct {
		conn *nats.Conn
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		conn, err := nats.Connect(cfg.URL, opts...)
		resultCh <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", res.err)
		}
		return res.conn, nil
	}
}

func (b *NATSBus) Publish(ctx context.Context, channel string, msg Message) error {
	msg = msg.stamp(channel)

	data, err := encode(msg)
	if err != nil {
		return err
	}

	if err := b.conn.Publish(channel, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	b.metrics.RecordPublished(1)
	emit(ctx, b.observer, EventPublish, "bus.nats", map[string]any{
		"channel": channel,
		"type":    msg.Type,
	})
	return nil
}

func (b *NATSBus) Receive(ctx context.Context, channel string, timeout time.Duration) (Message, bool, error) {
	sub, err := b.conn.SubscribeSync(channel)
	if err != nil {
		return Message{}, false, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	defer sub.Unsubscribe()

	waitCtx, cancel := wait(ctx, timeout)
	defer cancel()

	raw, err := sub.NextMsgWithContext(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return Message{}, false, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, nats.ErrTimeout) {
			b.metrics.RecordTimeout(1)
			emit(ctx, b.observer, EventTimeout, "bus.nats", map[string]any{
				"channel": channel,
				"timeout": timeout,
			})
			return Message{}, false, nil
		}
		return Message{}, false, fmt.Errorf("failed to receive from %s: %w", channel, err)
	}

	msg, err := decode(raw.Data)
	if err != nil {
		return Message{}, false, err
	}

	b.metrics.RecordReceived(1)
	emit(ctx, b.observer, EventReceive, "bus.nats", map[string]any{
		"channel": channel,
		"type":    msg.Type,
	})
	return msg, true, nil
}

func (b *NATSBus) Metrics() MetricsSnapshot {
	return b.metrics.Snapshot()
}

// Close drains the connection, falling back to a hard close.
func (b *NATSBus) Close() error {
	if b.conn == nil {
		return nil
	}

	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("error draining connection: %w", err)
	}
	return nil
}
