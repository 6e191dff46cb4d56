package state

import (
	"context"
	"slices"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// Predicate decides whether a received message lets a MonitorState continue.
type Predicate func(data *Data, msg bus.Message) bool

// MonitorState waits on a bus channel for one message of the declared type
// and classifies it with a predicate:
//
//   - "continue": the predicate returned true
//   - "stop": the predicate returned false
//   - "waiting": no qualifying message arrived within the poll budget
//   - "preempted": ctx was cancelled while waiting
//
// Messages with a different type tag are skipped for the rest of the poll.
// The budget is re-armed on every activation, so machines usually route
// "continue" and "waiting" back to the monitor itself.
type MonitorState struct {
	receiver  bus.Receiver
	channel   string
	msgType   string
	predicate Predicate
	timeout   time.Duration
	inputs    []string
	observer  observability.Observer
}

func NewMonitorState(receiver bus.Receiver, channel, msgType string, predicate Predicate, cfg config.MonitorConfig) *MonitorState {
	timeout := cfg.PollTimeout.AsDuration()
	if timeout <= 0 {
		timeout = config.DefaultMonitorConfig().PollTimeout.AsDuration()
	}

	return &MonitorState{
		receiver:  receiver,
		channel:   channel,
		msgType:   msgType,
		predicate: predicate,
		timeout:   timeout,
		observer:  observability.NoOpObserver{},
	}
}

// WithInputs declares keys the predicate reads.
func (m *MonitorState) WithInputs(keys ...string) *MonitorState {
	m.inputs = append(m.inputs, keys...)
	return m
}

// WithObserver receives a monitor.poll event per activation.
func (m *MonitorState) WithObserver(observer observability.Observer) *MonitorState {
	if observer != nil {
		m.observer = observer
	}
	return m
}

func (m *MonitorState) Channel() string {
	return m.channel
}

func (m *MonitorState) Outcomes() []string {
	return []string{OutcomeContinue, OutcomeStop, OutcomeWaiting, OutcomePreempted}
}

func (m *MonitorState) InputKeys() []string {
	return slices.Clone(m.inputs)
}

func (m *MonitorState) OutputKeys() []string {
	return nil
}

func (m *MonitorState) Execute(ctx context.Context, data *Data) (string, error) {
	outcome, err := m.poll(ctx, data)

	emit(ctx, m.observer, EventMonitorPoll, observability.LevelVerbose, "monitor", map[string]any{
		"channel": m.channel,
		"outcome": outcome,
	})

	return outcome, err
}

func (m *MonitorState) poll(ctx context.Context, data *Data) (string, error) {
	if ctx.Err() != nil {
		return OutcomePreempted, nil
	}

	deadline := time.Now().Add(m.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return OutcomeWaiting, nil
		}

		msg, ok, err := m.receiver.Receive(ctx, m.channel, remaining)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomePreempted, nil
			}
			return "", err
		}
		if !ok {
			return OutcomeWaiting, nil
		}
		if m.msgType != "" && msg.Type != m.msgType {
			continue
		}

		if m.predicate(data, msg) {
			return OutcomeContinue, nil
		}
		return OutcomeStop, nil
	}
}
