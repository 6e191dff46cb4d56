package state

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
)

const (
	// Store operations
	EventStoreCreate observability.EventType = "store.create"
	EventStoreSet    observability.EventType = "store.set"

	// Machine execution
	EventMachineStart    observability.EventType = "machine.start"
	EventMachineComplete observability.EventType = "machine.complete"
	EventStateEnter      observability.EventType = "state.enter"
	EventStateExit       observability.EventType = "state.exit"
	EventTransition      observability.EventType = "transition"
	EventPreempt         observability.EventType = "preempt"
	EventCycleDetected   observability.EventType = "cycle.detected"

	// Concurrence execution
	EventConcurrenceStart         observability.EventType = "concurrence.start"
	EventConcurrenceChildComplete observability.EventType = "concurrence.child.complete"
	EventConcurrenceTerminate     observability.EventType = "concurrence.terminate"
	EventConcurrenceComplete      observability.EventType = "concurrence.complete"

	// Monitor polling
	EventMonitorPoll observability.EventType = "monitor.poll"
)

func emit(ctx context.Context, observer observability.Observer, eventType observability.EventType, level observability.Level, source string, data map[string]any) {
	observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
