package bus

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
)

const (
	EventPublish observability.EventType = "bus.publish"
	EventReceive observability.EventType = "bus.receive"
	EventTimeout observability.EventType = "bus.timeout"
	EventDropped observability.EventType = "bus.dropped"
)

func emit(ctx context.Context, observer observability.Observer, eventType observability.EventType, source string, data map[string]any) {
	level := observability.LevelVerbose
	if eventType == EventDropped {
		level = observability.LevelWarning
	}

	observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
