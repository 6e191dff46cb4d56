package runner

import "github.com/tailored-agentic-units/imitation/observability"

// Runner event types.
const (
	EventRunStart    observability.EventType = "runner.start"
	EventRunComplete observability.EventType = "runner.complete"
	EventRunError    observability.EventType = "runner.error"
)
