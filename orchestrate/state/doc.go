// Package state implements a hierarchical, concurrently composed finite state
// machine interpreter.
//
// # Core Components
//
// State - a step that returns one of its declared outcome labels
//
// CallbackState - a State built from a function
//
// MonitorState - waits for a bus message and classifies it with a predicate
//
// Machine - a transition table over named states; itself a State, so machines nest
//
// Concurrence - runs child states in parallel and reduces their outcomes
//
// Store / Data - the shared context and the per-activation view of it
//
// # Data Flow
//
// All machines of a hierarchy share one Store. Each activation receives a Data
// view holding a snapshot of the state's declared inputs; its writes are
// buffered and committed through the state's Remap after it returns:
//
//	m.AddState("GIVE_FEEDBACK", feedback, state.Transitions{"done": "GAME_ITERATION"},
//	    state.Remap{"positive_feedback": "game_state_result"})
//
// Typed access goes through Key:
//
//	var NextPose = state.NewKey[string]("next_pose")
//	pose, ok := NextPose.Get(data)
//
// # Cancellation
//
// Cancelling the context preempts a machine. The machine checks before every
// activation; states that block (monitors, Pause) return "preempted" or the
// context error. The preemption handler is the state's "preempted"
// transition, else the designated preemption state, else the terminal
// "preempted". A handler state runs with cancellation detached and must lead
// to a terminal outcome.
//
// # Errors
//
// Structural problems are *ConfigurationError (errors.Is ErrConfiguration);
// broken state contracts are *ContractViolation (errors.Is ErrContract). Both
// reach the caller wrapped in *ExecutionError with the failing state and the
// path taken. Timeouts and cancellation are never errors.
//
// # Observability
//
// Machines and concurrences emit observability events (machine.start,
// state.enter, state.exit, transition, preempt, ...) and, when tracing is
// enabled, one OpenTelemetry span per activation.
package state
