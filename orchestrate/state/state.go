package state

import (
	"context"
	"slices"
	"time"
)

// Outcome labels shared by the built-in state types.
const (
	OutcomeContinue  = "continue"
	OutcomeStop      = "stop"
	OutcomeWaiting   = "waiting"
	OutcomePreempted = "preempted"

	// OutcomeInvalid stands in for a concurrence child that has not finished.
	OutcomeInvalid = "invalid"
)

// State is a single step of a machine.
//
// Execute performs the step's work and returns one of the labels listed by
// Outcomes. A State may be activated many times and may keep private fields
// between activations. Cancellation of ctx asks the state to return promptly,
// either with the "preempted" outcome or with the context's error.
type State interface {
	Outcomes() []string
	Execute(ctx context.Context, data *Data) (string, error)
}

// KeyDeclarer is implemented by states that read or write Data. A state
// that does not implement it may not touch Data at all.
type KeyDeclarer interface {
	InputKeys() []string
	OutputKeys() []string
}

// Validator is implemented by composite states (Machine, Concurrence) so an
// enclosing machine can validate the whole hierarchy before running it.
type Validator interface {
	Validate() error
}

// CallbackFunc is the body of a CallbackState.
type CallbackFunc func(ctx context.Context, data *Data) (string, error)

// CallbackState adapts a function to the State interface. Its declared inputs
// are required: an activation with an input missing from the Store fails with
// a ContractViolation before the callback runs.
//
//	feedback := state.NewCallbackState(func(ctx context.Context, d *state.Data) (string, error) {
//	    ok, _ := positive.Get(d)
//	    return "done", actuator.Say(ctx, text(ok))
//	}, "done").WithInputs("positive_feedback")
type CallbackState struct {
	fn       CallbackFunc
	outcomes []string
	inputs   []string
	outputs  []string
}

func NewCallbackState(fn CallbackFunc, outcomes ...string) *CallbackState {
	return &CallbackState{fn: fn, outcomes: outcomes}
}

// WithInputs declares required input keys.
func (s *CallbackState) WithInputs(keys ...string) *CallbackState {
	s.inputs = append(s.inputs, keys...)
	return s
}

// WithOutputs declares output keys.
func (s *CallbackState) WithOutputs(keys ...string) *CallbackState {
	s.outputs = append(s.outputs, keys...)
	return s
}

func (s *CallbackState) Outcomes() []string {
	return slices.Clone(s.outcomes)
}

func (s *CallbackState) InputKeys() []string {
	return slices.Clone(s.inputs)
}

func (s *CallbackState) OutputKeys() []string {
	return slices.Clone(s.outputs)
}

func (s *CallbackState) Execute(ctx context.Context, data *Data) (string, error) {
	for _, key := range s.inputs {
		if !data.Has(key) {
			return "", &ContractViolation{Key: key, Reason: "missing required input"}
		}
	}
	return s.fn(ctx, data)
}

// Pause waits for d or until ctx is done, whichever comes first. It returns
// the context's error when interrupted.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
