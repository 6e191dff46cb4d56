// Package runner hosts a game run. It owns the bus, the actuators and the
// shared Store, executes the root concurrence, and reports the final label.
//
// The runner initializes from configuration via New. Functional options
// replace any config-created dependency, which is how tests inject a bus.
//
//	r, err := runner.New(cfg)
//	defer r.Close()
//	result, err := r.Run(ctx)
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tailored-agentic-units/imitation/game"
	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/bus"
	"github.com/tailored-agentic-units/imitation/orchestrate/state"
)

// Final labels reported by Run.
const (
	OutcomeCompletedSuccess = "completed_success"
	OutcomeCompletedError   = "completed_error"
	OutcomeCanceled         = "canceled"
)

// Result holds the outcome of a Run invocation.
type Result struct {
	Outcome     string        // Final label.
	RootOutcome string        // Outcome of the root concurrence.
	RunID       string        // Identifier of the run's Store.
	Duration    time.Duration // Wall time of the run.
}

// Option configures a Runner before its dependencies are created.
type Option func(*Runner)

// WithBus supplies the bus. The runner does not close a supplied bus.
func WithBus(b bus.Bus) Option {
	return func(r *Runner) { r.bus = b }
}

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithLogger sets the logger behind the default observer.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithFrameSource overrides the bus-backed perception frames.
func WithFrameSource(f game.FrameSource) Option {
	return func(r *Runner) { r.frames = f }
}

// WithContent overrides the configured game content.
func WithContent(sections []game.Section) Option {
	return func(r *Runner) { r.sections = sections }
}

// WithActuator overrides the bus-backed actuator.
func WithActuator(a game.Actuator) Option {
	return func(r *Runner) { r.actuator = a }
}

// Runner executes the imitation game.
type Runner struct {
	cfg      Config
	bus      bus.Bus
	ownsBus  bool
	observer observability.Observer
	logger   *slog.Logger
	frames   game.FrameSource
	actuator game.Actuator
	sections []game.Section
	root     *state.Concurrence
}

// New creates a Runner from configuration. Options are applied first; any
// dependency they leave unset is created from cfg. The HFSM is assembled and
// validated before New returns.
func New(cfg *Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: *cfg}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.observer == nil {
		r.observer = observability.NewSlogObserver(r.logger)
	}

	if r.bus == nil {
		b, err := bus.New(context.Background(), r.cfg.Bus, r.observer)
		if err != nil {
			return nil, fmt.Errorf("failed to create bus: %w", err)
		}
		r.bus = b
		r.ownsBus = true
	}

	if r.actuator == nil {
		r.actuator = game.NewBusActuator(r.bus, r.cfg.Game.Channels)
	}

	root, err := game.Build(game.Deps{
		Config:      r.cfg.Game,
		Sections:    r.sections,
		Receiver:    r.bus,
		Actuator:    r.actuator,
		Frames:      r.frames,
		Observer:    r.observer,
		Machine:     r.cfg.Machine,
		Concurrence: r.cfg.Concurrence,
		Monitor:     r.cfg.Monitor,
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to build game: %w", err)
	}
	r.root = root

	return r, nil
}

// Root returns the assembled root concurrence.
func (r *Runner) Root() *state.Concurrence {
	return r.root
}

// Describe renders the assembled HFSM.
func (r *Runner) Describe() string {
	return r.root.Describe()
}

// Run executes one game on a fresh Store until the root concurrence
// finishes or ctx is cancelled. Cancellation lets the game announce itself
// stopped and is reported as "canceled". Configuration and contract errors
// are returned as errors.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	store := state.NewStore(r.observer)
	started := time.Now()

	r.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"run_id":    store.RunID(),
		"transport": r.cfg.Bus.Transport,
	})

	outcome, err := r.root.Run(ctx, store)

	result := &Result{
		RootOutcome: outcome,
		RunID:       store.RunID(),
		Duration:    time.Since(started),
	}

	if err != nil {
		r.emit(ctx, EventRunError, observability.LevelError, map[string]any{
			"run_id": result.RunID,
			"error":  err.Error(),
		})
		return result, fmt.Errorf("game run failed: %w", err)
	}

	result.Outcome = FinalLabel(outcome)
	if ctx.Err() != nil {
		result.Outcome = OutcomeCanceled
	}

	r.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
		"run_id":   result.RunID,
		"outcome":  result.Outcome,
		"root":     outcome,
		"duration": result.Duration,
	})
	return result, nil
}

// Close releases the bus when the runner created it.
func (r *Runner) Close() error {
	if r.ownsBus && r.bus != nil {
		return r.bus.Close()
	}
	return nil
}

// FinalLabel maps a root outcome to the label reported to the caller.
func FinalLabel(rootOutcome string) string {
	switch rootOutcome {
	case game.GameSuccess:
		return OutcomeCompletedSuccess
	case game.GameCanceled:
		return OutcomeCanceled
	default:
		return OutcomeCompletedError
	}
}

func (r *Runner) emit(ctx context.Context, eventType observability.EventType, level observability.Level, data map[string]any) {
	r.observer.OnEvent(ctx, observability.Event{
		Type:      eventType,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "runner.Run",
		Data:      data,
	})
}
