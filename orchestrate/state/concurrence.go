package state

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

// TerminationPolicy is consulted each time a child finishes, with
// OutcomeInvalid for children still running. Returning true cancels the
// remaining children.
type TerminationPolicy func(outcomes map[string]string) bool

// OutcomePolicy reduces the children's final outcomes to the concurrence's
// outcome once every child has finished.
type OutcomePolicy func(outcomes map[string]string) string

type child struct {
	label string
	state State
}

type childResult struct {
	label   string
	outcome string
	err     error
}

// Concurrence runs labelled child states (usually machines) in parallel on
// the shared Store and aggregates their outcomes.
//
//	root := state.NewConcurrenceWithObserver(cfg, observer, "game_success", "game_error", "game_canceled")
//	root.Add("GAME", gameMachine)
//	root.Add("USER_EXIT_GAME", exitMachine)
//	root.SetTerminationPolicy(func(map[string]string) bool { return true })
//	root.SetOutcomePolicy(reduce)
//
// A child error cancels the remaining children and is returned once they
// have all stopped.
type Concurrence struct {
	name           string
	outcomes       []string
	children       []child
	terminate      TerminationPolicy
	reduce         OutcomePolicy
	defaultOutcome string
	observer       observability.Observer
}

// NewConcurrence creates a concurrence from configuration, resolving the
// observer from the registry.
func NewConcurrence(cfg config.ConcurrenceConfig, outcomes ...string) (*Concurrence, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	return NewConcurrenceWithObserver(cfg, observer, outcomes...), nil
}

func NewConcurrenceWithObserver(cfg config.ConcurrenceConfig, observer observability.Observer, outcomes ...string) *Concurrence {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	return &Concurrence{
		name:           cfg.Name,
		outcomes:       slices.Clone(outcomes),
		defaultOutcome: cfg.DefaultOutcome,
		observer:       observer,
	}
}

func (c *Concurrence) Name() string {
	return c.name
}

func (c *Concurrence) Outcomes() []string {
	return slices.Clone(c.outcomes)
}

// Add registers a child under a unique label.
func (c *Concurrence) Add(label string, s State) error {
	if label == "" {
		return c.configErr("", "child label cannot be empty")
	}
	if s == nil {
		return c.configErr(label, "child cannot be nil")
	}
	for _, ch := range c.children {
		if ch.label == label {
			return c.configErr(label, "child already exists")
		}
	}

	c.children = append(c.children, child{label: label, state: s})
	return nil
}

func (c *Concurrence) SetTerminationPolicy(policy TerminationPolicy) {
	c.terminate = policy
}

func (c *Concurrence) SetOutcomePolicy(policy OutcomePolicy) {
	c.reduce = policy
}

// Labels returns the child labels in registration order.
func (c *Concurrence) Labels() []string {
	labels := make([]string, len(c.children))
	for i, ch := range c.children {
		labels[i] = ch.label
	}
	return labels
}

func (c *Concurrence) Validate() error {
	if len(c.outcomes) == 0 {
		return c.configErr("", "concurrence declares no outcomes")
	}
	if len(c.children) == 0 {
		return c.configErr("", "concurrence has no children")
	}
	if c.reduce == nil {
		if c.defaultOutcome == "" {
			return c.configErr("", "no outcome policy and no default outcome")
		}
		if !slices.Contains(c.outcomes, c.defaultOutcome) {
			return c.configErr("", fmt.Sprintf("default outcome %q is not declared", c.defaultOutcome))
		}
	}

	for _, ch := range c.children {
		if v, ok := ch.state.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("child %s: %w", ch.label, err)
			}
		}
	}
	return nil
}

// Execute runs the children on the enclosing container's Store.
func (c *Concurrence) Execute(ctx context.Context, data *Data) (string, error) {
	if data == nil || data.store == nil {
		return "", c.configErr("", "concurrence executed without a store")
	}
	return c.run(ctx, data.store)
}

// Run executes the concurrence as the root of a hierarchy. A nil store is
// replaced with a fresh one.
func (c *Concurrence) Run(ctx context.Context, store *Store) (string, error) {
	if store == nil {
		store = NewStore(c.observer)
	}
	return c.run(ctx, store)
}

func (c *Concurrence) run(ctx context.Context, store *Store) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	started := time.Now()
	emit(ctx, c.observer, EventConcurrenceStart, observability.LevelInfo, c.name, map[string]any{
		"machine":  c.name,
		"children": len(c.children),
		"run_id":   store.RunID(),
	})

	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan childResult, len(c.children))
	var wg sync.WaitGroup

	for _, ch := range c.children {
		wg.Add(1)
		go func(ch child) {
			defer wg.Done()
			outcome, err := ch.state.Execute(childCtx, newData(store, ch.state, nil))
			results <- childResult{label: ch.label, outcome: outcome, err: err}
		}(ch)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make(map[string]string, len(c.children))
	for _, ch := range c.children {
		outcomes[ch.label] = OutcomeInvalid
	}

	var firstErr error
	terminated := false

	for r := range results {
		if r.err != nil {
			// A cancelled child stays "invalid".
			if cancelled(childCtx, r.err) {
				continue
			}
			if firstErr == nil {
				firstErr = &ExecutionError{Machine: c.name, StateName: r.label, Err: r.err}
				cancel()
			}
			continue
		}

		if err := c.checkChild(r); err != nil && firstErr == nil {
			firstErr = err
			cancel()
			continue
		}

		outcomes[r.label] = r.outcome
		emit(ctx, c.observer, EventConcurrenceChildComplete, observability.LevelInfo, c.name, map[string]any{
			"machine": c.name,
			"state":   r.label,
			"outcome": r.outcome,
		})

		if !terminated && firstErr == nil && c.terminate != nil && c.terminate(maps.Clone(outcomes)) {
			terminated = true
			cancel()
			emit(ctx, c.observer, EventConcurrenceTerminate, observability.LevelInfo, c.name, map[string]any{
				"machine": c.name,
				"trigger": r.label,
			})
		}
	}

	if firstErr != nil {
		return "", firstErr
	}

	outcome := c.defaultOutcome
	if c.reduce != nil {
		outcome = c.reduce(maps.Clone(outcomes))
	}
	if !slices.Contains(c.outcomes, outcome) {
		return "", &ContractViolation{
			Machine: c.name,
			Outcome: outcome,
			Reason:  "outcome policy returned an undeclared outcome",
		}
	}

	emit(ctx, c.observer, EventConcurrenceComplete, observability.LevelInfo, c.name, map[string]any{
		"machine":  c.name,
		"outcome":  outcome,
		"outcomes": outcomes,
		"elapsed":  time.Since(started),
	})
	return outcome, nil
}

func (c *Concurrence) checkChild(r childResult) error {
	for _, ch := range c.children {
		if ch.label != r.label {
			continue
		}
		if !slices.Contains(ch.state.Outcomes(), r.outcome) {
			return &ContractViolation{
				Machine: c.name,
				State:   r.label,
				Outcome: r.outcome,
				Reason:  "undeclared outcome",
			}
		}
	}
	return nil
}

func (c *Concurrence) configErr(label, reason string) error {
	return &ConfigurationError{Machine: c.name, State: label, Reason: reason}
}
