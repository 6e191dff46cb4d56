package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/orchestrate/config"
)

const tracerName = "github.com/tailored-agentic-units/imitation/orchestrate/state"

// Transitions maps a state's outcomes to the next state name or to a
// terminal outcome of the owning machine.
type Transitions map[string]string

// Machine is a finite state machine over named states. A Machine is itself a
// State whose outcomes are its terminal labels, so machines nest.
//
//	m := state.NewMachineWithObserver(cfg, observer, "main_success", "main_preempted")
//	m.AddState("WAIT_USER_INPUT", waitInput, state.Transitions{
//	    "start":     "INIT_GAME",
//	    "stop":      "main_success",
//	    "waiting":   "WAIT_USER_INPUT",
//	    "preempted": "GAME_STOPPED",
//	}, nil)
//	outcome, err := m.Run(ctx, store)
//
// The first state added is the entry state unless SetEntry says otherwise.
type Machine struct {
	name          string
	outcomes      []string
	terminals     map[string]bool
	states        map[string]State
	order         []string
	transitions   map[string]Transitions
	remaps        map[string]Remap
	entry         string
	preemption    string
	maxIterations int
	tracing       bool
	observer      observability.Observer
}

// NewMachine creates a machine from configuration, resolving the observer
// from the registry.
func NewMachine(cfg config.MachineConfig, outcomes ...string) (*Machine, error) {
	observer, err := observability.GetObserver(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	return NewMachineWithObserver(cfg, observer, outcomes...), nil
}

// NewMachineWithObserver creates a machine with an explicit observer. A nil
// observer is replaced with NoOpObserver.
func NewMachineWithObserver(cfg config.MachineConfig, observer observability.Observer, outcomes ...string) *Machine {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	terminals := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		terminals[o] = true
	}

	return &Machine{
		name:          cfg.Name,
		outcomes:      slices.Clone(outcomes),
		terminals:     terminals,
		states:        make(map[string]State),
		transitions:   make(map[string]Transitions),
		remaps:        make(map[string]Remap),
		maxIterations: cfg.MaxIterations,
		tracing:       cfg.Tracing(),
		observer:      observer,
	}
}

func (m *Machine) Name() string {
	return m.name
}

// Outcomes returns the machine's terminal labels.
func (m *Machine) Outcomes() []string {
	return slices.Clone(m.outcomes)
}

// AddState registers a state with its transition table and remap.
//
// Every transition key must be an outcome the state declares, and every
// remap entry must name a key the state declares. Transition targets are
// checked by Validate, so states may refer to states added later.
func (m *Machine) AddState(name string, s State, transitions Transitions, remap Remap) error {
	if name == "" {
		return m.configErr("", "state name cannot be empty")
	}
	if s == nil {
		return m.configErr(name, "state cannot be nil")
	}
	if _, exists := m.states[name]; exists {
		return m.configErr(name, "state already exists")
	}
	if m.terminals[name] {
		return m.configErr(name, "state name collides with a terminal outcome")
	}

	declared := s.Outcomes()
	for outcome, target := range transitions {
		if !slices.Contains(declared, outcome) {
			return m.configErr(name, fmt.Sprintf("transition for undeclared outcome %q", outcome))
		}
		if target == "" {
			return m.configErr(name, fmt.Sprintf("empty target for outcome %q", outcome))
		}
	}

	if err := m.checkRemap(name, s, remap); err != nil {
		return err
	}

	m.states[name] = s
	m.order = append(m.order, name)
	m.transitions[name] = maps.Clone(transitions)
	if len(remap) > 0 {
		m.remaps[name] = remap
	}
	if m.entry == "" {
		m.entry = name
	}
	return nil
}

func (m *Machine) checkRemap(name string, s State, remap Remap) error {
	if len(remap) == 0 {
		return nil
	}

	kd, ok := s.(KeyDeclarer)
	if !ok {
		return m.configErr(name, "remap given for a state that declares no keys")
	}

	keys := append(kd.InputKeys(), kd.OutputKeys()...)
	for local, key := range remap {
		if !slices.Contains(keys, local) {
			return m.configErr(name, fmt.Sprintf("remap of undeclared key %q", local))
		}
		if key == "" {
			return m.configErr(name, fmt.Sprintf("remap of %q to an empty key", local))
		}
	}
	return nil
}

// SetEntry overrides the entry state.
func (m *Machine) SetEntry(name string) error {
	if _, exists := m.states[name]; !exists {
		return m.configErr(name, "entry state does not exist")
	}
	m.entry = name
	return nil
}

// SetPreemptionState designates the state that handles cancellation when the
// current state has no "preempted" transition of its own. The handler runs
// detached from cancellation and must lead to a terminal outcome.
func (m *Machine) SetPreemptionState(name string) error {
	if name == "" {
		return m.configErr("", "preemption state cannot be empty")
	}
	m.preemption = name
	return nil
}

// Validate checks the machine and every nested Validator:
//   - at least one state and an entry state exist
//   - every transition target is a state or a terminal outcome
//   - the preemption state, when set, exists
func (m *Machine) Validate() error {
	if len(m.outcomes) == 0 {
		return m.configErr("", "machine declares no terminal outcomes")
	}
	if len(m.states) == 0 {
		return m.configErr("", "machine has no states")
	}
	if m.entry == "" {
		return m.configErr("", "entry state not set")
	}

	for _, name := range m.order {
		for outcome, target := range m.transitions[name] {
			if _, exists := m.states[target]; exists || m.terminals[target] {
				continue
			}
			return m.configErr(name, fmt.Sprintf("outcome %q targets unknown state %q", outcome, target))
		}
	}

	if m.preemption != "" {
		if _, exists := m.states[m.preemption]; !exists {
			return m.configErr(m.preemption, "preemption state does not exist")
		}
	}

	for _, name := range m.order {
		if v, ok := m.states[name].(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("state %s: %w", name, err)
			}
		}
	}
	return nil
}

// Execute runs the machine as a state of an enclosing container, on the
// container's Store.
func (m *Machine) Execute(ctx context.Context, data *Data) (string, error) {
	if data == nil || data.store == nil {
		return "", m.configErr("", "machine executed without a store")
	}
	return m.run(ctx, data.store)
}

// Run executes the machine on store until a terminal outcome is reached. A
// nil store is replaced with a fresh one.
//
// Algorithm:
//  1. Validate the machine
//  2. Start at the entry state
//  3. Check for cancellation, then activate the current state
//  4. Verify the outcome and key contract, commit outputs through the remap
//  5. Resolve (state, outcome): a terminal returns, a state name continues
//
// Cancellation, observed at an activation boundary or reported by a state
// through the "preempted" outcome, is routed to the preemption handler.
// Failures are returned as *ExecutionError.
func (m *Machine) Run(ctx context.Context, store *Store) (string, error) {
	if store == nil {
		store = NewStore(m.observer)
	}
	return m.run(ctx, store)
}

func (m *Machine) run(ctx context.Context, store *Store) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	started := time.Now()
	emit(ctx, m.observer, EventMachineStart, observability.LevelInfo, m.name, map[string]any{
		"machine": m.name,
		"entry":   m.entry,
		"run_id":  store.RunID(),
	})

	current := m.entry
	iterations := 0
	visited := make(map[string]int)
	var path []string

	for {
		if ctx.Err() != nil {
			return m.preempt(ctx, store, current, path, started)
		}

		iterations++
		if m.maxIterations > 0 && iterations > m.maxIterations {
			return "", m.fail(current, path, fmt.Errorf("%w: limit %d", ErrMaxIterations, m.maxIterations))
		}

		visited[current]++
		path = append(path, current)

		if visited[current] > 1 {
			emit(ctx, m.observer, EventCycleDetected, observability.LevelVerbose, m.name, map[string]any{
				"machine":     m.name,
				"state":       current,
				"visit_count": visited[current],
				"iteration":   iterations,
			})
		}

		outcome, err := m.activate(ctx, store, current)
		if err != nil {
			if cancelled(ctx, err) {
				return m.preempt(ctx, store, current, path, started)
			}
			return "", m.fail(current, path, err)
		}

		if outcome == OutcomePreempted {
			return m.preempt(ctx, store, current, path, started)
		}

		next, exists := m.transitions[current][outcome]
		if !exists {
			return "", m.fail(current, path, m.configErr(current, fmt.Sprintf("no transition for outcome %q", outcome)))
		}

		emit(ctx, m.observer, EventTransition, observability.LevelVerbose, m.name, map[string]any{
			"machine": m.name,
			"from":    current,
			"outcome": outcome,
			"to":      next,
		})

		if m.terminals[next] {
			m.complete(ctx, next, iterations, started)
			return next, nil
		}
		current = next
	}
}

// activate runs one state against a fresh Data view and commits its writes.
func (m *Machine) activate(ctx context.Context, store *Store, name string) (string, error) {
	s, exists := m.states[name]
	if !exists {
		return "", m.configErr(name, "unknown state")
	}

	data := newData(store, s, m.remaps[name])

	emit(ctx, m.observer, EventStateEnter, observability.LevelVerbose, m.name, map[string]any{
		"machine": m.name,
		"state":   name,
	})

	ctx, span := m.startSpan(ctx, name)
	started := time.Now()

	outcome, err := s.Execute(ctx, data)
	duration := time.Since(started)

	if err == nil {
		err = m.checkContract(name, s, outcome, data)
	} else {
		var cv *ContractViolation
		if errors.As(err, &cv) && cv.State == "" {
			cv.Machine, cv.State = m.name, name
		}
	}
	if err == nil {
		data.commit(ctx, m.name)
	}

	endSpan(span, outcome, err)

	exit := map[string]any{
		"machine":  m.name,
		"state":    name,
		"duration": duration,
	}
	if err != nil {
		exit["error"] = err.Error()
	} else {
		exit["outcome"] = outcome
	}
	emit(ctx, m.observer, EventStateExit, observability.LevelVerbose, m.name, exit)

	return outcome, err
}

func (m *Machine) checkContract(name string, s State, outcome string, data *Data) error {
	if !slices.Contains(s.Outcomes(), outcome) {
		return &ContractViolation{
			Machine: m.name,
			State:   name,
			Outcome: outcome,
			Reason:  "undeclared outcome",
		}
	}

	if cv := data.violation(); cv != nil {
		cv.Machine, cv.State = m.name, name
		return cv
	}
	return nil
}

// preempt resolves and runs the preemption path for the current state:
//  1. the state's own "preempted" transition
//  2. the machine's designated preemption state
//  3. the terminal "preempted", when declared
func (m *Machine) preempt(ctx context.Context, store *Store, current string, path []string, started time.Time) (string, error) {
	target, err := m.preemptionTarget(current)
	if err != nil {
		return "", m.fail(current, path, err)
	}

	emit(ctx, m.observer, EventPreempt, observability.LevelInfo, m.name, map[string]any{
		"machine": m.name,
		"state":   current,
		"target":  target,
	})

	if m.terminals[target] {
		m.complete(ctx, target, len(path), started)
		return target, nil
	}

	detached := context.WithoutCancel(ctx)
	path = append(path, target)

	outcome, err := m.activate(detached, store, target)
	if err != nil {
		return "", m.fail(target, path, err)
	}

	next, exists := m.transitions[target][outcome]
	if !exists || !m.terminals[next] {
		return "", m.fail(target, path, m.configErr(target,
			fmt.Sprintf("preemption handler outcome %q does not lead to a terminal outcome", outcome)))
	}

	m.complete(ctx, next, len(path), started)
	return next, nil
}

func (m *Machine) preemptionTarget(current string) (string, error) {
	if target, exists := m.transitions[current][OutcomePreempted]; exists {
		return target, nil
	}
	if m.preemption != "" {
		return m.preemption, nil
	}
	if m.terminals[OutcomePreempted] {
		return OutcomePreempted, nil
	}
	return "", m.configErr(current, "cancellation requested but no preemption path is defined")
}

func (m *Machine) complete(ctx context.Context, outcome string, iterations int, started time.Time) {
	emit(ctx, m.observer, EventMachineComplete, observability.LevelInfo, m.name, map[string]any{
		"machine":    m.name,
		"outcome":    outcome,
		"iterations": iterations,
		"elapsed":    time.Since(started),
	})
}

func (m *Machine) fail(current string, path []string, err error) error {
	return &ExecutionError{
		Machine:   m.name,
		StateName: current,
		Path:      slices.Clone(path),
		Err:       err,
	}
}

func (m *Machine) configErr(name, reason string) error {
	return &ConfigurationError{Machine: m.name, State: name, Reason: reason}
}

func (m *Machine) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !m.tracing {
		return ctx, nil
	}

	return otel.Tracer(tracerName).Start(ctx, m.name+"/"+name,
		trace.WithAttributes(
			attribute.String("hfsm.machine", m.name),
			attribute.String("hfsm.state", name),
		),
	)
}

func endSpan(span trace.Span, outcome string, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.String("hfsm.outcome", outcome))
	}
	span.End()
}

func cancelled(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
