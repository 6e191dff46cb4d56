package state

import (
	"context"
	"maps"
)

// Remap translates a state's local key names to Store keys. It applies to
// both the inputs a state reads and the outputs it writes. Local names
// without an entry map to the identical Store key.
//
//	state.Remap{"previous_imitation_succeeded": "game_state_result"}
type Remap map[string]string

// Key returns the Store key for a local name.
func (r Remap) Key(local string) string {
	if key, ok := r[local]; ok {
		return key
	}
	return local
}

// Data is the view of the Store handed to a single activation.
//
// Declared inputs are read from the Store when the activation starts, so a
// state sees a stable snapshot even while concurrent machines write. Writes
// are buffered and only reach the Store, through the output remap, after the
// state returns successfully. Touching a key the state did not declare is
// recorded and reported as a ContractViolation once Execute returns.
type Data struct {
	store      *Store
	remap      Remap
	inputs     map[string]any
	writes     map[string]any
	declaredIn map[string]bool
	declared   map[string]bool
	violations []*ContractViolation
}

func newData(store *Store, s State, remap Remap) *Data {
	d := &Data{
		store:      store,
		remap:      remap,
		writes:     make(map[string]any),
		declaredIn: make(map[string]bool),
		declared:   make(map[string]bool),
	}

	kd, ok := s.(KeyDeclarer)
	if !ok {
		d.inputs = map[string]any{}
		return d
	}

	keys := make(map[string]string)
	for _, name := range kd.InputKeys() {
		d.declaredIn[name] = true
		keys[name] = remap.Key(name)
	}
	for _, name := range kd.OutputKeys() {
		d.declared[name] = true
	}

	d.inputs = store.read(keys)
	return d
}

// NewData creates a view over store for the given state, as a machine would
// for an activation. It lets states be exercised outside a machine.
func NewData(store *Store, s State, remap Remap) *Data {
	return newData(store, s, remap)
}

// Get returns the value of a declared input, or a value this activation has
// already written to a declared output.
func (d *Data) Get(name string) (any, bool) {
	if d.declaredIn[name] {
		val, exists := d.inputs[name]
		return val, exists
	}
	if d.declared[name] {
		val, exists := d.writes[name]
		return val, exists
	}

	d.violate(name, "read of undeclared key")
	return nil, false
}

// Has reports whether a declared input was present in the Store at
// activation.
func (d *Data) Has(name string) bool {
	if !d.declaredIn[name] {
		d.violate(name, "read of undeclared key")
		return false
	}
	_, exists := d.inputs[name]
	return exists
}

// Set buffers a write to a declared output.
func (d *Data) Set(name string, value any) {
	if !d.declared[name] {
		d.violate(name, "write of undeclared key")
		return
	}
	d.writes[name] = value
}

// Written returns the buffered writes keyed by local name.
func (d *Data) Written() map[string]any {
	return maps.Clone(d.writes)
}

// RunID identifies the run the underlying Store belongs to.
func (d *Data) RunID() string {
	if d.store == nil {
		return ""
	}
	return d.store.RunID()
}

func (d *Data) violate(key, reason string) {
	d.violations = append(d.violations, &ContractViolation{Key: key, Reason: reason})
}

func (d *Data) violation() *ContractViolation {
	if len(d.violations) == 0 {
		return nil
	}
	return d.violations[0]
}

func (d *Data) commit(ctx context.Context, source string) {
	if len(d.writes) == 0 {
		return
	}

	values := make(map[string]any, len(d.writes))
	for name, val := range d.writes {
		values[d.remap.Key(name)] = val
	}
	d.store.write(ctx, source, values)
}
