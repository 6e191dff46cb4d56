package state

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/imitation/observability"
)

// Store is the shared mutable context threaded through a run. Every state of
// every machine in the hierarchy reads and writes the same Store, so access is
// serialized with a read/write lock. A key keeps its last value until it is
// overwritten or the Store is discarded.
//
// States never touch the Store directly: the machine hands each activation a
// scoped Data view and commits its writes after the state returns.
type Store struct {
	mu       sync.RWMutex
	data     map[string]any
	runID    string
	observer observability.Observer
}

// NewStore creates an empty Store with a fresh run ID. A nil observer is
// replaced with NoOpObserver.
func NewStore(observer observability.Observer) *Store {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}

	s := &Store{
		data:     make(map[string]any),
		runID:    uuid.New().String(),
		observer: observer,
	}

	emit(context.Background(), observer, EventStoreCreate, observability.LevelVerbose, "store", map[string]any{
		"run_id": s.runID,
	})

	return s
}

// RunID identifies the run this Store belongs to.
func (s *Store) RunID() string {
	return s.runID
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, exists := s.data[key]
	return val, exists
}

// Set writes a single key. It is meant for seeding a run; states write
// through Data.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()

	emit(context.Background(), s.observer, EventStoreSet, observability.LevelVerbose, "store", map[string]any{
		"key": key,
	})
}

// Snapshot returns a shallow copy of the current contents.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.data)
}

// read fetches several keys under one lock. Missing keys are absent from the
// result.
func (s *Store) read(keys map[string]string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(keys))
	for local, key := range keys {
		if val, exists := s.data[key]; exists {
			out[local] = val
		}
	}
	return out
}

// write commits several keys atomically with respect to other readers.
func (s *Store) write(ctx context.Context, source string, values map[string]any) {
	if len(values) == 0 {
		return
	}

	s.mu.Lock()
	maps.Copy(s.data, values)
	s.mu.Unlock()

	for key := range values {
		emit(ctx, s.observer, EventStoreSet, observability.LevelVerbose, source, map[string]any{
			"key": key,
		})
	}
}
