package state

// Key is a typed handle on a Data entry.
//
//	var SynchroTime = state.NewKey[float64]("synchro_time")
//
//	SynchroTime.Set(data, 60)
//	t, ok := SynchroTime.Get(data)
type Key[T any] struct {
	name string
}

func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

func (k Key[T]) Name() string {
	return k.name
}

// Get returns the value and true when the key is present and holds a T.
func (k Key[T]) Get(d *Data) (T, bool) {
	var zero T

	val, exists := d.Get(k.name)
	if !exists {
		return zero, false
	}

	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (k Key[T]) Set(d *Data, value T) {
	d.Set(k.name, value)
}
