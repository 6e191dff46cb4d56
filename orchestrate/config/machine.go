package config

// MachineConfig defines configuration for a state machine.
//
// Example YAML:
//
//	name: GAME
//	observer: slog
//	max_iterations: 0
//	tracing: false
type MachineConfig struct {
	// Name identifies the machine in events, traces and errors
	Name string `json:"name" yaml:"name"`

	// Observer specifies which observer implementation to use ("noop", "slog", etc.)
	Observer string `json:"observer" yaml:"observer"`

	// MaxIterations bounds the number of state activations per run (0 = unlimited)
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// TracingNil enables an OpenTelemetry span per activation. Use Tracing() to access.
	TracingNil *bool `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// Tracing reports whether activations are traced. Defaults to true; spans go
// to the global TracerProvider, which is a no-op until one is installed.
func (c *MachineConfig) Tracing() bool {
	if c.TracingNil == nil {
		return true
	}
	return *c.TracingNil
}

// DefaultMachineConfig returns defaults for an interactive machine. Game loops
// self-transition while waiting for the user, so no iteration limit is set.
func DefaultMachineConfig(name string) MachineConfig {
	return MachineConfig{
		Name:          name,
		Observer:      "slog",
		MaxIterations: 0,
	}
}

func (c *MachineConfig) Merge(source *MachineConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}

	if source.TracingNil != nil {
		c.TracingNil = source.TracingNil
	}
}
