package config

// ConcurrenceConfig defines configuration for a concurrence container.
type ConcurrenceConfig struct {
	// Name identifies the concurrence in events and errors
	Name string `json:"name" yaml:"name"`

	// Observer specifies which observer implementation to use ("noop", "slog", etc.)
	Observer string `json:"observer" yaml:"observer"`

	// DefaultOutcome is returned when no outcome policy is installed
	DefaultOutcome string `json:"default_outcome" yaml:"default_outcome"`
}

// DefaultConcurrenceConfig returns a ConcurrenceConfig with no default
// outcome; callers either set one or install an outcome policy.
func DefaultConcurrenceConfig(name string) ConcurrenceConfig {
	return ConcurrenceConfig{
		Name:     name,
		Observer: "slog",
	}
}

func (c *ConcurrenceConfig) Merge(source *ConcurrenceConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.DefaultOutcome != "" {
		c.DefaultOutcome = source.DefaultOutcome
	}
}
