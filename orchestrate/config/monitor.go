package config

import "time"

// MonitorConfig controls polling states.
type MonitorConfig struct {
	// PollTimeout is the wait budget of a single poll, re-armed on every activation
	PollTimeout Duration `json:"poll_timeout" yaml:"poll_timeout"`
}

// DefaultMonitorConfig returns a one second poll budget.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollTimeout: Duration(time.Second),
	}
}

func (c *MonitorConfig) Merge(source *MonitorConfig) {
	if source.PollTimeout > 0 {
		c.PollTimeout = source.PollTimeout
	}
}
