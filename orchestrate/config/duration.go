package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so configuration files can spell timeouts as
// "1s" or "250ms". It implements encoding.TextMarshaler, which both
// encoding/json and gopkg.in/yaml.v3 honor.
type Duration time.Duration

// AsDuration converts a config.Duration to a time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}
