// Package config provides configuration structures for the state machine
// engine and the message bus.
//
// Configuration only exists during initialization: constructors in the state
// and bus packages read it once and keep their own fields. Observer names are
// strings resolved through the observability registry so that configuration
// files stay plain data.
//
// # Defaults and Merging
//
// Every configuration type has a DefaultXConfig constructor and a Merge
// method. Loaded configuration merges over defaults:
//
//	cfg := config.DefaultBusConfig()
//	var loaded config.BusConfig
//	yaml.Unmarshal(data, &loaded)
//	cfg.Merge(&loaded)
//
// Merge semantics by field type:
//
//   - Strings: Merge if source is non-empty
//   - Integers: Merge if source is greater than zero
//   - Durations: Merge if source is greater than zero
//   - Pointers: Merge if source is non-nil
//   - Nested configs: Recursive merge
//
// # Boolean Fields with Non-False Defaults
//
// Boolean fields whose default is true use a pointer with a "Nil" suffix and
// an accessor with the plain name, so a file that omits the field keeps the
// default:
//
//	type MachineConfig struct {
//	    TracingNil *bool `json:"tracing,omitempty"`
//	}
//
//	func (c *MachineConfig) Tracing() bool {
//	    if c.TracingNil == nil {
//	        return true
//	    }
//	    return *c.TracingNil
//	}
//
// # Durations
//
// Duration fields use config.Duration, which reads and writes Go duration
// strings ("1s", "250ms") in both JSON and YAML.
package config
