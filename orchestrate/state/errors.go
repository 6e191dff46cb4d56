package state

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches every ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrContract matches every ContractViolation via errors.Is.
	ErrContract = errors.New("contract violation")

	ErrMaxIterations = errors.New("max iterations exceeded")
)

// ConfigurationError reports a malformed machine: a missing transition, an
// unknown state, a missing entry state, an invalid remap or a preemption
// path that cannot be resolved.
type ConfigurationError struct {
	Machine string
	State   string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Machine != "" {
		fmt.Fprintf(&b, " in machine %s", e.Machine)
	}
	if e.State != "" {
		fmt.Fprintf(&b, " at state %s", e.State)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ContractViolation reports a state that broke its declared interface: an
// undeclared outcome, a read or write of an undeclared key, or a missing
// required input.
type ContractViolation struct {
	Machine string
	State   string
	Key     string
	Outcome string
	Reason  string
}

func (e *ContractViolation) Error() string {
	var b strings.Builder
	b.WriteString("contract violation")
	if e.State != "" {
		fmt.Fprintf(&b, " by state %s", e.State)
	}
	if e.Machine != "" {
		fmt.Fprintf(&b, " in machine %s", e.Machine)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	switch {
	case e.Key != "":
		fmt.Fprintf(&b, " (key %q)", e.Key)
	case e.Outcome != "":
		fmt.Fprintf(&b, " (outcome %q)", e.Outcome)
	}
	return b.String()
}

func (e *ContractViolation) Is(target error) bool {
	return target == ErrContract
}

// ExecutionError captures context when a machine run fails.
//
//   - Machine: the machine that was running
//   - StateName: the state that failed
//   - Path: states activated up to and including the failure
//   - Err: the underlying error
type ExecutionError struct {
	Machine   string
	StateName string
	Path      []string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution of %s failed at state %s: %v", e.Machine, e.StateName, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
