package state

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

type describer interface {
	describe(b *strings.Builder, depth int)
}

// Describe renders the machine structure (states, transitions, remaps,
// terminal outcomes and nested containers) as indented text.
func (m *Machine) Describe() string {
	var b strings.Builder
	m.describe(&b, 0)
	return b.String()
}

func (m *Machine) describe(b *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth)

	fmt.Fprintf(b, "%smachine %s -> %s\n", pad, m.name, strings.Join(m.outcomes, " | "))
	fmt.Fprintf(b, "%s  entry: %s\n", pad, m.entry)
	if m.preemption != "" {
		fmt.Fprintf(b, "%s  preemption: %s\n", pad, m.preemption)
	}

	for _, name := range m.order {
		s := m.states[name]
		fmt.Fprintf(b, "%s  state %s %s\n", pad, name, kind(s))

		outcomes := s.Outcomes()
		for _, outcome := range outcomes {
			target, exists := m.transitions[name][outcome]
			if !exists {
				target = "(none)"
			} else if m.terminals[target] {
				target = "[" + target + "]"
			}
			fmt.Fprintf(b, "%s    %s -> %s\n", pad, outcome, target)
		}

		if remap := m.remaps[name]; len(remap) > 0 {
			locals := make([]string, 0, len(remap))
			for local := range remap {
				locals = append(locals, local)
			}
			sort.Strings(locals)
			for _, local := range locals {
				fmt.Fprintf(b, "%s    remap %s = %s\n", pad, local, remap[local])
			}
		}

		if d, ok := s.(describer); ok {
			d.describe(b, depth+2)
		}
	}
}

// Describe renders the concurrence and its children as indented text.
func (c *Concurrence) Describe() string {
	var b strings.Builder
	c.describe(&b, 0)
	return b.String()
}

func (c *Concurrence) describe(b *strings.Builder, depth int) {
	pad := strings.Repeat("  ", depth)

	fmt.Fprintf(b, "%sconcurrence %s -> %s\n", pad, c.name, strings.Join(c.outcomes, " | "))
	if c.reduce == nil {
		fmt.Fprintf(b, "%s  default outcome: %s\n", pad, c.defaultOutcome)
	}

	for _, ch := range c.children {
		fmt.Fprintf(b, "%s  child %s %s\n", pad, ch.label, kind(ch.state))
		if d, ok := ch.state.(describer); ok {
			d.describe(b, depth+2)
		}
	}
}

func kind(s State) string {
	var parts []string
	if kd, ok := s.(KeyDeclarer); ok {
		if in := kd.InputKeys(); len(in) > 0 {
			parts = append(parts, "in: "+strings.Join(slices.Sorted(slices.Values(in)), ","))
		}
		if out := kd.OutputKeys(); len(out) > 0 {
			parts = append(parts, "out: "+strings.Join(slices.Sorted(slices.Values(out)), ","))
		}
	}

	label := fmt.Sprintf("(%T)", s)
	if len(parts) > 0 {
		label += " {" + strings.Join(parts, "; ") + "}"
	}
	return label
}
