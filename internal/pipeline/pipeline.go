// Package pipeline implements a small data-flow pipeline: named components
// with declared input/output fields, wired into a DAG and executed
// concurrently where dependencies allow.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Record carries field values into and out of a component.
type Record map[string]any

// Clone returns a shallow copy. Outputs are handed to dependents by value,
// so a component can never observe a sibling's mutation.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Component is a named unit of work with a declared field schema. Run must
// be side-effect free from the runner's perspective and return a record
// containing every declared output field.
type Component interface {
	// InputFields lists the field names Run expects in its input record.
	InputFields() []string
	// OutputFields lists the field names Run produces.
	OutputFields() []string
	// Run executes the component.
	Run(ctx context.Context, input Record) (Record, error)
}

type edge struct {
	from      string
	fromField string
	to        string
	toField   string
}

// Pipeline is a set of components plus the edges connecting their fields.
// Wiring errors (unknown components, undeclared fields, cycles) surface at
// AddComponent/Connect time, never at run time.
type Pipeline struct {
	components map[string]Component
	order      []string
	edges      []edge
	timeout    time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithComponentTimeout bounds each component execution. Zero means no
// per-component timeout.
func WithComponentTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{components: make(map[string]Component)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddComponent registers a component under a unique name.
func (p *Pipeline) AddComponent(name string, c Component) error {
	if name == "" {
		return fmt.Errorf("component name must not be empty")
	}
	if c == nil {
		return fmt.Errorf("component %q is nil", name)
	}
	if _, exists := p.components[name]; exists {
		return fmt.Errorf("component %q already registered", name)
	}
	p.components[name] = c
	p.order = append(p.order, name)
	return nil
}

// Connect wires output fields of from into input fields of to. inputConfig
// maps each destination input field to a "component.field" source; the
// source component must be from, and both fields must exist on the
// respective declared schemas.
func (p *Pipeline) Connect(from, to string, inputConfig map[string]string) error {
	src, ok := p.components[from]
	if !ok {
		return fmt.Errorf("unknown source component %q", from)
	}
	dst, ok := p.components[to]
	if !ok {
		return fmt.Errorf("unknown destination component %q", to)
	}

	var added []edge
	for toField, ref := range inputConfig {
		refComponent, refField, ok := strings.Cut(ref, ".")
		if !ok {
			return fmt.Errorf("input %q: source must be \"component.field\", got %q", toField, ref)
		}
		if refComponent != from {
			return fmt.Errorf("input %q: source component %q does not match %q", toField, refComponent, from)
		}
		if !contains(src.OutputFields(), refField) {
			return fmt.Errorf("component %q has no output field %q", from, refField)
		}
		if !contains(dst.InputFields(), toField) {
			return fmt.Errorf("component %q has no input field %q", to, toField)
		}
		added = append(added, edge{from: from, fromField: refField, to: to, toField: toField})
	}

	p.edges = append(p.edges, added...)
	if cycle := p.findCycle(); cycle != "" {
		p.edges = p.edges[:len(p.edges)-len(added)]
		return fmt.Errorf("connecting %q to %q introduces a cycle through %q", from, to, cycle)
	}
	return nil
}

// findCycle runs a DFS over the component graph and returns the name of a
// component on a cycle, or "" if the graph is acyclic.
func (p *Pipeline) findCycle() string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(p.components))
	next := make(map[string][]string, len(p.components))
	for _, e := range p.edges {
		next[e.from] = append(next[e.from], e.to)
	}

	var visit func(name string) string
	visit = func(name string) string {
		color[name] = gray
		for _, n := range next[name] {
			switch color[n] {
			case gray:
				return n
			case white:
				if hit := visit(n); hit != "" {
					return hit
				}
			}
		}
		color[name] = black
		return ""
	}

	for _, name := range p.order {
		if color[name] == white {
			if hit := visit(name); hit != "" {
				return hit
			}
		}
	}
	return ""
}

func contains(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
