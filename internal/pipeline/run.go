package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/stellasia/neo4j-genai-go/internal/observability"
)

// componentState tracks where a component is in a run.
type componentState int

const (
	statePending componentState = iota
	stateRunning
	stateDone
	stateFailed
)

// run holds all per-run state. It is created at run start and discarded at
// run end; the Pipeline itself stays immutable during execution.
type run struct {
	pipeline *Pipeline
	states   map[string]componentState
	inputs   map[string]Record
	outputs  map[string]Record
}

type componentResult struct {
	name   string
	output Record
	err    error
}

// Run executes the pipeline. inputs provides the externally supplied input
// record per component, keyed by component name. All components whose
// dependencies are satisfied execute concurrently. Any component failure
// cancels in-flight siblings and fails the whole run; partial results are
// discarded.
func (p *Pipeline) Run(ctx context.Context, inputs map[string]Record) (map[string]Record, error) {
	for name := range inputs {
		if _, ok := p.components[name]; !ok {
			return nil, fmt.Errorf("input provided for unknown component %q", name)
		}
	}

	r := &run{
		pipeline: p,
		states:   make(map[string]componentState, len(p.components)),
		inputs:   make(map[string]Record, len(p.components)),
		outputs:  make(map[string]Record, len(p.components)),
	}
	for _, name := range p.order {
		r.states[name] = statePending
		if in, ok := inputs[name]; ok {
			r.inputs[name] = in.Clone()
		} else {
			r.inputs[name] = Record{}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan componentResult)
	running := 0

	for {
		for _, name := range r.ready() {
			r.states[name] = stateRunning
			running++
			go r.execute(ctx, name, r.inputs[name].Clone(), results)
		}
		if running == 0 {
			break
		}

		res := <-results
		running--
		if res.err != nil {
			r.states[res.name] = stateFailed
			cancel()
			for running > 0 {
				<-results
				running--
			}
			return nil, fmt.Errorf("component %q: %w", res.name, res.err)
		}
		r.states[res.name] = stateDone
		r.outputs[res.name] = res.output
		r.propagate(res.name, res.output)
	}

	for _, name := range p.order {
		if r.states[name] != stateDone {
			return nil, fmt.Errorf("component %q never became runnable: missing input", name)
		}
	}
	return r.outputs, nil
}

// ready returns all pending components whose inbound edges are satisfied.
func (r *run) ready() []string {
	var names []string
	for _, name := range r.pipeline.order {
		if r.states[name] != statePending {
			continue
		}
		ok := true
		for _, e := range r.pipeline.edges {
			if e.to == name && r.states[e.from] != stateDone {
				ok = false
				break
			}
		}
		if ok {
			names = append(names, name)
		}
	}
	return names
}

func (r *run) execute(ctx context.Context, name string, input Record, results chan<- componentResult) {
	ctx, span := observability.StartComponentSpan(ctx, name)
	defer span.End()

	if r.pipeline.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.pipeline.timeout)
		defer cancel()
	}

	start := time.Now()
	output, err := r.pipeline.components[name].Run(ctx, input)
	if err == nil {
		for _, field := range r.pipeline.components[name].OutputFields() {
			if _, ok := output[field]; !ok {
				err = fmt.Errorf("output missing declared field %q", field)
				break
			}
		}
	}
	if err != nil {
		observability.RecordError(span, err)
	} else {
		observability.RecordComponentResult(span, len(output), time.Since(start))
	}
	results <- componentResult{name: name, output: output, err: err}
}

// propagate copies the finished component's output fields along its
// outbound edges into the dependents' pending input records.
func (r *run) propagate(name string, output Record) {
	for _, e := range r.pipeline.edges {
		if e.from != name {
			continue
		}
		r.inputs[e.to][e.toField] = output[e.fromField]
	}
}
