// Package scenario describes execution graphs as documents: a list of
// workers' construction steps (add, append, link) that is replayed into an
// execgraph.Graph. Documents may be TOML, JSON or YAML.
package scenario

import (
	"errors"
	"fmt"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/logging"
)

var (
	// ErrUnknownVertex is returned when a link names a vertex id no earlier
	// step defined
	ErrUnknownVertex = errors.New("unknown vertex")
	// ErrInvalidStep reports a step that is malformed on its own
	ErrInvalidStep = errors.New("invalid step")
)

// Step operations
const (
	OpAdd    = "add"
	OpAppend = "append"
	OpLink   = "link"
)

// Step is one construction call
type Step struct {
	Op        string `koanf:"op" json:"op"`
	ID        string `koanf:"id" json:"id,omitempty"`
	Worker    string `koanf:"worker" json:"worker,omitempty"`
	TS        int64  `koanf:"ts" json:"ts,omitempty"`
	Type      string `koanf:"type" json:"type,omitempty"`
	Status    string `koanf:"status" json:"status,omitempty"`
	IRQ       *int   `koanf:"irq" json:"irq,omitempty"`
	Softirq   *int   `koanf:"softirq" json:"softirq,omitempty"`
	Qualifier string `koanf:"qualifier" json:"qualifier,omitempty"`
	From      string `koanf:"from" json:"from,omitempty"`
	To        string `koanf:"to" json:"to,omitempty"`
}

// Scenario is a decoded document
type Scenario struct {
	Name        string `koanf:"name" json:"name"`
	Description string `koanf:"description" json:"description,omitempty"`
	// Main is the worker whose critical path is wanted. Defaults to the
	// worker with the earliest head.
	Main  string `koanf:"main" json:"main,omitempty"`
	Steps []Step `koanf:"steps" json:"steps"`
}

// Built is a scenario replayed into a graph
type Built struct {
	Graph *execgraph.Graph
	Main  execgraph.Worker
	// Vertices holds the vertices created by steps that carry an id
	Vertices map[string]*execgraph.Vertex
}

// Build replays the steps in order. The first failing step aborts the
// build.
func (s *Scenario) Build() (*Built, error) {
	b := &Built{
		Graph:    execgraph.New(),
		Vertices: make(map[string]*execgraph.Vertex),
	}

	for i, step := range s.Steps {
		if err := b.apply(step); err != nil {
			return nil, fmt.Errorf("scenario %q step %d (%s): %w", s.Name, i+1, step.Op, err)
		}
	}

	if s.Main != "" {
		w, err := execgraph.ParseWorker(s.Main)
		if err != nil {
			return nil, fmt.Errorf("scenario %q main worker: %w", s.Name, err)
		}
		if b.Graph.Head(w) == nil {
			return nil, fmt.Errorf("scenario %q: main worker %s has no vertices", s.Name, w)
		}
		b.Main = w
	} else if head := b.Graph.FirstHead(); head != nil {
		b.Main, _ = b.Graph.ParentOf(head)
	}

	logging.Debug("scenario built", "name", s.Name, "steps", len(s.Steps), "vertices", b.Graph.Size(), "main", b.Main)
	return b, nil
}

func (b *Built) apply(step Step) error {
	switch step.Op {
	case OpAdd:
		w, err := step.worker()
		if err != nil {
			return err
		}
		v := execgraph.NewVertex(step.TS)
		if err := b.Graph.Add(w, v); err != nil {
			return err
		}
		return b.remember(step.ID, v)

	case OpAppend:
		w, err := step.worker()
		if err != nil {
			return err
		}
		t, err := step.edgeType()
		if err != nil {
			return err
		}
		v := execgraph.NewVertex(step.TS)
		if _, err := b.Graph.Append(w, v, t, execgraph.WithQualifier(step.Qualifier)); err != nil {
			return err
		}
		return b.remember(step.ID, v)

	case OpLink:
		from, err := b.lookup(step.From)
		if err != nil {
			return err
		}
		to, err := b.lookup(step.To)
		if err != nil {
			return err
		}
		e, err := from.LinkVertical(to)
		if err != nil {
			return err
		}
		t := execgraph.EdgeDefault
		if step.typed() {
			if t, err = step.edgeType(); err != nil {
				return err
			}
		}
		if t == execgraph.EdgeDefault && step.Qualifier == "" {
			return nil
		}
		return e.SetTypeQualified(t, step.Qualifier)
	}
	return fmt.Errorf("%w: unknown op %q", ErrInvalidStep, step.Op)
}

func (b *Built) remember(id string, v *execgraph.Vertex) error {
	if id == "" {
		return nil
	}
	if _, exists := b.Vertices[id]; exists {
		return fmt.Errorf("%w: id %q used twice", ErrInvalidStep, id)
	}
	b.Vertices[id] = v
	return nil
}

func (b *Built) lookup(id string) (*execgraph.Vertex, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: link without from/to", ErrInvalidStep)
	}
	v, ok := b.Vertices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVertex, id)
	}
	return v, nil
}

func (s Step) worker() (execgraph.Worker, error) {
	if s.Worker == "" {
		return execgraph.Worker{}, fmt.Errorf("%w: missing worker", ErrInvalidStep)
	}
	return execgraph.ParseWorker(s.Worker)
}

// edgeType resolves the step's type. It is given directly, as a process
// status, or as the interrupt vector that caused a wake-up.
func (s Step) edgeType() (execgraph.EdgeType, error) {
	if s.sources() > 1 {
		return "", fmt.Errorf("%w: only one of type, status, irq and softirq may be given", ErrInvalidStep)
	}
	switch {
	case s.Status != "":
		return ResolveStatus(ProcessStatus(s.Status))
	case s.IRQ != nil:
		return ResolveIRQ(*s.IRQ), nil
	case s.Softirq != nil:
		return ResolveSoftirq(*s.Softirq), nil
	case s.Type != "":
		return execgraph.ParseEdgeType(s.Type)
	}
	return "", fmt.Errorf("%w: missing type", ErrInvalidStep)
}

func (s Step) typed() bool { return s.sources() > 0 }

func (s Step) sources() int {
	n := 0
	for _, set := range []bool{s.Type != "", s.Status != "", s.IRQ != nil, s.Softirq != nil} {
		if set {
			n++
		}
	}
	return n
}
