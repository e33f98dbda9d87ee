// Package criticalpath reduces an execution graph to the chain of edges that
// bounds how long one worker took over a span of its lifeline.
//
// Two algorithms are provided. Bounded follows every recorded wake-up and
// never fails on data: a block without wake-up information is kept as it is.
// Unbounded looks for the shortest certified chain instead and refuses
// (ErrUnsupported) graphs where that chain is ambiguous.
//
// Both treat the input graph as read-only and build a new output graph, so
// several reductions may run concurrently over the same completed graph.
package criticalpath

import (
	"errors"
	"fmt"

	"github.com/ritzau/critpath/pkg/execgraph"
)

// ErrUnsupported is returned by the unbounded algorithm for graph shapes it
// cannot resolve. It wraps errors.ErrUnsupported.
var ErrUnsupported = fmt.Errorf("critical path cannot be resolved: %w", errors.ErrUnsupported)

// ErrInvalidSpan reports a start/end pair that is not a span of one lifeline
var ErrInvalidSpan = errors.New("invalid span")

// Algorithm names
const (
	NameBounded   = "bounded"
	NameUnbounded = "unbounded"
)

// Algorithm computes the critical path of the worker owning start, from
// start to end. A nil end runs to the end of the lifeline.
type Algorithm interface {
	Name() string
	Compute(start, end *execgraph.Vertex) (*execgraph.Graph, error)
}

// New returns the algorithm registered under name, bound to g
func New(name string, g *execgraph.Graph) (Algorithm, error) {
	switch name {
	case NameBounded, "":
		return NewBounded(g), nil
	case NameUnbounded:
		return NewUnbounded(g), nil
	}
	return nil, fmt.Errorf("unknown critical path algorithm %q", name)
}

// Span picks the vertices of w's lifeline covering [from, to]: the first
// vertex at or after from, and the last vertex at or before to. A negative to
// means the end of the lifeline and yields a nil end.
func Span(g *execgraph.Graph, w execgraph.Worker, from, to int64) (start, end *execgraph.Vertex, err error) {
	start = g.VertexAt(from, w)
	if start == nil {
		return nil, nil, fmt.Errorf("%w: %s has no vertex at or after %d", ErrInvalidSpan, w, from)
	}
	if to < 0 {
		return start, nil, nil
	}
	for _, v := range g.NodesOf(w) {
		if v.Timestamp() > to {
			break
		}
		end = v
	}
	if end == nil || end.Timestamp() < start.Timestamp() {
		return nil, nil, fmt.Errorf("%w: [%d, %d] on %s", ErrInvalidSpan, from, to, w)
	}
	return start, end, nil
}

// blocking reports whether an edge of type t waits on something outside the
// worker and should be explained through its wake-up link.
func blocking(t execgraph.EdgeType) bool {
	switch t {
	case execgraph.EdgeBlocked, execgraph.EdgeInterrupted, execgraph.EdgeUnknown,
		execgraph.EdgeNetwork, execgraph.EdgeTimer:
		return true
	}
	return false
}

func silent(e *execgraph.Edge) bool {
	return e.Type() == execgraph.EdgeEpsilon && e.Duration() == 0
}

// findIncoming returns the first vertex from v onwards, following EPS edges,
// that has an incoming vertical edge.
func findIncoming(v *execgraph.Vertex) *execgraph.Vertex {
	for cur := v; cur != nil; {
		if cur.Edge(execgraph.IncomingVertical) != nil {
			return cur
		}
		out := cur.Edge(execgraph.OutgoingHorizontal)
		if out == nil || out.Type() != execgraph.EdgeEpsilon {
			return nil
		}
		cur = out.To()
	}
	return nil
}

// walk holds what both algorithms share: the input graph, the main worker
// and the output under construction.
type walk struct {
	in   *execgraph.Graph
	out  *execgraph.Graph
	main execgraph.Worker
	end  *execgraph.Vertex
}

func newWalk(g *execgraph.Graph, start, end *execgraph.Vertex) (*walk, error) {
	main, err := g.ParentOf(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %v: %w", ErrInvalidSpan, start, err)
	}
	if end != nil {
		w, err := g.ParentOf(end)
		if err != nil {
			return nil, fmt.Errorf("%w: end %v: %w", ErrInvalidSpan, end, err)
		}
		if w != main {
			return nil, fmt.Errorf("%w: start on %s, end on %s", ErrInvalidSpan, main, w)
		}
		if end.Timestamp() < start.Timestamp() {
			return nil, fmt.Errorf("%w: end %v before start %v", ErrInvalidSpan, end, start)
		}
	}

	wk := &walk{in: g, out: execgraph.New(), main: main, end: end}
	if err := wk.out.Add(main, execgraph.NewVertex(start.Timestamp())); err != nil {
		return nil, err
	}
	return wk, nil
}

// next returns the horizontal edge leaving cur, or nil once the span is done
func (wk *walk) next(cur *execgraph.Vertex) *execgraph.Edge {
	if cur == wk.end {
		return nil
	}
	e := cur.Edge(execgraph.OutgoingHorizontal)
	if e == nil {
		return nil
	}
	if wk.end != nil && e.To().Timestamp() > wk.end.Timestamp() {
		return nil
	}
	return e
}

func (wk *walk) parent(v *execgraph.Vertex) execgraph.Worker {
	w, err := wk.in.ParentOf(v)
	if err != nil {
		// Edges only ever join vertices of the same graph
		panic(err)
	}
	return w
}

// appendCopy copies a horizontal edge of the input onto its worker's lifeline
// in the output.
func (wk *walk) appendCopy(e *execgraph.Edge) (*execgraph.Vertex, error) {
	v := execgraph.NewVertex(e.To().Timestamp())
	_, err := wk.out.Append(wk.parent(e.To()), v, e.Type(), execgraph.WithQualifier(e.Qualifier()))
	if err != nil {
		return nil, err
	}
	return v, nil
}

// place adds a copy of to at ts on to's worker and joins it to anchor:
// horizontally when both sit on the same worker, with a vertical link
// otherwise. The new vertex is returned as the next anchor.
func (wk *walk) place(anchor, from, to *execgraph.Vertex, ts int64, t execgraph.EdgeType, qualifier string) (*execgraph.Vertex, error) {
	target := wk.parent(to)
	tmp := execgraph.NewVertex(ts)

	if wk.parent(from) == target {
		if tail := wk.out.Tail(target); tail != anchor {
			return nil, fmt.Errorf("%w: %v is not the tail of %s", execgraph.ErrInvalidState, anchor, target)
		}
		if _, err := wk.out.Append(target, tmp, t, execgraph.WithQualifier(qualifier)); err != nil {
			return nil, err
		}
		return tmp, nil
	}

	if err := wk.out.Add(target, tmp); err != nil {
		return nil, err
	}
	if _, err := wk.out.Link(anchor, tmp, execgraph.WithType(t), execgraph.WithQualifier(qualifier)); err != nil {
		return nil, err
	}
	return tmp, nil
}
