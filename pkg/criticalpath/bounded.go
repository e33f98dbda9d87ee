package criticalpath

import (
	"slices"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/logging"
)

// Bounded is the critical path algorithm that keeps every known cause. A
// blocked interval is replaced by the chain of work on other workers that
// ended it; blocks whose wake-up was not recorded stay unresolved.
type Bounded struct {
	graph *execgraph.Graph
}

// NewBounded binds the bounded algorithm to a completed graph
func NewBounded(g *execgraph.Graph) *Bounded {
	return &Bounded{graph: g}
}

func (b *Bounded) Name() string {
	return NameBounded
}

// Compute walks the main worker's lifeline from start to end
func (b *Bounded) Compute(start, end *execgraph.Vertex) (*execgraph.Graph, error) {
	wk, err := newWalk(b.graph, start, end)
	if err != nil {
		return nil, err
	}

	for cur := start; ; {
		e := wk.next(cur)
		if e == nil {
			break
		}
		switch {
		case silent(e):
		case blocking(e.Type()):
			links := resolveBounded(e, e.From().Timestamp())
			slices.Reverse(links)
			if err := b.glue(wk, cur, e, links); err != nil {
				return nil, err
			}
		default:
			if _, err := wk.appendCopy(e); err != nil {
				return nil, err
			}
		}
		cur = e.To()
	}
	return wk.out, nil
}

// glue splices links, a chain of input edges in time order explaining the
// blocked edge leaving cur, onto the output.
func (b *Bounded) glue(wk *walk, cur *execgraph.Vertex, blocked *execgraph.Edge, links []*execgraph.Edge) error {
	if len(links) == 0 {
		logging.Trace("no wake-up recorded", "worker", wk.main, "edge", blocked)
		_, err := wk.appendCopy(blocked)
		return err
	}

	anchor := wk.out.Tail(wk.main)
	first := links[0]
	if src := wk.parent(first.From()); src != wk.main {
		hop := execgraph.NewVertex(cur.Timestamp())
		if err := wk.out.Add(src, hop); err != nil {
			return err
		}
		if _, err := wk.out.Link(anchor, hop); err != nil {
			return err
		}
		anchor = hop
		if first.From().Timestamp() > anchor.Timestamp() {
			gap := execgraph.NewVertex(first.From().Timestamp())
			if _, err := wk.out.Append(src, gap, execgraph.EdgeUnknown); err != nil {
				return err
			}
			anchor = gap
		}
	}

	var prev *execgraph.Edge
	var err error
	for _, l := range links {
		if prev != nil && prev.To() != l.From() {
			anchor, err = wk.place(anchor, prev.To(), l.From(), prev.To().Timestamp(), execgraph.EdgeDefault, "")
			if err != nil {
				return err
			}
		}
		anchor, err = wk.place(anchor, l.From(), l.To(), l.To().Timestamp(), l.Type(), l.Qualifier())
		if err != nil {
			return err
		}
		prev = l
	}

	logging.Debug("spliced wake-up chain", "worker", wk.main, "at", cur.Timestamp(), "edges", len(links))
	return nil
}

// frame resolves one blocked edge. path runs backwards in time: path[0] is
// the wake-up link into the end of the block.
type frame struct {
	bound  int64
	path   []*execgraph.Edge
	marks  []mark
	cursor *execgraph.Vertex
}

// mark remembers a vertex whose incoming link is the alternative to
// follow when the history walked from there dead-ends.
type mark struct {
	vertex *execgraph.Vertex
	depth  int
}

type resolver struct {
	onPath   map[*execgraph.Vertex]bool
	explored map[*execgraph.Vertex]bool
}

// resolveBounded returns, newest first, the edges that explain why the
// blocked edge ended when it did, going back no further than bound. Nested
// blocks are resolved on an explicit stack of frames.
func resolveBounded(blocked *execgraph.Edge, bound int64) []*execgraph.Edge {
	r := &resolver{
		onPath:   make(map[*execgraph.Vertex]bool),
		explored: make(map[*execgraph.Vertex]bool),
	}
	root := r.open(blocked, bound)
	if root == nil {
		return nil
	}

	stack := []*frame{root}
	for {
		top := stack[len(stack)-1]
		child, done := r.step(top)
		if child != nil {
			stack = append(stack, child)
			continue
		}
		if !done {
			continue
		}
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return top.path
		}
		parent := stack[len(stack)-1]
		parent.path = append(parent.path, top.path...)
		parent.cursor = top.path[len(top.path)-1].From()
	}
}

func (r *resolver) open(blocked *execgraph.Edge, bound int64) *frame {
	junction := findIncoming(blocked.To())
	if junction == nil {
		return nil
	}
	in := junction.Edge(execgraph.IncomingVertical)
	if r.onPath[in.From()] {
		return nil
	}
	r.onPath[junction] = true
	r.onPath[in.From()] = true
	return &frame{
		bound:  max(bound, blocked.From().Timestamp()),
		path:   []*execgraph.Edge{in},
		cursor: in.From(),
	}
}

// step moves the frame one edge back in time. It returns a child frame when
// a nested block must be resolved first, or done once the frame reached its
// bound or ran out of history.
func (r *resolver) step(f *frame) (child *frame, done bool) {
	v := f.cursor
	if v.Timestamp() <= f.bound {
		return nil, true
	}

	in := v.Edge(execgraph.IncomingVertical)
	if in != nil && in.From().Timestamp() <= f.bound {
		r.advance(f, in)
		return nil, true
	}

	h := v.Edge(execgraph.IncomingHorizontal)
	if h != nil && blocking(h.Type()) {
		if child := r.open(h, f.bound); child != nil {
			return child, false
		}
	} else if in != nil && !r.explored[v] {
		f.marks = append(f.marks, mark{vertex: v, depth: len(f.path)})
	}

	if h == nil || !r.advance(f, h) {
		return nil, r.backtrack(f)
	}
	return nil, false
}

// advance extends the path with e unless that would close a cycle
func (r *resolver) advance(f *frame, e *execgraph.Edge) bool {
	if r.onPath[e.From()] {
		return false
	}
	r.onPath[e.From()] = true
	f.path = append(f.path, e)
	f.cursor = e.From()
	return true
}

// backtrack drops the history walked since the latest mark and follows the
// mark's incoming link instead. It reports whether no alternative is left.
func (r *resolver) backtrack(f *frame) bool {
	for len(f.marks) > 0 {
		m := f.marks[len(f.marks)-1]
		f.marks = f.marks[:len(f.marks)-1]
		if r.explored[m.vertex] {
			continue
		}
		r.explored[m.vertex] = true

		for _, e := range f.path[m.depth:] {
			delete(r.onPath, e.From())
		}
		f.path = f.path[:m.depth]
		f.cursor = m.vertex
		if r.advance(f, m.vertex.Edge(execgraph.IncomingVertical)) {
			return false
		}
	}
	return true
}
