package criticalpath

import (
	"fmt"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/logging"
)

// Unbounded is the critical path algorithm that keeps only the vertical links
// needed to certify the elapsed time. When a waker was itself started by the
// main worker, the main worker's own activity between that fork and the block
// is dropped. Shapes with competing or untraceable causes are refused with
// ErrUnsupported.
type Unbounded struct {
	graph *execgraph.Graph
}

// NewUnbounded binds the unbounded algorithm to a completed graph
func NewUnbounded(g *execgraph.Graph) *Unbounded {
	return &Unbounded{graph: g}
}

func (u *Unbounded) Name() string {
	return NameUnbounded
}

// hop is one step of a resolved chain. An unknown hop stands for a waker
// with no history: the gap is charged to the blocked worker as UNKNOWN and
// the wake-up becomes a link from the blocked worker to itself.
type hop struct {
	edge    *execgraph.Edge
	unknown bool
}

// Compute walks the main worker's lifeline from start to end
func (u *Unbounded) Compute(start, end *execgraph.Vertex) (*execgraph.Graph, error) {
	wk, err := newWalk(u.graph, start, end)
	if err != nil {
		return nil, err
	}

	first := wk.out.Tail(wk.main)
	copies := map[*execgraph.Vertex]*execgraph.Vertex{start: first}
	floor := first

	for cur := start; ; {
		e := wk.next(cur)
		if e == nil {
			break
		}
		switch {
		case silent(e):
			copies[e.To()] = wk.out.Tail(wk.main)
		case blocking(e.Type()):
			chain, fork, err := u.resolve(wk, e, wk.main, make(map[*execgraph.Edge]bool))
			if err != nil {
				return nil, err
			}
			if err := truncate(wk, copies[fork], floor); err != nil {
				return nil, err
			}
			last, err := u.splice(wk, chain)
			if err != nil {
				return nil, err
			}
			copies[e.To()] = last
			floor = last
		default:
			v, err := wk.appendCopy(e)
			if err != nil {
				return nil, err
			}
			copies[e.To()] = v
		}
		cur = e.To()
	}
	return wk.out, nil
}

// resolve explains the end of a blocked edge of owner. It returns the chain
// newest first and the fork: the vertex of owner from which the chain
// starts.
func (u *Unbounded) resolve(wk *walk, blocked *execgraph.Edge, owner execgraph.Worker, visiting map[*execgraph.Edge]bool) ([]hop, *execgraph.Vertex, error) {
	if visiting[blocked] {
		return nil, nil, fmt.Errorf("%w: causal cycle through %s on %s", ErrUnsupported, blocked, owner)
	}
	visiting[blocked] = true
	defer delete(visiting, blocked)

	since := blocked.From()
	junction := findIncoming(blocked.To())
	if junction == nil {
		return nil, nil, fmt.Errorf("%w: no wake-up for %s on %s", ErrUnsupported, blocked, owner)
	}
	wake := junction.Edge(execgraph.IncomingVertical)
	waker := wake.From()

	if wk.parent(waker) == owner {
		if waker.Timestamp() > since.Timestamp() {
			return nil, nil, fmt.Errorf("%w: %s woken from inside its own block at %d", ErrUnsupported, owner, waker.Timestamp())
		}
		return []hop{{edge: wake}}, waker, nil
	}

	chain := []hop{{edge: wake}}
	seen := make(map[*execgraph.Vertex]bool)
	for y := waker; ; {
		if seen[y] {
			return nil, nil, fmt.Errorf("%w: causal cycle at %d on %s", ErrUnsupported, y.Timestamp(), wk.parent(y))
		}
		seen[y] = true

		in := y.Edge(execgraph.IncomingVertical)
		h := y.Edge(execgraph.IncomingHorizontal)

		if in != nil {
			src := in.From()
			if wk.parent(src) == owner && src.Timestamp() <= since.Timestamp() {
				logging.Trace("fork point found", "worker", owner, "at", src.Timestamp(), "waker", wk.parent(waker))
				return append(chain, hop{edge: in}), src, nil
			}
			if h == nil || !blocking(h.Type()) {
				return nil, nil, fmt.Errorf("%w: %s relays a wake-up from %s", ErrUnsupported, wk.parent(y), wk.parent(src))
			}
		}

		if h == nil {
			if y == waker {
				return []hop{{edge: wake, unknown: true}}, since, nil
			}
			return nil, nil, fmt.Errorf("%w: history of %s ends at %d before reaching %s", ErrUnsupported, wk.parent(y), y.Timestamp(), owner)
		}

		if blocking(h.Type()) {
			sub, fork, err := u.resolve(wk, h, wk.parent(y), visiting)
			if err != nil {
				return nil, nil, err
			}
			chain = append(chain, sub...)
			y = fork
			continue
		}
		if !silent(h) {
			chain = append(chain, hop{edge: h})
		}
		y = h.From()
	}
}

// truncate rolls the main lifeline of the output back to target. Nothing at
// or before floor, the end of the previous splice, may be removed.
func truncate(wk *walk, target, floor *execgraph.Vertex) error {
	if target == nil || !wk.out.Contains(target) {
		return fmt.Errorf("%w: fork point of %s is no longer on the path", ErrUnsupported, wk.main)
	}
	for tail := wk.out.Tail(wk.main); tail != target; tail = wk.out.Tail(wk.main) {
		if tail == floor {
			return fmt.Errorf("%w: fork point of %s precedes an earlier wake-up at %d", ErrUnsupported, wk.main, floor.Timestamp())
		}
		if _, err := wk.out.RemoveTail(wk.main); err != nil {
			return err
		}
	}
	return nil
}

// splice replays chain, oldest first, from the current tail of the main
// worker and returns the copy of the block end.
func (u *Unbounded) splice(wk *walk, chain []hop) (*execgraph.Vertex, error) {
	anchor := wk.out.Tail(wk.main)
	for i := len(chain) - 1; i >= 0; i-- {
		e := chain[i].edge
		if chain[i].unknown {
			owner := wk.parent(e.To())
			if e.From().Timestamp() > anchor.Timestamp() {
				gap := execgraph.NewVertex(e.From().Timestamp())
				if _, err := wk.out.Append(owner, gap, execgraph.EdgeUnknown); err != nil {
					return nil, err
				}
				anchor = gap
			}
			end := execgraph.NewVertex(e.To().Timestamp())
			if err := wk.out.Add(owner, end); err != nil {
				return nil, err
			}
			if _, err := wk.out.Link(anchor, end, execgraph.WithType(e.Type()), execgraph.WithQualifier(e.Qualifier())); err != nil {
				return nil, err
			}
			anchor = end
			continue
		}

		var err error
		anchor, err = wk.place(anchor, e.From(), e.To(), e.To().Timestamp(), e.Type(), e.Qualifier())
		if err != nil {
			return nil, err
		}
	}
	return anchor, nil
}
