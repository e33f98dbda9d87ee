package execgraph

import (
	"cmp"
	"fmt"
)

// Vertex is a point in time on one worker's lifeline. It has exactly four
// edge slots, one per Direction, each holding at most one edge.
type Vertex struct {
	ts    int64
	edges [4]*Edge
	owner *Graph
}

// NewVertex creates a detached vertex at the given timestamp (nanoseconds)
func NewVertex(ts int64) *Vertex {
	return &Vertex{ts: ts}
}

// Timestamp returns the vertex time in nanoseconds
func (v *Vertex) Timestamp() int64 {
	return v.ts
}

// Edge returns the edge in the given slot, or nil
func (v *Vertex) Edge(d Direction) *Edge {
	return v.edges[d]
}

// Neighbor returns the vertex at the other end of the edge in slot d
func (v *Vertex) Neighbor(d Direction) *Vertex {
	e := v.edges[d]
	if e == nil {
		return nil
	}
	if e.from == v {
		return e.to
	}
	return e.from
}

// Compare orders vertices by timestamp. Vertices of different workers with
// the same timestamp compare as concurrent (0), not as identical.
func (v *Vertex) Compare(o *Vertex) int {
	return cmp.Compare(v.ts, o.ts)
}

// LinkVertical creates a DEFAULT vertical edge from v to to in the graph that
// owns both vertices. The returned edge can then be typed with SetType.
func (v *Vertex) LinkVertical(to *Vertex) (*Edge, error) {
	if v.owner == nil {
		return nil, fmt.Errorf("link from %s: %w", v, ErrNotInGraph)
	}
	return v.owner.Link(v, to)
}

func (v *Vertex) String() string {
	return fmt.Sprintf("[%d]", v.ts)
}
