// Package execgraph models the execution of a traced system as a ladder:
// one horizontal chain of vertices per worker (its lifeline) with vertical
// rungs between chains recording causality such as wake-ups, timers or
// network messages.
//
// A Graph is built by a single writer through Add, Append and Link and is
// read-only afterwards; concurrent readers need no locking once construction
// is over.
package execgraph

import (
	"fmt"
	"slices"
	"strings"
)

// Graph owns, per worker, the ordered lifeline of that worker's vertices
type Graph struct {
	lifelines map[Worker][]*Vertex
	parents   map[*Vertex]Worker
	workers   []Worker
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		lifelines: make(map[Worker][]*Vertex),
		parents:   make(map[*Vertex]Worker),
	}
}

// Add registers v as the next vertex of w's lifeline without a horizontal
// edge from the previous vertex.
func (g *Graph) Add(w Worker, v *Vertex) error {
	if err := g.checkAdoptable(w, v); err != nil {
		return err
	}
	g.adopt(w, v)
	return nil
}

// Append registers v as the next vertex of w's lifeline and connects it to
// the current tail with a horizontal edge of type t. The worker must already
// own a vertex.
func (g *Graph) Append(w Worker, v *Vertex, t EdgeType, opts ...EdgeOption) (*Edge, error) {
	tail := g.Tail(w)
	if tail == nil {
		return nil, fmt.Errorf("%w: append to %s which has no vertex", ErrInvalidState, w)
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEdgeType, t)
	}
	if err := g.checkAdoptable(w, v); err != nil {
		return nil, err
	}

	e := &Edge{from: tail, to: v}
	for _, opt := range opts {
		opt(e)
	}
	e.typ = t

	g.adopt(w, v)
	tail.edges[OutgoingHorizontal] = e
	v.edges[IncomingHorizontal] = e
	return e, nil
}

// Link creates a vertical edge between two vertices of this graph. The edge
// is DEFAULT unless WithType says otherwise.
func (g *Graph) Link(from, to *Vertex, opts ...EdgeOption) (*Edge, error) {
	if !g.Contains(from) {
		return nil, fmt.Errorf("link source %v: %w", from, ErrNotInGraph)
	}
	if !g.Contains(to) {
		return nil, fmt.Errorf("link target %v: %w", to, ErrNotInGraph)
	}
	if from == to {
		return nil, fmt.Errorf("%w: %s", ErrSelfLink, from)
	}
	if to.ts < from.ts {
		return nil, fmt.Errorf("%w: link %s -> %s", ErrNonMonotonic, from, to)
	}
	if from.edges[OutgoingVertical] != nil {
		return nil, fmt.Errorf("%w: %s already has an outgoing link", ErrSlotTaken, from)
	}
	if to.edges[IncomingVertical] != nil {
		return nil, fmt.Errorf("%w: %s already has an incoming link", ErrSlotTaken, to)
	}

	e := &Edge{from: from, to: to, typ: EdgeDefault, vertical: true}
	for _, opt := range opts {
		opt(e)
	}
	if !e.typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEdgeType, e.typ)
	}

	from.edges[OutgoingVertical] = e
	to.edges[IncomingVertical] = e
	return e, nil
}

func (g *Graph) checkAdoptable(w Worker, v *Vertex) error {
	if v == nil {
		return fmt.Errorf("%w: nil vertex", ErrInvalidState)
	}
	if v.owner != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateVertex, v)
	}
	if tail := g.Tail(w); tail != nil && v.ts < tail.ts {
		return fmt.Errorf("%w: %s after %s on %s", ErrNonMonotonic, v, tail, w)
	}
	return nil
}

func (g *Graph) adopt(w Worker, v *Vertex) {
	nodes, known := g.lifelines[w]
	if !known {
		g.workers = append(g.workers, w)
	}
	g.lifelines[w] = append(nodes, v)
	g.parents[v] = w
	v.owner = g
}

// Workers returns the workers owning at least one vertex, in the order they
// were first seen.
func (g *Graph) Workers() []Worker {
	return slices.Clone(g.workers)
}

// NodesOf returns w's vertices in append order
func (g *Graph) NodesOf(w Worker) []*Vertex {
	return slices.Clone(g.lifelines[w])
}

// ParentOf returns the worker owning v
func (g *Graph) ParentOf(v *Vertex) (Worker, error) {
	w, ok := g.parents[v]
	if !ok {
		return Worker{}, fmt.Errorf("%v: %w", v, ErrNotInGraph)
	}
	return w, nil
}

// Contains reports whether v belongs to this graph
func (g *Graph) Contains(v *Vertex) bool {
	if v == nil || v.owner != g {
		return false
	}
	_, ok := g.parents[v]
	return ok
}

// Size returns the total number of vertices
func (g *Graph) Size() int {
	return len(g.parents)
}

// Head returns the first vertex of w's lifeline, or nil
func (g *Graph) Head(w Worker) *Vertex {
	nodes := g.lifelines[w]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Tail returns the last vertex of w's lifeline, or nil
func (g *Graph) Tail(w Worker) *Vertex {
	nodes := g.lifelines[w]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[len(nodes)-1]
}

// HeadOf returns the head of the lifeline v belongs to
func (g *Graph) HeadOf(v *Vertex) *Vertex {
	w, ok := g.parents[v]
	if !ok {
		return nil
	}
	return g.Head(w)
}

// FirstHead returns the earliest lifeline head of the graph. Ties go to the
// worker seen first.
func (g *Graph) FirstHead() *Vertex {
	var first *Vertex
	for _, w := range g.workers {
		h := g.Head(w)
		if h != nil && (first == nil || h.ts < first.ts) {
			first = h
		}
	}
	return first
}

// VertexAt returns the first vertex of w's lifeline at or after ts, or nil
func (g *Graph) VertexAt(ts int64, w Worker) *Vertex {
	nodes := g.lifelines[w]
	i, _ := slices.BinarySearchFunc(nodes, ts, func(v *Vertex, t int64) int {
		return cmpTimestamp(v.ts, t)
	})
	if i == len(nodes) {
		return nil
	}
	return nodes[i]
}

// cmpTimestamp treats equal timestamps as "after" so the search lands on the
// first of several vertices sharing ts.
func cmpTimestamp(a, b int64) int {
	if a < b {
		return -1
	}
	return 1
}

// RemoveTail detaches the last vertex of w's lifeline together with its
// incoming horizontal edge. A vertex still carrying a vertical edge cannot be
// removed.
func (g *Graph) RemoveTail(w Worker) (*Vertex, error) {
	nodes := g.lifelines[w]
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s has no vertex", ErrInvalidState, w)
	}
	v := nodes[len(nodes)-1]
	if v.edges[OutgoingVertical] != nil || v.edges[IncomingVertical] != nil {
		return nil, fmt.Errorf("%w: %s on %s is still linked", ErrInvalidState, v, w)
	}

	if in := v.edges[IncomingHorizontal]; in != nil {
		in.from.edges[OutgoingHorizontal] = nil
		v.edges[IncomingHorizontal] = nil
	}
	nodes[len(nodes)-1] = nil
	g.lifelines[w] = nodes[:len(nodes)-1]
	delete(g.parents, v)
	v.owner = nil

	if len(g.lifelines[w]) == 0 {
		delete(g.lifelines, w)
		g.workers = slices.DeleteFunc(g.workers, func(o Worker) bool { return o == w })
	}
	return v, nil
}

// String dumps the graph one lifeline per line, for diagnostics
func (g *Graph) String() string {
	var b strings.Builder
	for _, w := range g.workers {
		fmt.Fprintf(&b, "%s:", w)
		for _, v := range g.lifelines[w] {
			if in := v.edges[IncomingHorizontal]; in != nil {
				fmt.Fprintf(&b, " -%s->", in.typ)
			} else {
				b.WriteString(" |")
			}
			fmt.Fprintf(&b, " %d", v.ts)
			if out := v.edges[OutgoingVertical]; out != nil {
				fmt.Fprintf(&b, "(%s v %s@%d)", out.typ, g.parents[out.to], out.to.ts)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
