package graph

import (
	"fmt"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/ritzau/critpath/pkg/execgraph"
)

// Index maps every vertex of an execution graph onto a node of a gonum
// directed graph, so generic graph algorithms can run over it. Both
// horizontal and vertical edges become directed edges.
type Index struct {
	graph    *simple.DirectedGraph
	ids      map[*execgraph.Vertex]int64
	vertices []*execgraph.Vertex // indexed by node ID
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[*execgraph.Vertex]int64),
	}
}

// Build indexes every vertex and edge of g. Vertices are numbered worker by
// worker in lifeline order.
func Build(g *execgraph.Graph) *Index {
	ix := NewIndex()
	for _, w := range g.Workers() {
		for _, v := range g.NodesOf(w) {
			ix.AddVertex(v)
		}
	}
	for _, w := range g.Workers() {
		for _, v := range g.NodesOf(w) {
			for _, d := range []execgraph.Direction{execgraph.OutgoingHorizontal, execgraph.OutgoingVertical} {
				if e := v.Edge(d); e != nil {
					ix.AddEdge(e)
				}
			}
		}
	}
	return ix
}

// AddVertex adds v to the index and returns its node ID
func (ix *Index) AddVertex(v *execgraph.Vertex) int64 {
	if id, exists := ix.ids[v]; exists {
		return id
	}

	id := int64(len(ix.vertices))
	ix.ids[v] = id
	ix.vertices = append(ix.vertices, v)
	ix.graph.AddNode(simple.Node(id))
	return id
}

// AddEdge adds a directed edge between the endpoints of e, indexing them
// first if needed.
func (ix *Index) AddEdge(e *execgraph.Edge) {
	from := ix.AddVertex(e.From())
	to := ix.AddVertex(e.To())

	// Parallel horizontal and vertical edges collapse into one
	if !ix.graph.HasEdgeFromTo(from, to) {
		ix.graph.SetEdge(ix.graph.NewEdge(ix.graph.Node(from), ix.graph.Node(to)))
	}
}

// ID returns the node ID of v
func (ix *Index) ID(v *execgraph.Vertex) (int64, bool) {
	id, exists := ix.ids[v]
	return id, exists
}

// Vertex returns the vertex indexed under id, or nil
func (ix *Index) Vertex(id int64) *execgraph.Vertex {
	if id < 0 || id >= int64(len(ix.vertices)) {
		return nil
	}
	return ix.vertices[id]
}

// Vertices converts node IDs back to vertices, skipping unknown IDs
func (ix *Index) Vertices(ids []int64) []*execgraph.Vertex {
	vs := make([]*execgraph.Vertex, 0, len(ids))
	for _, id := range ids {
		if v := ix.Vertex(id); v != nil {
			vs = append(vs, v)
		}
	}
	return vs
}

// Len returns the number of indexed vertices
func (ix *Index) Len() int {
	return len(ix.vertices)
}

// Graph returns the underlying directed graph
func (ix *Index) Graph() *simple.DirectedGraph {
	return ix.graph
}

// Successors returns the vertices v has an edge to
func (ix *Index) Successors(v *execgraph.Vertex) []*execgraph.Vertex {
	id, exists := ix.ids[v]
	if !exists {
		return nil
	}

	var out []*execgraph.Vertex
	iter := ix.graph.From(id)
	for iter.Next() {
		out = append(out, ix.vertices[iter.Node().ID()])
	}
	return out
}

// Predecessors returns the vertices with an edge into v
func (ix *Index) Predecessors(v *execgraph.Vertex) []*execgraph.Vertex {
	id, exists := ix.ids[v]
	if !exists {
		return nil
	}

	var out []*execgraph.Vertex
	iter := ix.graph.To(id)
	for iter.Next() {
		out = append(out, ix.vertices[iter.Node().ID()])
	}
	return out
}

// Reachable returns every vertex reachable from start, start included, in
// breadth-first order.
func (ix *Index) Reachable(start *execgraph.Vertex) []*execgraph.Vertex {
	id, exists := ix.ids[start]
	if !exists {
		return nil
	}

	var out []*execgraph.Vertex
	var bf traverse.BreadthFirst
	bf.Walk(ix.graph, ix.graph.Node(id), func(n gonum.Node, _ int) bool {
		out = append(out, ix.vertices[n.ID()])
		return false
	})
	return out
}

// Order returns the vertices in a causal order: every edge points forward
// in the result. It fails when the graph holds a cycle.
func (ix *Index) Order() ([]*execgraph.Vertex, error) {
	sorted, err := topo.Sort(ix.graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", execgraph.ErrCycle, err)
	}

	out := make([]*execgraph.Vertex, len(sorted))
	for i, n := range sorted {
		out[i] = ix.vertices[n.ID()]
	}
	return out, nil
}
