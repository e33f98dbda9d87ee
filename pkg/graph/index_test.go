package graph

import (
	"errors"
	"testing"

	"github.com/ritzau/critpath/pkg/execgraph"
)

var (
	workerA = execgraph.NewWorker("host", "a")
	workerB = execgraph.NewWorker("host", "b")
)

// buildSmallGraph builds
//
//	A  0-2-5
//	     |
//	B  1-4
func buildSmallGraph(t *testing.T) (*execgraph.Graph, []*execgraph.Vertex, []*execgraph.Vertex) {
	t.Helper()

	g := execgraph.New()
	a := []*execgraph.Vertex{execgraph.NewVertex(0), execgraph.NewVertex(2), execgraph.NewVertex(5)}
	b := []*execgraph.Vertex{execgraph.NewVertex(1), execgraph.NewVertex(4)}

	mustNil(t, g.Add(workerA, a[0]))
	for _, v := range a[1:] {
		_, err := g.Append(workerA, v, execgraph.EdgeRunning)
		mustNil(t, err)
	}
	mustNil(t, g.Add(workerB, b[0]))
	_, err := g.Append(workerB, b[1], execgraph.EdgeRunning)
	mustNil(t, err)
	_, err = g.Link(a[1], b[1])
	mustNil(t, err)
	return g, a, b
}

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func vertexSet(vs []*execgraph.Vertex) map[*execgraph.Vertex]bool {
	set := make(map[*execgraph.Vertex]bool, len(vs))
	for _, v := range vs {
		set[v] = true
	}
	return set
}

func TestNewIndex(t *testing.T) {
	ix := NewIndex()
	if ix.Len() != 0 {
		t.Errorf("New index should have 0 vertices, got %d", ix.Len())
	}
	if ix.Vertex(0) != nil {
		t.Error("Expected nil vertex for unknown id")
	}
}

func TestBuild(t *testing.T) {
	g, a, b := buildSmallGraph(t)
	ix := Build(g)

	if ix.Len() != 5 {
		t.Fatalf("Expected 5 vertices, got %d", ix.Len())
	}

	// Lifeline order, worker by worker
	for i, v := range append(append([]*execgraph.Vertex{}, a...), b...) {
		id, ok := ix.ID(v)
		if !ok || id != int64(i) {
			t.Errorf("Vertex %v: expected id %d, got %d (%v)", v, i, id, ok)
		}
		if ix.Vertex(id) != v {
			t.Errorf("Vertex(%d) does not round-trip", id)
		}
	}

	if n := ix.Graph().Edges().Len(); n != 4 {
		t.Errorf("Expected 4 edges, got %d", n)
	}
}

func TestAddVertexTwice(t *testing.T) {
	ix := NewIndex()
	v := execgraph.NewVertex(3)

	first := ix.AddVertex(v)
	second := ix.AddVertex(v)

	if first != second {
		t.Errorf("Expected the same id, got %d and %d", first, second)
	}
	if ix.Len() != 1 {
		t.Errorf("Expected 1 vertex, got %d", ix.Len())
	}
}

func TestSuccessorsAndPredecessors(t *testing.T) {
	g, a, b := buildSmallGraph(t)
	ix := Build(g)

	succ := vertexSet(ix.Successors(a[1]))
	if len(succ) != 2 || !succ[a[2]] || !succ[b[1]] {
		t.Errorf("Unexpected successors of %v: %v", a[1], ix.Successors(a[1]))
	}

	pred := vertexSet(ix.Predecessors(b[1]))
	if len(pred) != 2 || !pred[a[1]] || !pred[b[0]] {
		t.Errorf("Unexpected predecessors of %v: %v", b[1], ix.Predecessors(b[1]))
	}

	if ix.Successors(execgraph.NewVertex(9)) != nil {
		t.Error("Expected no successors for an unknown vertex")
	}
}

func TestReachable(t *testing.T) {
	g, a, b := buildSmallGraph(t)
	ix := Build(g)

	got := ix.Reachable(b[0])
	if len(got) != 2 || got[0] != b[0] || got[1] != b[1] {
		t.Errorf("Unexpected reachable set from %v: %v", b[0], got)
	}

	all := vertexSet(ix.Reachable(a[0]))
	for _, v := range []*execgraph.Vertex{a[0], a[1], a[2], b[1]} {
		if !all[v] {
			t.Errorf("Expected %v to be reachable from %v", v, a[0])
		}
	}
	if all[b[0]] {
		t.Errorf("Did not expect %v to be reachable", b[0])
	}
}

func TestOrder(t *testing.T) {
	g, _, _ := buildSmallGraph(t)
	ix := Build(g)

	order, err := ix.Order()
	mustNil(t, err)
	if len(order) != ix.Len() {
		t.Fatalf("Expected %d vertices, got %d", ix.Len(), len(order))
	}

	pos := make(map[*execgraph.Vertex]int)
	for i, v := range order {
		pos[v] = i
	}
	edges := ix.Graph().Edges()
	for edges.Next() {
		e := edges.Edge()
		from, to := ix.Vertex(e.From().ID()), ix.Vertex(e.To().ID())
		if pos[from] >= pos[to] {
			t.Errorf("Edge %v -> %v points backwards in the order", from, to)
		}
	}
}

func TestOrderWithCycle(t *testing.T) {
	g := execgraph.New()
	x1, x2 := execgraph.NewVertex(5), execgraph.NewVertex(5)
	y1, y2 := execgraph.NewVertex(5), execgraph.NewVertex(5)

	mustNil(t, g.Add(workerA, x1))
	_, err := g.Append(workerA, x2, execgraph.EdgeRunning)
	mustNil(t, err)
	mustNil(t, g.Add(workerB, y1))
	_, err = g.Append(workerB, y2, execgraph.EdgeRunning)
	mustNil(t, err)
	_, err = g.Link(x2, y1)
	mustNil(t, err)
	_, err = g.Link(y2, x1)
	mustNil(t, err)

	_, err = Build(g).Order()
	if !errors.Is(err, execgraph.ErrCycle) {
		t.Errorf("Expected ErrCycle, got %v", err)
	}
}
