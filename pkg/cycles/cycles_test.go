package cycles

import (
	"slices"
	"testing"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/fixtures"
)

func TestCyclicComponents_NoCycles(t *testing.T) {
	g := simple.NewDirectedGraph()
	g.SetEdge(g.NewEdge(simple.Node(0), simple.Node(1)))
	g.SetEdge(g.NewEdge(simple.Node(1), simple.Node(2)))

	sccs := cyclicComponents(g)
	if len(sccs) != 0 {
		t.Errorf("Expected no cycles, but found %d", len(sccs))
	}
}

func TestCyclicComponents_TwoCycles(t *testing.T) {
	g := simple.NewDirectedGraph()
	for _, e := range [][2]int64{{0, 1}, {1, 0}, {1, 2}, {2, 3}, {3, 4}, {4, 2}} {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}

	sccs := cyclicComponents(g)
	if len(sccs) != 2 {
		t.Fatalf("Expected 2 cycles, but found %d", len(sccs))
	}

	sizes := map[int]bool{}
	for _, scc := range sccs {
		sizes[len(scc)] = true
	}
	if !sizes[2] || !sizes[3] {
		t.Errorf("Expected cycles of size 2 and 3, got %v", sccs)
	}
	for _, scc := range sccs {
		if !slices.IsSorted(scc) {
			t.Errorf("Expected sorted component, got %v", scc)
		}
	}
}

func TestCyclicComponents_LongRing(t *testing.T) {
	const n = 200000
	g := simple.NewDirectedGraph()
	for i := int64(0); i < n; i++ {
		g.SetEdge(g.NewEdge(simple.Node(i), simple.Node((i+1)%n)))
	}

	sccs := cyclicComponents(g)
	if len(sccs) != 1 || len(sccs[0]) != n {
		t.Fatalf("Expected one cycle of %d nodes, got %d components", n, len(sccs))
	}
}

func TestFindCycles_Fixtures(t *testing.T) {
	for _, f := range fixtures.All() {
		g, err := f.Build()
		if err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		if cycles := FindCycles(g); len(cycles) != 0 {
			t.Errorf("%s: expected no causal cycles, got %d", f.Name, len(cycles))
		}
	}
}

func TestFindCycles_ZeroDurationLoop(t *testing.T) {
	w1 := execgraph.NewWorker("host", "w1")
	w2 := execgraph.NewWorker("host", "w2")

	g := execgraph.New()
	x1, x2 := execgraph.NewVertex(5), execgraph.NewVertex(5)
	y1, y2 := execgraph.NewVertex(5), execgraph.NewVertex(5)
	steps := []error{
		g.Add(w1, execgraph.NewVertex(1)),
	}
	_, err := g.Append(w1, x1, execgraph.EdgeRunning)
	steps = append(steps, err)
	_, err = g.Append(w1, x2, execgraph.EdgeRunning)
	steps = append(steps, err, g.Add(w2, y1))
	_, err = g.Append(w2, y2, execgraph.EdgeRunning)
	steps = append(steps, err)
	_, err = g.Link(x2, y1)
	steps = append(steps, err)
	_, err = g.Link(y2, x1)
	steps = append(steps, err)
	for _, err := range steps {
		if err != nil {
			t.Fatalf("building graph: %v", err)
		}
	}

	cycles := FindCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, but found %d", len(cycles))
	}

	c := cycles[0]
	if c.Timestamp != 5 {
		t.Errorf("Expected cycle at 5, got %d", c.Timestamp)
	}
	if len(c.Vertices) != 4 {
		t.Errorf("Expected 4 vertices in the cycle, got %d", len(c.Vertices))
	}
	if len(c.Workers) != 2 || c.Workers[0] != w1 || c.Workers[1] != w2 {
		t.Errorf("Unexpected workers %v", c.Workers)
	}
}
