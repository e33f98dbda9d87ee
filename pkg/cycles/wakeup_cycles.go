package cycles

import (
	"cmp"
	"slices"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/graph"
)

// Cycle is a set of vertices that cause each other. Since edges never go
// back in time, all of them share one timestamp.
type Cycle struct {
	Timestamp int64               `json:"timestamp"`
	Vertices  []*execgraph.Vertex `json:"-"`
	Workers   []execgraph.Worker  `json:"workers"`
}

// FindCycles finds the causal cycles of g, ordered by timestamp
func FindCycles(g *execgraph.Graph) []Cycle {
	ix := graph.Build(g)
	if _, err := ix.Order(); err == nil {
		return nil
	}
	sccs := cyclicComponents(ix.Graph())

	cycles := make([]Cycle, 0, len(sccs))
	for _, scc := range sccs {
		vertices := ix.Vertices(scc)
		c := Cycle{Timestamp: vertices[0].Timestamp(), Vertices: vertices}
		for _, v := range vertices {
			w, err := g.ParentOf(v)
			if err == nil && !slices.Contains(c.Workers, w) {
				c.Workers = append(c.Workers, w)
			}
		}
		cycles = append(cycles, c)
	}

	slices.SortStableFunc(cycles, func(a, b Cycle) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return cycles
}

// cyclicComponents returns the node IDs of every strongly connected component
// with more than one node, each sorted ascending
func cyclicComponents(g gonum.Directed) [][]int64 {
	var out [][]int64
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	return out
}
