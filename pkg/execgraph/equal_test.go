package execgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a single lifeline; a zero type means Add instead of Append
func chain(t *testing.T, g *Graph, w Worker, ts []int64, types []EdgeType) []*Vertex {
	t.Helper()
	out := make([]*Vertex, len(ts))
	for i := range ts {
		out[i] = NewVertex(ts[i])
		if types[i] == "" {
			require.NoError(t, g.Add(w, out[i]))
			continue
		}
		_, err := g.Append(w, out[i], types[i])
		require.NoError(t, err)
	}
	return out
}

func TestEquivalentReflexiveAndSymmetric(t *testing.T) {
	g1, _, _ := buildFullGraph(t)
	g2, _, _ := buildFullGraph(t)

	require.NoError(t, Equivalent(g1, g1))
	require.NoError(t, Equivalent(g1, g2))
	require.NoError(t, Equivalent(g2, g1))
	assert.True(t, Equal(New(), New()))
}

func TestEquivalentDifferences(t *testing.T) {
	base := func() *Graph {
		g := New()
		a := chain(t, g, worker1, []int64{0, 2, 4}, []EdgeType{"", EdgeRunning, EdgeBlocked})
		b := chain(t, g, worker2, []int64{3}, []EdgeType{""})
		_, err := g.Link(b[0], a[2], WithType(EdgeNetwork))
		require.NoError(t, err)
		return g
	}

	tests := []struct {
		name  string
		build func() *Graph
	}{
		{"edge type", func() *Graph {
			g := New()
			a := chain(t, g, worker1, []int64{0, 2, 4}, []EdgeType{"", EdgeRunning, EdgeTimer})
			b := chain(t, g, worker2, []int64{3}, []EdgeType{""})
			_, err := g.Link(b[0], a[2], WithType(EdgeNetwork))
			require.NoError(t, err)
			return g
		}},
		{"timestamp", func() *Graph {
			g := New()
			a := chain(t, g, worker1, []int64{0, 1, 4}, []EdgeType{"", EdgeRunning, EdgeBlocked})
			b := chain(t, g, worker2, []int64{3}, []EdgeType{""})
			_, err := g.Link(b[0], a[2], WithType(EdgeNetwork))
			require.NoError(t, err)
			return g
		}},
		{"missing link", func() *Graph {
			g := New()
			chain(t, g, worker1, []int64{0, 2, 4}, []EdgeType{"", EdgeRunning, EdgeBlocked})
			chain(t, g, worker2, []int64{3}, []EdgeType{""})
			return g
		}},
		{"qualifier", func() *Graph {
			g := New()
			a := chain(t, g, worker1, []int64{0, 2, 4}, []EdgeType{"", EdgeRunning, EdgeBlocked})
			b := chain(t, g, worker2, []int64{3}, []EdgeType{""})
			_, err := g.Link(b[0], a[2], WithType(EdgeNetwork), WithQualifier("udp"))
			require.NoError(t, err)
			return g
		}},
		{"link owner", func() *Graph {
			g := New()
			a := chain(t, g, worker1, []int64{0, 2, 4}, []EdgeType{"", EdgeRunning, EdgeBlocked})
			b := chain(t, g, NewWorker("host", "worker3"), []int64{3}, []EdgeType{""})
			_, err := g.Link(b[0], a[2], WithType(EdgeNetwork))
			require.NoError(t, err)
			return g
		}},
		{"vertex count", func() *Graph {
			g := New()
			a := chain(t, g, worker1, []int64{0, 2, 4, 5}, []EdgeType{"", EdgeRunning, EdgeBlocked, EdgeRunning})
			b := chain(t, g, worker2, []int64{3}, []EdgeType{""})
			_, err := g.Link(b[0], a[2], WithType(EdgeNetwork))
			require.NoError(t, err)
			return g
		}},
	}

	expected := base()
	require.NoError(t, Equivalent(expected, base()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := tt.build()
			require.ErrorIs(t, Equivalent(expected, actual), ErrNotEquivalent)
			require.ErrorIs(t, Equivalent(actual, expected), ErrNotEquivalent)
			assert.False(t, Equal(expected, actual))
		})
	}
}
