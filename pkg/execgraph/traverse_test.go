package execgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanCounter struct {
	heads, vertices, hLinks, vLinks int
	seen                            map[*Vertex]bool
	duplicates                      int
}

func (c *scanCounter) VisitHead(*Vertex) { c.heads++ }

func (c *scanCounter) VisitVertex(v *Vertex) {
	if c.seen[v] {
		c.duplicates++
	}
	c.seen[v] = true
	c.vertices++
}

func (c *scanCounter) VisitEdge(_ *Edge, horizontal bool) {
	if horizontal {
		c.hLinks++
	} else {
		c.vLinks++
	}
}

func TestScanCount(t *testing.T) {
	g, _, _ := buildFullGraph(t)

	c := &scanCounter{seen: make(map[*Vertex]bool)}
	require.NoError(t, g.ScanLine(g.Head(worker1), c))

	assert.Equal(t, 21, c.vertices)
	assert.Equal(t, 6, c.heads)
	assert.Equal(t, 5, c.vLinks)
	assert.Equal(t, 15, c.hLinks)
	assert.Zero(t, c.duplicates)
}

func TestScanFromMiddle(t *testing.T) {
	g, _, b := buildFullGraph(t)

	c := &scanCounter{seen: make(map[*Vertex]bool)}
	require.NoError(t, g.ScanLine(b[5], c))
	assert.Equal(t, 21, c.vertices)
	assert.Zero(t, c.duplicates)
}

func TestScanSelfLink(t *testing.T) {
	g := New()
	v := []*Vertex{NewVertex(0), NewVertex(1), NewVertex(2), NewVertex(3)}
	require.NoError(t, g.Add(worker1, v[0]))
	for _, x := range v[1:] {
		_, err := g.Append(worker1, x, EdgeRunning)
		require.NoError(t, err)
	}
	_, err := g.Link(v[1], v[3], WithType(EdgeTimer))
	require.NoError(t, err)

	var vertical []*Edge
	err = g.ScanLine(v[0], VisitorFuncs{
		Edge: func(e *Edge, horizontal bool) {
			if !horizontal {
				vertical = append(vertical, e)
			}
		},
	})
	require.NoError(t, err)
	require.Len(t, vertical, 1)
	assert.Equal(t, EdgeTimer, vertical[0].Type())
}

func TestScanForeignStart(t *testing.T) {
	g := New()
	err := g.ScanLine(NewVertex(0), VisitorFuncs{})
	require.ErrorIs(t, err, ErrNotInGraph)
}
