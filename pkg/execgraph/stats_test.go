package execgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphStatistics(t *testing.T) {
	g, _, _ := buildFullGraph(t)

	stats, err := ComputeStatistics(g)
	require.NoError(t, err)

	assert.Equal(t, int64(12), stats.Sum(worker1))
	assert.Equal(t, int64(11), stats.Sum(worker2))
	assert.Equal(t, int64(23), stats.Total())
	assert.Equal(t, int64(23), stats.TypeTotal(EdgeRunning))
	assert.Equal(t, map[EdgeType]int64{EdgeRunning: 12}, stats.ByType(worker1))

	assert.Equal(t, 21, stats.Vertices)
	assert.Equal(t, 6, stats.Segments)
	assert.Equal(t, 15, stats.HorizontalEdges)
	assert.Equal(t, 5, stats.VerticalEdges)
	assert.Equal(t, []Worker{worker1, worker2}, stats.Workers())
}

func TestStatisticsDisconnected(t *testing.T) {
	g := New()
	require.NoError(t, g.Add(worker1, NewVertex(0)))
	_, err := g.Append(worker1, NewVertex(4), EdgeBlocked)
	require.NoError(t, err)
	require.NoError(t, g.Add(worker2, NewVertex(1)))
	_, err = g.Append(worker2, NewVertex(3), EdgeRunning)
	require.NoError(t, err)

	stats, err := ComputeStatistics(g)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Sum(worker1))
	assert.Equal(t, int64(2), stats.Sum(worker2))
	assert.Equal(t, int64(4), stats.TypeTotal(EdgeBlocked))
	assert.Equal(t, 2, stats.Segments)
}
