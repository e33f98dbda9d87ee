package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/critpath/pkg/execgraph"
)

func TestAllFixturesBuild(t *testing.T) {
	all := All()
	require.Len(t, all, 12)

	for _, f := range all {
		t.Run(f.Name, func(t *testing.T) {
			assert.NotEmpty(t, f.Description)
			assert.Equal(t, Worker0, f.Main)

			funcs := []GraphFunc{f.Build, f.Bounded}
			if f.Unbounded != nil {
				funcs = append(funcs, f.Unbounded)
			}
			for _, fn := range funcs {
				g, err := fn()
				require.NoError(t, err)
				require.NotNil(t, g.Head(f.Main))
			}
		})
	}
}

func TestBuildReturnsFreshGraphs(t *testing.T) {
	f, ok := Lookup("nested")
	require.True(t, ok)

	a, err := f.Build()
	require.NoError(t, err)
	b, err := f.Build()
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.NoError(t, execgraph.Equivalent(a, b))
}

func TestAllIsSorted(t *testing.T) {
	var names []string
	for _, f := range All() {
		names = append(names, f.Name)
	}
	assert.IsIncreasing(t, names)
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("no_such_fixture")
	assert.False(t, ok)
}

func TestBuilderKeepsFirstError(t *testing.T) {
	b := newBuilder()
	v := b.add(Worker0, 10)
	b.app(Worker0, 5, running)
	b.app(Worker0, 20, running)
	b.link(v, v, deflt)

	_, err := b.done()
	require.ErrorIs(t, err, execgraph.ErrNonMonotonic)
}

func TestBuilderTypesLinks(t *testing.T) {
	b := newBuilder()
	from := b.add(Worker0, 1)
	to := b.add(Worker1, 2)
	b.link(from, to, network)

	g, err := b.done()
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, execgraph.EdgeNetwork, to.Edge(execgraph.IncomingVertical).Type())
}
