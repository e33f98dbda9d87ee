package fixtures

import "github.com/ritzau/critpath/pkg/execgraph"

// builder keeps the first construction error so scenarios read as a plain
// list of calls.
type builder struct {
	g   *execgraph.Graph
	err error
}

func newBuilder() *builder {
	return &builder{g: execgraph.New()}
}

func (b *builder) add(w execgraph.Worker, ts int64) *execgraph.Vertex {
	v := execgraph.NewVertex(ts)
	if b.err == nil {
		b.err = b.g.Add(w, v)
	}
	return v
}

func (b *builder) app(w execgraph.Worker, ts int64, t execgraph.EdgeType) *execgraph.Vertex {
	return b.appq(w, ts, t, "")
}

func (b *builder) appq(w execgraph.Worker, ts int64, t execgraph.EdgeType, qualifier string) *execgraph.Vertex {
	v := execgraph.NewVertex(ts)
	if b.err == nil {
		_, b.err = b.g.Append(w, v, t, execgraph.WithQualifier(qualifier))
	}
	return v
}

// link creates a vertical edge and, like trace replay does, types it after
// the fact unless it stays DEFAULT.
func (b *builder) link(from, to *execgraph.Vertex, t execgraph.EdgeType) {
	if b.err != nil {
		return
	}
	e, err := from.LinkVertical(to)
	if err != nil {
		b.err = err
		return
	}
	if t != execgraph.EdgeDefault {
		b.err = e.SetType(t)
	}
}

func (b *builder) done() (*execgraph.Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.g, nil
}
