package model

import (
	"fmt"

	"github.com/ritzau/critpath/pkg/execgraph"
)

// VertexID names the i-th vertex of w's lifeline
func VertexID(w execgraph.Worker, i int) string {
	return fmt.Sprintf("%s#%d", w, i)
}

// FromGraph converts an execution graph to its exchange form
func FromGraph(g *execgraph.Graph) *Graph {
	out := NewGraph()
	ids := make(map[*execgraph.Vertex]string, g.Size())

	for _, w := range g.Workers() {
		out.AddNode(&Node{ID: w.String(), Label: w.Key, Type: NodeWorker, Metadata: map[string]any{"host": w.Host}})
		for i, v := range g.NodesOf(w) {
			id := VertexID(w, i)
			ids[v] = id
			out.AddNode(&Node{
				ID:        id,
				Label:     fmt.Sprint(v.Timestamp()),
				Type:      NodeVertex,
				Parent:    w.String(),
				Timestamp: v.Timestamp(),
			})
		}
	}

	for _, w := range g.Workers() {
		for _, v := range g.NodesOf(w) {
			for _, d := range []execgraph.Direction{execgraph.OutgoingHorizontal, execgraph.OutgoingVertical} {
				e := v.Edge(d)
				if e == nil {
					continue
				}
				out.AddEdge(&Edge{
					Source:    ids[e.From()],
					Target:    ids[e.To()],
					Type:      string(e.Type()),
					Vertical:  e.Vertical(),
					Duration:  e.Duration(),
					Qualifier: e.Qualifier(),
				})
			}
		}
	}
	return out
}

// Statistics is the exchange form of execgraph.Statistics
type Statistics struct {
	Vertices        int              `json:"vertices"`
	Segments        int              `json:"segments"`
	HorizontalEdges int              `json:"horizontalEdges"`
	VerticalEdges   int              `json:"verticalEdges"`
	Total           int64            `json:"total"`
	ByType          map[string]int64 `json:"byType"`
	Workers         []WorkerStats    `json:"workers"`
}

// WorkerStats holds the durations charged to one worker
type WorkerStats struct {
	Worker string           `json:"worker"`
	Total  int64            `json:"total"`
	ByType map[string]int64 `json:"byType"`
}

// FromStatistics converts computed statistics to their exchange form
func FromStatistics(s *execgraph.Statistics) *Statistics {
	out := &Statistics{
		Vertices:        s.Vertices,
		Segments:        s.Segments,
		HorizontalEdges: s.HorizontalEdges,
		VerticalEdges:   s.VerticalEdges,
		Total:           s.Total(),
		ByType:          make(map[string]int64),
	}
	for _, t := range execgraph.EdgeTypes {
		if d := s.TypeTotal(t); d != 0 {
			out.ByType[string(t)] = d
		}
	}

	for _, w := range s.Workers() {
		ws := WorkerStats{Worker: w.String(), Total: s.Sum(w), ByType: make(map[string]int64)}
		for t, d := range s.ByType(w) {
			ws.ByType[string(t)] = d
		}
		out.Workers = append(out.Workers, ws)
	}
	return out
}
