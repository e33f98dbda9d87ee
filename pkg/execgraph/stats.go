package execgraph

import "slices"

// Statistics summarises where time goes in a graph. Durations are the sums
// of horizontal edges, attributed to the worker owning the edge.
type Statistics struct {
	Vertices        int
	Segments        int
	HorizontalEdges int
	VerticalEdges   int

	sums    map[Worker]int64
	byType  map[Worker]map[EdgeType]int64
	workers []Worker
}

// ComputeStatistics scans every lifeline of g
func ComputeStatistics(g *Graph) (*Statistics, error) {
	s := &Statistics{
		sums:    make(map[Worker]int64),
		byType:  make(map[Worker]map[EdgeType]int64),
		workers: g.Workers(),
	}
	for _, w := range s.workers {
		s.sums[w] = 0
		s.byType[w] = make(map[EdgeType]int64)
	}

	heads := make([]*Vertex, 0, len(s.workers))
	for _, w := range s.workers {
		heads = append(heads, g.Head(w))
	}

	err := g.scan(heads, VisitorFuncs{
		Head:   func(*Vertex) { s.Segments++ },
		Vertex: func(*Vertex) { s.Vertices++ },
		Edge: func(e *Edge, horizontal bool) {
			if !horizontal {
				s.VerticalEdges++
				return
			}
			s.HorizontalEdges++
			w := g.parents[e.from]
			s.sums[w] += e.Duration()
			s.byType[w][e.typ] += e.Duration()
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Workers returns the workers covered, in graph order
func (s *Statistics) Workers() []Worker {
	return slices.Clone(s.workers)
}

// Sum returns the total horizontal duration of w
func (s *Statistics) Sum(w Worker) int64 {
	return s.sums[w]
}

// Total returns the horizontal duration summed over all workers
func (s *Statistics) Total() int64 {
	var total int64
	for _, sum := range s.sums {
		total += sum
	}
	return total
}

// ByType returns w's horizontal duration split by edge type
func (s *Statistics) ByType(w Worker) map[EdgeType]int64 {
	out := make(map[EdgeType]int64, len(s.byType[w]))
	for t, d := range s.byType[w] {
		out[t] = d
	}
	return out
}

// TypeTotal returns the duration of all horizontal edges of type t
func (s *Statistics) TypeTotal(t EdgeType) int64 {
	var total int64
	for _, m := range s.byType {
		total += m[t]
	}
	return total
}
