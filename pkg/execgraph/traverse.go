package execgraph

import "fmt"

// Visitor receives the callbacks of a scan-line traversal
type Visitor interface {
	// VisitHead is called once per horizontal segment, before its vertices
	VisitHead(v *Vertex)
	VisitVertex(v *Vertex)
	// VisitEdge is called exactly once per edge reached
	VisitEdge(e *Edge, horizontal bool)
}

// VisitorFuncs adapts plain functions to a Visitor. Nil fields are skipped.
type VisitorFuncs struct {
	Head   func(v *Vertex)
	Vertex func(v *Vertex)
	Edge   func(e *Edge, horizontal bool)
}

func (f VisitorFuncs) VisitHead(v *Vertex) {
	if f.Head != nil {
		f.Head(v)
	}
}

func (f VisitorFuncs) VisitVertex(v *Vertex) {
	if f.Vertex != nil {
		f.Vertex(v)
	}
}

func (f VisitorFuncs) VisitEdge(e *Edge, horizontal bool) {
	if f.Edge != nil {
		f.Edge(e, horizontal)
	}
}

// ScanLine visits every horizontal segment reachable from start. A segment
// is walked from its head to its end in one go; vertical edges queue the
// segments on their other side.
func (g *Graph) ScanLine(start *Vertex, visitor Visitor) error {
	if !g.Contains(start) {
		return fmt.Errorf("scan from %v: %w", start, ErrNotInGraph)
	}
	return g.scan([]*Vertex{start}, visitor)
}

func (g *Graph) scan(starts []*Vertex, visitor Visitor) error {
	visited := make(map[*Vertex]bool, g.Size())
	queue := append([]*Vertex(nil), starts...)

	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		if visited[head] {
			continue
		}
		for steps := 0; head.edges[IncomingHorizontal] != nil; steps++ {
			if steps > g.Size() {
				return fmt.Errorf("%w: rewinding from %s", ErrCycle, head)
			}
			head = head.edges[IncomingHorizontal].from
		}

		visitor.VisitHead(head)
		for v := head; v != nil; {
			if visited[v] {
				return fmt.Errorf("%w: %s reached twice on %s", ErrCycle, v, g.parents[v])
			}
			visited[v] = true
			visitor.VisitVertex(v)

			for _, d := range [...]Direction{OutgoingVertical, IncomingVertical} {
				e := v.edges[d]
				if e == nil {
					continue
				}
				other := v.Neighbor(d)
				if visited[other] {
					continue
				}
				visitor.VisitEdge(e, false)
				queue = append(queue, other)
			}

			out := v.edges[OutgoingHorizontal]
			if out == nil {
				break
			}
			visitor.VisitEdge(out, true)
			v = out.to
		}
	}
	return nil
}
