package model

// Graph is the exchange form of an execution graph. Workers are compound
// nodes; vertices are nodes whose Parent is their worker.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node kinds
const (
	NodeWorker = "worker"
	NodeVertex = "vertex"
)

// Node is a worker or a vertex of the execution graph.
type Node struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Type      string         `json:"type"`             // worker or vertex
	Parent    string         `json:"parent,omitempty"` // owning worker of a vertex
	Timestamp int64          `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Edge is a horizontal or vertical edge between two vertex nodes.
type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Type      string         `json:"type"` // RUNNING, BLOCKED, ...
	Vertical  bool           `json:"vertical,omitempty"`
	Duration  int64          `json:"duration"`
	Qualifier string         `json:"qualifier,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AddNode adds a node to the graph. If a node with the same ID exists, it updates it.
func (g *Graph) AddNode(node *Node) {
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	g.Edges = append(g.Edges, edge)
}
