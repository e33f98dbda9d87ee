package execgraph

import (
	"fmt"
	"strings"
)

// EdgeType is the semantic label of an edge
type EdgeType string

const (
	EdgeRunning     EdgeType = "RUNNING"
	EdgeBlocked     EdgeType = "BLOCKED"
	EdgeInterrupted EdgeType = "INTERRUPTED"
	EdgePreempted   EdgeType = "PREEMPTED"
	EdgeTimer       EdgeType = "TIMER"
	EdgeNetwork     EdgeType = "NETWORK"
	EdgeUnknown     EdgeType = "UNKNOWN"
	EdgeBlockDevice EdgeType = "BLOCK_DEVICE"
	EdgeDefault     EdgeType = "DEFAULT"
	EdgeEpsilon     EdgeType = "EPS"
)

// EdgeTypes lists every edge type in declaration order
var EdgeTypes = []EdgeType{
	EdgeRunning,
	EdgeBlocked,
	EdgeInterrupted,
	EdgePreempted,
	EdgeTimer,
	EdgeNetwork,
	EdgeUnknown,
	EdgeBlockDevice,
	EdgeDefault,
	EdgeEpsilon,
}

// ParseEdgeType accepts the canonical names, case-insensitively
func ParseEdgeType(s string) (EdgeType, error) {
	want := EdgeType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range EdgeTypes {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEdgeType, s)
}

// Valid reports whether t is one of the known edge types
func (t EdgeType) Valid() bool {
	for _, known := range EdgeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Direction selects one of the four edge slots of a vertex
type Direction int

const (
	OutgoingHorizontal Direction = iota
	IncomingHorizontal
	OutgoingVertical
	IncomingVertical
)

// Directions lists the four slots in slot order
var Directions = [...]Direction{OutgoingHorizontal, IncomingHorizontal, OutgoingVertical, IncomingVertical}

func (d Direction) String() string {
	switch d {
	case OutgoingHorizontal:
		return "OUTGOING_HORIZONTAL"
	case IncomingHorizontal:
		return "INCOMING_HORIZONTAL"
	case OutgoingVertical:
		return "OUTGOING_VERTICAL"
	case IncomingVertical:
		return "INCOMING_VERTICAL"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Vertical reports whether the slot holds a vertical edge
func (d Direction) Vertical() bool {
	return d == OutgoingVertical || d == IncomingVertical
}

// Edge is a directed connection between two vertices. Endpoints and
// qualifier are fixed at creation. The type can be changed once after
// creation, which is how a generic link is annotated when its cause becomes
// known.
type Edge struct {
	from      *Vertex
	to        *Vertex
	typ       EdgeType
	qualifier string
	vertical  bool
	retyped   bool
}

// EdgeOption customises an edge created by Append or Link
type EdgeOption func(*Edge)

// WithType sets the type of a vertical link (DEFAULT otherwise)
func WithType(t EdgeType) EdgeOption {
	return func(e *Edge) {
		e.typ = t
	}
}

// WithQualifier attaches an opaque annotation, such as a syscall name
func WithQualifier(q string) EdgeOption {
	return func(e *Edge) {
		e.qualifier = q
	}
}

func (e *Edge) From() *Vertex { return e.from }
func (e *Edge) To() *Vertex { return e.to }
func (e *Edge) Type() EdgeType { return e.typ }
func (e *Edge) Qualifier() string { return e.qualifier }
func (e *Edge) Vertical() bool { return e.vertical }
func (e *Edge) Horizontal() bool { return !e.vertical }
func (e *Edge) Duration() int64 { return e.to.ts - e.from.ts }

// SetType annotates the edge with its semantic type. It can only be done
// once per edge.
func (e *Edge) SetType(t EdgeType) error {
	return e.SetTypeQualified(t, e.qualifier)
}

// SetTypeQualified sets the type and replaces the qualifier
func (e *Edge) SetTypeQualified(t EdgeType, qualifier string) error {
	if e.retyped {
		return fmt.Errorf("%w: %s", ErrTypeAlreadySet, e)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownEdgeType, t)
	}
	e.typ = t
	e.qualifier = qualifier
	e.retyped = true
	return nil
}

func (e *Edge) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]--%s", e.from.ts, e.typ)
	if e.qualifier != "" {
		fmt.Fprintf(&b, "(%s)", e.qualifier)
	}
	fmt.Fprintf(&b, "->[%d]", e.to.ts)
	return b.String()
}
