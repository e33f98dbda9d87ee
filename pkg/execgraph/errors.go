package execgraph

import "errors"

// Construction misuse. These are programming errors on the caller side and
// are never produced by well-formed trace replay.
var (
	ErrInvalidState    = errors.New("invalid graph state")
	ErrNotInGraph      = errors.New("vertex does not belong to this graph")
	ErrDuplicateVertex = errors.New("vertex already belongs to a graph")
	ErrNonMonotonic    = errors.New("timestamps must not go back in time")
	ErrSelfLink        = errors.New("vertex cannot be linked to itself")
	ErrSlotTaken       = errors.New("edge slot already in use")
	ErrTypeAlreadySet  = errors.New("edge type already set")
	ErrUnknownEdgeType = errors.New("unknown edge type")
	ErrCycle           = errors.New("cycle detected")
)

// ErrNotEquivalent is returned by Equivalent when two graphs differ
var ErrNotEquivalent = errors.New("graphs are not equivalent")
