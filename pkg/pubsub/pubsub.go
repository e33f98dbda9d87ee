package pubsub

import (
	"context"
	"encoding/json"
)

// Topics
const (
	// TopicAnalysisStatus carries AnalysisStatus updates of the runner
	TopicAnalysisStatus = "analysis_status"
	// TopicCriticalPath carries a CriticalPathData each time a run completes
	TopicCriticalPath = "critical_path"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "analysis_status")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "reducing", "ready")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Analysis states, in the order a run goes through them
const (
	StateLoading  = "loading"
	StateBuilding = "building"
	StateReducing = "reducing"
	StateReady    = "ready"
	StateFailed   = "failed"
)

// AnalysisStatus represents the progress of one analysis run
type AnalysisStatus struct {
	RunID   string `json:"run_id"`
	State   string `json:"state"`   // one of the State constants
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// CriticalPathData summarises a completed reduction
type CriticalPathData struct {
	RunID     string `json:"run_id"`
	Source    string `json:"source"`
	Worker    string `json:"worker"`
	Algorithm string `json:"algorithm"`
	Vertices  int    `json:"vertices"`
	Workers   int    `json:"workers"`
	Duration  int64  `json:"duration"`
	Error     string `json:"error,omitempty"`
}

// ConfigureDefaults sets up buffering for the topics the application
// publishes: late subscribers get the progress of the current run and the
// latest path.
func ConfigureDefaults(p *SSEPublisher) {
	p.ConfigureTopic(TopicAnalysisStatus, TopicConfig{BufferSize: 10, ReplayAll: true, ResetOn: StateLoading})
	p.ConfigureTopic(TopicCriticalPath, TopicConfig{BufferSize: 1, ReplayAll: true})
}
