package execgraph

import (
	"fmt"
	"strings"
)

// Worker identifies a schedulable entity (thread, process, virtual CPU).
// Two workers are the same worker iff both fields match, so a Worker can be
// used directly as a map key.
type Worker struct {
	Host string `json:"host"`
	Key  string `json:"key"`
}

// NewWorker creates a worker identity
func NewWorker(host, key string) Worker {
	return Worker{Host: host, Key: key}
}

// String renders the worker as "host/key"
func (w Worker) String() string {
	if w.Host == "" {
		return w.Key
	}
	return w.Host + "/" + w.Key
}

// IsZero reports whether w is the zero worker
func (w Worker) IsZero() bool {
	return w.Host == "" && w.Key == ""
}

// ParseWorker is the inverse of String. A value without a slash is a key on
// the empty host.
func ParseWorker(s string) (Worker, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Worker{}, fmt.Errorf("empty worker identity")
	}
	host, key, ok := strings.Cut(s, "/")
	if !ok {
		return Worker{Key: s}, nil
	}
	if key == "" {
		return Worker{}, fmt.Errorf("worker %q has an empty key", s)
	}
	return Worker{Host: host, Key: key}, nil
}
