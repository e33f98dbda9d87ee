package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/critpath/pkg/logging"
)

// subscriptionBuffer is how many events a slow client may lag behind
const subscriptionBuffer = 100

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
	// ResetOn names an event type that starts over: the buffer is emptied
	// before such an event is added. A new analysis run drops the progress
	// of the previous one this way.
	ResetOn string
}

// topic is the state of one topic
type topic struct {
	config  TopicConfig
	version int
	buffer  []Event
	subs    map[*sseSubscription]struct{}
}

// replay returns the buffered events a new subscriber should see
func (t *topic) replay() []Event {
	if len(t.buffer) == 0 {
		return nil
	}
	if !t.config.ReplayAll {
		return []Event{t.buffer[len(t.buffer)-1]}
	}
	return append([]Event(nil), t.buffer...)
}

func (t *topic) record(event Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	if t.config.ResetOn != "" && event.Type == t.config.ResetOn {
		t.buffer = t.buffer[:0]
	}
	t.buffer = append(t.buffer, event)
	if over := len(t.buffer) - t.config.BufferSize; over > 0 {
		t.buffer = append(t.buffer[:0], t.buffer[over:]...)
	}
}

// SSEPublisher implements Publisher using Server-Sent Events
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// topicLocked returns the named topic, creating it. p.mu must be held.
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicLocked(name).config = config
}

// Subscribe creates a new subscription to a topic. Buffered events are
// queued on the subscription before any new one.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, subscriptionBuffer),
		publisher: p,
	}
	t := p.topicLocked(name)
	t.subs[sub] = struct{}{}

	// Holding the lock keeps replayed and live events in version order
	replayed := t.replay()
	for _, event := range replayed {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	if len(replayed) > 0 {
		logging.Debug("replayed events to new subscriber", "topic", name, "count", len(replayed))
	}

	context.AfterFunc(ctx, func() { sub.Close() })
	return sub, nil
}

// Publish sends an event to all subscribers of a topic. Subscribers that
// fall behind lose events rather than block the publisher.
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{
		Topic:   name,
		Type:    eventType,
		Data:    jsonData,
		Version: t.version,
	}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", name, "version", event.Version)
		}
	}
	return nil
}

// Close shuts down the publisher and ends all subscriptions
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		t.subs = make(map[*sseSubscription]struct{})
	}
	return nil
}

// unsubscribe removes a subscription (called by subscription.Close())
func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

// sseSubscription implements Subscription
type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	once      sync.Once
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns a channel for receiving events. It is closed when the
// publisher shuts down.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close stops delivery to the subscription
func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes an event to an SSE response writer. The version doubles
// as the SSE id so clients can tell replays from new events.
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.Version, event.Topic, jsonData)
	return err
}
