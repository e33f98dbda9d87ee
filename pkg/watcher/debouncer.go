package watcher

import (
	"context"
	"time"

	"github.com/ritzau/critpath/pkg/logging"
)

// Debouncer batches rapid change events so that a burst of saves triggers
// one re-analysis. It flushes after quietPeriod without new events, or after
// maxWait since the first unflushed event, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()

	accumulated := make(map[ChangeType][]string)
	eventCount := 0

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if eventCount == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", eventCount)

		// Config first: it may change how the scenario is analysed
		for _, kind := range []ChangeType{ChangeTypeConfig, ChangeTypeScenario} {
			if paths := accumulated[kind]; len(paths) > 0 {
				d.output <- ChangeEvent{Type: kind, Paths: paths, Timestamp: time.Now()}
			}
		}
		accumulated = make(map[ChangeType][]string)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}
			if eventCount == 0 {
				deadline.Reset(d.maxWait)
			}
			accumulated[event.Type] = append(accumulated[event.Type], event.Paths...)
			eventCount++
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
