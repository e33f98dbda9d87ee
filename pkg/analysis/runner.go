package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/critpath/pkg/criticalpath"
	"github.com/ritzau/critpath/pkg/cycles"
	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/graph"
	"github.com/ritzau/critpath/pkg/logging"
	"github.com/ritzau/critpath/pkg/pubsub"
)

const totalSteps = 4

// Options selects what a run computes
type Options struct {
	// Worker whose critical path is computed, host/key. Empty means the
	// source's main worker.
	Worker    string
	Algorithm string
	Start     int64
	// End of the span; negative runs to the end of the lifeline
	End int64
	// Verify compares both reductions with the fixture's expectations
	Verify bool
	Reason string // e.g., "initial analysis", "scenario changed"
}

// Reduction is the outcome of one algorithm
type Reduction struct {
	Algorithm string
	Path      *execgraph.Graph
	Stats     *execgraph.Statistics
	Err       error
}

// Check is the verification of one algorithm against a fixture
type Check struct {
	Algorithm string
	Err       error
}

// Result is a completed run
type Result struct {
	RunID      string
	Source     string
	Reason     string
	Graph      *execgraph.Graph
	Stats      *execgraph.Statistics
	Worker     execgraph.Worker
	Algorithm  string
	Reductions map[string]*Reduction
	Cycles     []cycles.Cycle
	Reach      int // vertices the span start can influence
	Checks     []Check
}

// Selected returns the reduction of the requested algorithm
func (r *Result) Selected() *Reduction {
	return r.Reductions[r.Algorithm]
}

// Verified reports whether every check passed
func (r *Result) Verified() bool {
	for _, c := range r.Checks {
		if c.Err != nil {
			return false
		}
	}
	return true
}

// Runner orchestrates the analysis process
type Runner struct {
	source    Source
	publisher pubsub.Publisher
	mu        sync.Mutex // Prevent concurrent analysis runs

	latestMu sync.RWMutex
	latest   *Result
}

// NewRunner creates a runner. The publisher may be nil.
func NewRunner(source Source, publisher pubsub.Publisher) *Runner {
	return &Runner{source: source, publisher: publisher}
}

// Latest returns the last successful result, or nil
func (r *Runner) Latest() *Result {
	r.latestMu.RLock()
	defer r.latestMu.RUnlock()
	return r.latest
}

// Run loads the source, reduces the graph with both algorithms and keeps
// the result. An error is returned when the requested algorithm fails; the
// other one failing is recorded in the result only.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, runID := logging.NewRunContext(ctx)
	if opts.Algorithm == "" {
		opts.Algorithm = criticalpath.NameBounded
	}
	logging.InfoContext(ctx, "starting analysis", "source", r.source.Name(), "reason", opts.Reason)

	res, err := r.run(ctx, runID, opts)
	if err != nil {
		logging.ErrorContext(ctx, "analysis failed", "error", err)
		r.publishStatus(runID, pubsub.StateFailed, err.Error(), totalSteps)
		r.publish(pubsub.TopicCriticalPath, "error", pubsub.CriticalPathData{
			RunID:     runID,
			Source:    r.source.Name(),
			Worker:    opts.Worker,
			Algorithm: opts.Algorithm,
			Error:     err.Error(),
		})
		return nil, err
	}

	r.latestMu.Lock()
	r.latest = res
	r.latestMu.Unlock()

	sel := res.Selected()
	r.publishStatus(runID, pubsub.StateReady, "Analysis complete", totalSteps)
	r.publish(pubsub.TopicCriticalPath, "ready", pubsub.CriticalPathData{
		RunID:     runID,
		Source:    res.Source,
		Worker:    res.Worker.String(),
		Algorithm: res.Algorithm,
		Vertices:  sel.Path.Size(),
		Workers:   len(sel.Path.Workers()),
		Duration:  sel.Stats.Total(),
	})
	logging.InfoContext(ctx, "analysis complete", "worker", res.Worker, "algorithm", res.Algorithm,
		"vertices", sel.Path.Size(), "duration", sel.Stats.Total())
	return res, nil
}

func (r *Runner) run(ctx context.Context, runID string, opts Options) (*Result, error) {
	r.publishStatus(runID, pubsub.StateLoading, "Loading "+r.source.Name(), 1)
	in, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", r.source.Name(), err)
	}

	r.publishStatus(runID, pubsub.StateBuilding, "Checking graph", 2)
	res := &Result{
		RunID:      runID,
		Source:     r.source.Name(),
		Reason:     opts.Reason,
		Graph:      in.Graph,
		Worker:     in.Main,
		Algorithm:  opts.Algorithm,
		Reductions: make(map[string]*Reduction),
	}
	if opts.Worker != "" {
		if res.Worker, err = execgraph.ParseWorker(opts.Worker); err != nil {
			return nil, err
		}
	}
	if res.Stats, err = execgraph.ComputeStatistics(in.Graph); err != nil {
		return nil, fmt.Errorf("graph statistics: %w", err)
	}
	res.Cycles = cycles.FindCycles(in.Graph)
	for _, c := range res.Cycles {
		logging.WarnContext(ctx, "causal cycle", "timestamp", c.Timestamp, "vertices", len(c.Vertices), "workers", len(c.Workers))
	}

	start, end, err := criticalpath.Span(in.Graph, res.Worker, opts.Start, opts.End)
	if err != nil {
		return nil, err
	}

	res.Reach = len(graph.Build(in.Graph).Reachable(start))
	logging.DebugContext(ctx, "span", "worker", res.Worker, "start", start.Timestamp(), "reach", res.Reach)

	r.publishStatus(runID, pubsub.StateReducing, "Computing critical paths", 3)
	if err := reduceAll(ctx, res, start, end); err != nil {
		return nil, err
	}
	if sel := res.Selected(); sel == nil {
		return nil, fmt.Errorf("unknown critical path algorithm %q", opts.Algorithm)
	} else if sel.Err != nil {
		return nil, sel.Err
	}

	if opts.Verify {
		if in.Fixture == nil {
			return nil, fmt.Errorf("%s has no expected critical paths to verify against", r.source.Name())
		}
		res.Checks = verify(in, res)
	}
	return res, nil
}

// reduceAll runs every algorithm concurrently over the read-only input
func reduceAll(ctx context.Context, res *Result, start, end *execgraph.Vertex) error {
	names := []string{criticalpath.NameBounded, criticalpath.NameUnbounded}
	out := make([]*Reduction, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			algo, err := criticalpath.New(name, res.Graph)
			if err != nil {
				return err
			}
			red := &Reduction{Algorithm: name}
			out[i] = red

			red.Path, red.Err = algo.Compute(start, end)
			if red.Err != nil {
				if errors.Is(red.Err, criticalpath.ErrUnsupported) {
					logging.DebugContext(ctx, "reduction unsupported", "algorithm", name, "error", red.Err)
				}
				return nil
			}
			red.Stats, red.Err = execgraph.ComputeStatistics(red.Path)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, red := range out {
		res.Reductions[red.Algorithm] = red
	}
	return nil
}

func verify(in *Input, res *Result) []Check {
	expected := map[string]func() (*execgraph.Graph, error){
		criticalpath.NameBounded:   in.Fixture.Bounded,
		criticalpath.NameUnbounded: in.Fixture.Unbounded,
	}

	var checks []Check
	for _, name := range []string{criticalpath.NameBounded, criticalpath.NameUnbounded} {
		red := res.Reductions[name]
		check := Check{Algorithm: name}

		build := expected[name]
		switch {
		case build == nil && errors.Is(red.Err, criticalpath.ErrUnsupported):
		case build == nil:
			check.Err = fmt.Errorf("expected %s to refuse the graph, got %v", name, red.Err)
		case red.Err != nil:
			check.Err = red.Err
		default:
			want, err := build()
			if err != nil {
				check.Err = err
			} else {
				check.Err = execgraph.Equivalent(want, red.Path)
			}
		}
		checks = append(checks, check)
	}
	return checks
}

func (r *Runner) publishStatus(runID, state, message string, step int) {
	r.publish(pubsub.TopicAnalysisStatus, state, pubsub.AnalysisStatus{
		RunID:   runID,
		State:   state,
		Message: message,
		Step:    step,
		Total:   totalSteps,
	})
}

func (r *Runner) publish(topic, eventType string, data any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(topic, eventType, data); err != nil {
		logging.Warn("failed to publish event", "topic", topic, "error", err)
	}
}
