package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ritzau/critpath/pkg/analysis"
	"github.com/ritzau/critpath/pkg/criticalpath"
	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/model"
)

var (
	bold  = color.New(color.Bold)
	red   = color.New(color.FgRed)
	green = color.New(color.FgGreen)
	faint = color.New(color.Faint)
)

// typeColor picks the color an edge type is printed in
func typeColor(t execgraph.EdgeType) *color.Color {
	switch t {
	case execgraph.EdgeRunning:
		return green
	case execgraph.EdgeBlocked:
		return red
	case execgraph.EdgeInterrupted, execgraph.EdgePreempted:
		return color.New(color.FgYellow)
	case execgraph.EdgeTimer, execgraph.EdgeNetwork, execgraph.EdgeBlockDevice:
		return color.New(color.FgCyan)
	case execgraph.EdgeUnknown:
		return color.New(color.FgMagenta)
	}
	return faint
}

// PrintReport prints the selected critical path of res with colors: one
// lifeline per worker, hand-offs between workers, per-type totals, causal
// cycles and fixture checks.
func PrintReport(w io.Writer, res *analysis.Result) {
	sel := res.Selected()

	bold.Fprintln(w, "Critical Path Report")
	bold.Fprintln(w, "====================")
	fmt.Fprintf(w, "Source:    %s\n", res.Source)
	fmt.Fprintf(w, "Worker:    %s\n", res.Worker)
	fmt.Fprintf(w, "Algorithm: %s\n", res.Algorithm)
	fmt.Fprintf(w, "Graph:     %d vertices on %d workers\n", res.Stats.Vertices, len(res.Stats.Workers()))
	fmt.Fprintf(w, "Reach:     %d vertices downstream of the start\n", res.Reach)
	fmt.Fprintln(w)

	for _, worker := range sel.Path.Workers() {
		printLifeline(w, sel.Path, worker)
	}

	bold.Fprintln(w, "TIME BY TYPE:")
	for _, t := range execgraph.EdgeTypes {
		if d := sel.Stats.TypeTotal(t); d != 0 {
			typeColor(t).Fprintf(w, "  %-12s", t)
			fmt.Fprintf(w, " %d\n", d)
		}
	}
	for _, worker := range sel.Stats.Workers() {
		fmt.Fprintf(w, "  %-12s %d\n", worker, sel.Stats.Sum(worker))
	}

	for _, name := range []string{criticalpath.NameBounded, criticalpath.NameUnbounded} {
		r, ok := res.Reductions[name]
		if !ok || name == res.Algorithm || r.Err == nil {
			continue
		}
		if errors.Is(r.Err, criticalpath.ErrUnsupported) {
			faint.Fprintf(w, "The %s algorithm cannot resolve this graph: %v\n", name, r.Err)
		} else {
			PrintError(w, name, r.Err)
		}
	}
	fmt.Fprintln(w)

	if len(res.Cycles) > 0 {
		red.Fprintln(w, "CAUSAL CYCLES:")
		for _, c := range res.Cycles {
			fmt.Fprintf(w, "  at %d across %v\n", c.Timestamp, c.Workers)
		}
		fmt.Fprintln(w)
	}

	if len(res.Checks) > 0 {
		bold.Fprintln(w, "VERIFICATION:")
		for _, c := range res.Checks {
			if c.Err != nil {
				red.Fprintf(w, "  ✗ %s: %v\n", c.Algorithm, c.Err)
			} else {
				green.Fprintf(w, "  ✓ %s\n", c.Algorithm)
			}
		}
	}

	summary := green
	if !res.Verified() {
		summary = red
	}
	summary.Fprintf(w, "Summary: %d on the critical path of %s\n", sel.Stats.Total(), res.Worker)
}

func printLifeline(w io.Writer, g *execgraph.Graph, worker execgraph.Worker) {
	bold.Fprintf(w, "%s\n", worker)
	for _, v := range g.NodesOf(worker) {
		if in := v.Edge(execgraph.IncomingVertical); in != nil {
			from, _ := g.ParentOf(in.From())
			faint.Fprintf(w, "    <= %s@%d %s\n", from, in.From().Timestamp(), label(in))
		}
		if e := v.Edge(execgraph.OutgoingHorizontal); e != nil {
			fmt.Fprintf(w, "  %6d -> %-6d ", v.Timestamp(), e.To().Timestamp())
			typeColor(e.Type()).Fprintf(w, "%-12s", label(e))
			fmt.Fprintf(w, " %d\n", e.Duration())
		} else if v.Edge(execgraph.IncomingHorizontal) == nil {
			fmt.Fprintf(w, "  %6d\n", v.Timestamp())
		}
		if out := v.Edge(execgraph.OutgoingVertical); out != nil {
			to, _ := g.ParentOf(out.To())
			faint.Fprintf(w, "    => %s@%d %s\n", to, out.To().Timestamp(), label(out))
		}
	}
	fmt.Fprintln(w)
}

func label(e *execgraph.Edge) string {
	if q := e.Qualifier(); q != "" {
		return fmt.Sprintf("%s(%s)", e.Type(), q)
	}
	return string(e.Type())
}

// PrintError reports a failed run. Unsupported graphs get a hint towards
// the bounded algorithm.
func PrintError(w io.Writer, algorithm string, err error) {
	if errors.Is(err, criticalpath.ErrUnsupported) {
		red.Fprintf(w, "critical path unresolvable with the %s algorithm: %v\n", algorithm, err)
		if algorithm != criticalpath.NameBounded {
			fmt.Fprintf(w, "Suggestion: retry with --algorithm %s\n", criticalpath.NameBounded)
		}
		return
	}
	red.Fprintf(w, "%s: %v\n", algorithm, err)
}

// Report is the JSON form of a result
type Report struct {
	RunID      string                       `json:"runId"`
	Source     string                       `json:"source"`
	Worker     string                       `json:"worker"`
	Algorithm  string                       `json:"algorithm"`
	Path       *model.Graph                 `json:"path"`
	Statistics map[string]*model.Statistics `json:"statistics"`
	Cycles     int                          `json:"cycles"`
	Checks     map[string]string            `json:"checks,omitempty"`
}

// PrintJSON writes the selected critical path in its exchange form
func PrintJSON(w io.Writer, res *analysis.Result) error {
	sel := res.Selected()
	report := Report{
		RunID:      res.RunID,
		Source:     res.Source,
		Worker:     res.Worker.String(),
		Algorithm:  res.Algorithm,
		Path:       model.FromGraph(sel.Path),
		Statistics: map[string]*model.Statistics{"graph": model.FromStatistics(res.Stats)},
		Cycles:     len(res.Cycles),
	}
	for name, r := range res.Reductions {
		if r.Err == nil {
			report.Statistics[name] = model.FromStatistics(r.Stats)
		}
	}
	if len(res.Checks) > 0 {
		report.Checks = make(map[string]string)
		for _, c := range res.Checks {
			report.Checks[c.Algorithm] = ""
			if c.Err != nil {
				report.Checks[c.Algorithm] = c.Err.Error()
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
