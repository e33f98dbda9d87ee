package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/critpath/pkg/analysis"
	"github.com/ritzau/critpath/pkg/criticalpath"
	"github.com/ritzau/critpath/pkg/fixtures"
)

func init() {
	color.NoColor = true
}

func run(t *testing.T, fixture string, opts analysis.Options) *analysis.Result {
	t.Helper()
	opts.End = -1
	res, err := analysis.NewRunner(analysis.FixtureSource{Fixture: fixture}, nil).Run(context.Background(), opts)
	require.NoError(t, err)
	return res
}

func TestPrintReport(t *testing.T) {
	res := run(t, "wakeup_new", analysis.Options{Verify: true})

	var buf bytes.Buffer
	PrintReport(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Critical Path Report")
	assert.Contains(t, out, "Source:    fixture:wakeup_new")
	assert.Contains(t, out, "Algorithm: bounded")
	assert.Contains(t, out, fixtures.Worker0.String())
	assert.Contains(t, out, "RUNNING")
	assert.Contains(t, out, "TIME BY TYPE:")
	assert.Contains(t, out, "✓ bounded")
	assert.Contains(t, out, "✓ unbounded")
	assert.Contains(t, out, fmt.Sprintf("Summary: %d on the critical path of %s", res.Selected().Stats.Total(), fixtures.Worker0))
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintReportMentionsRefusedAlgorithm(t *testing.T) {
	res := run(t, "opened", analysis.Options{})

	var buf bytes.Buffer
	PrintReport(&buf, res)
	assert.Contains(t, buf.String(), "The unbounded algorithm cannot resolve this graph")
	assert.NotContains(t, buf.String(), "VERIFICATION:")
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, criticalpath.NameUnbounded, fmt.Errorf("wrapped: %w", criticalpath.ErrUnsupported))
	assert.Contains(t, buf.String(), "critical path unresolvable")
	assert.Contains(t, buf.String(), "--algorithm bounded")

	buf.Reset()
	PrintError(&buf, criticalpath.NameBounded, fmt.Errorf("boom"))
	assert.Equal(t, "bounded: boom\n", buf.String())
}

func TestPrintJSON(t *testing.T) {
	res := run(t, "opened", analysis.Options{Verify: true})

	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, res))

	var report Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, res.RunID, report.RunID)
	assert.Equal(t, criticalpath.NameBounded, report.Algorithm)
	assert.Equal(t, fixtures.Worker0.String(), report.Worker)
	require.NotNil(t, report.Path)
	assert.Contains(t, report.Path.Nodes, fixtures.Worker0.String())

	assert.Contains(t, report.Statistics, "graph")
	assert.Contains(t, report.Statistics, criticalpath.NameBounded)
	assert.NotContains(t, report.Statistics, criticalpath.NameUnbounded)
	assert.Equal(t, map[string]string{criticalpath.NameBounded: "", criticalpath.NameUnbounded: ""}, report.Checks)
}
