package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/fixtures"
)

func TestLoadMatchesFixtures(t *testing.T) {
	tests := []struct {
		file    string
		fixture string
		name    string
	}{
		{"wakeup_new.toml", "wakeup_new", "wakeup_new"},
		{"nested.yaml", "nested", "nested"},
		{"wakeup_self.json", "wakeup_self", "wakeup_self"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			s, err := Load(filepath.Join("testdata", tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.name, s.Name)

			built, err := s.Build()
			require.NoError(t, err)
			assert.Equal(t, fixtures.Worker0, built.Main)

			f, ok := fixtures.Lookup(tt.fixture)
			require.True(t, ok)
			want, err := f.Build()
			require.NoError(t, err)
			require.NoError(t, execgraph.Equivalent(want, built.Graph))
		})
	}
}

func TestLinkTypeIsApplied(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "wakeup_self.json"))
	require.NoError(t, err)
	built, err := s.Build()
	require.NoError(t, err)

	fired := built.Vertices["fired"]
	require.NotNil(t, fired)
	in := fired.Edge(execgraph.IncomingVertical)
	require.NotNil(t, in)
	assert.Equal(t, execgraph.EdgeTimer, in.Type())
	assert.ErrorIs(t, in.SetType(execgraph.EdgeNetwork), execgraph.ErrTypeAlreadySet)
}

func TestUnknownVertex(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "broken_link.toml"))
	require.NoError(t, err)
	assert.Equal(t, "broken_link", s.Name)

	_, err = s.Build()
	require.ErrorIs(t, err, ErrUnknownVertex)
	assert.Contains(t, err.Error(), "step 2 (link)")
}

func TestParse(t *testing.T) {
	doc := []byte(`
name: inline
steps:
  - {op: add, worker: h/a, ts: 10}
  - {op: append, worker: h/a, ts: 12, status: WAIT_CPU}
`)
	s, err := Parse(doc, FormatYAML)
	require.NoError(t, err)

	built, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, execgraph.NewWorker("h", "a"), built.Main)
	e := built.Graph.Head(built.Main).Edge(execgraph.OutgoingHorizontal)
	require.NotNil(t, e)
	assert.Equal(t, execgraph.EdgePreempted, e.Type())
}

func TestInterruptSteps(t *testing.T) {
	doc := []byte(`
name: interrupts
steps:
  - {op: add, worker: h/rx, ts: 0}
  - {op: append, worker: h/rx, ts: 4, softirq: 3, id: rx}
  - {op: add, worker: h/a, ts: 0}
  - {op: append, worker: h/a, ts: 4, status: NOT_ALIVE, id: woken}
  - {op: link, from: rx, to: woken, irq: 0}
`)
	s, err := Parse(doc, FormatYAML)
	require.NoError(t, err)
	built, err := s.Build()
	require.NoError(t, err)

	rx := built.Vertices["rx"].Edge(execgraph.IncomingHorizontal)
	require.NotNil(t, rx)
	assert.Equal(t, execgraph.EdgeNetwork, rx.Type())

	woken := built.Vertices["woken"]
	assert.Equal(t, execgraph.EdgeUnknown, woken.Edge(execgraph.IncomingHorizontal).Type())
	link := woken.Edge(execgraph.IncomingVertical)
	require.NotNil(t, link)
	assert.Equal(t, execgraph.EdgeInterrupted, link.Type())
}

func intPtr(v int) *int { return &v }

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		steps []Step
		want  error
	}{
		{"unknown op", []Step{{Op: "remove"}}, ErrInvalidStep},
		{"missing worker", []Step{{Op: OpAdd, TS: 1}}, ErrInvalidStep},
		{"append to empty worker", []Step{{Op: OpAppend, Worker: "w", TS: 1, Type: "RUNNING"}}, execgraph.ErrInvalidState},
		{"type and status", []Step{
			{Op: OpAdd, Worker: "w", TS: 0},
			{Op: OpAppend, Worker: "w", TS: 1, Type: "RUNNING", Status: "RUN"},
		}, ErrInvalidStep},
		{"bad type", []Step{
			{Op: OpAdd, Worker: "w", TS: 0},
			{Op: OpAppend, Worker: "w", TS: 1, Type: "SLEEPING"},
		}, execgraph.ErrUnknownEdgeType},
		{"status and softirq", []Step{
			{Op: OpAdd, Worker: "w", TS: 0},
			{Op: OpAppend, Worker: "w", TS: 1, Status: "RUN", Softirq: intPtr(SoftirqNetRX)},
		}, ErrInvalidStep},
		{"irq and type on link", []Step{
			{Op: OpAdd, Worker: "w", TS: 0, ID: "a"},
			{Op: OpAdd, Worker: "v", TS: 0, ID: "b"},
			{Op: OpLink, From: "a", To: "b", Type: "TIMER", IRQ: intPtr(IRQTimer)},
		}, ErrInvalidStep},
		{"back in time", []Step{
			{Op: OpAdd, Worker: "w", TS: 5},
			{Op: OpAppend, Worker: "w", TS: 1, Type: "RUNNING"},
		}, execgraph.ErrNonMonotonic},
		{"duplicate id", []Step{
			{Op: OpAdd, Worker: "w", TS: 0, ID: "a"},
			{Op: OpAdd, Worker: "v", TS: 0, ID: "a"},
		}, ErrInvalidStep},
		{"link to self", []Step{
			{Op: OpAdd, Worker: "w", TS: 0, ID: "a"},
			{Op: OpLink, From: "a", To: "a"},
		}, execgraph.ErrSelfLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Name: tt.name, Steps: tt.steps}
			_, err := s.Build()
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMainWorkerMustExist(t *testing.T) {
	s := &Scenario{Main: "nobody/0", Steps: []Step{{Op: OpAdd, Worker: "w/0", TS: 0}}}
	_, err := s.Build()
	require.Error(t, err)
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]string{
		"a.toml": FormatTOML,
		"b.JSON": FormatJSON,
		"c.yml":  FormatYAML,
		"d.yaml": FormatYAML,
	} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatOf("e.xml")
	require.Error(t, err)
}

func TestResolveStatus(t *testing.T) {
	tests := map[ProcessStatus]execgraph.EdgeType{
		StatusRun:         execgraph.EdgeRunning,
		StatusRunSyscall:  execgraph.EdgeRunning,
		StatusInterrupted: execgraph.EdgeRunning,
		StatusExit:        execgraph.EdgeRunning,
		StatusWaitBlocked: execgraph.EdgeBlocked,
		StatusWaitCPU:     execgraph.EdgePreempted,
		StatusWaitFork:    execgraph.EdgePreempted,
		StatusWaitUnknown: execgraph.EdgePreempted,
		StatusUnknown:     execgraph.EdgeUnknown,
		StatusZombie:      execgraph.EdgeUnknown,
		StatusNotAlive:    execgraph.EdgeUnknown,
		"run":             execgraph.EdgeRunning,
	}
	for status, want := range tests {
		got, err := ResolveStatus(status)
		require.NoError(t, err, status)
		assert.Equal(t, want, got, status)
	}
}

func TestResolveInterrupts(t *testing.T) {
	assert.Equal(t, execgraph.EdgeInterrupted, ResolveIRQ(IRQTimer))
	assert.Equal(t, execgraph.EdgeUnknown, ResolveIRQ(11))

	assert.Equal(t, execgraph.EdgeTimer, ResolveSoftirq(SoftirqHRTimer))
	assert.Equal(t, execgraph.EdgeBlockDevice, ResolveSoftirq(SoftirqBlockIOPoll))
	assert.Equal(t, execgraph.EdgeNetwork, ResolveSoftirq(SoftirqNetRX))
	assert.Equal(t, execgraph.EdgeInterrupted, ResolveSoftirq(SoftirqSched))
	assert.Equal(t, execgraph.EdgeUnknown, ResolveSoftirq(SoftirqRCU))
}
