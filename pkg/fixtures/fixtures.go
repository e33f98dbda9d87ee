// Package fixtures holds reference execution graphs together with the
// critical paths the bounded and unbounded algorithms must produce for them.
// Every scenario starts at the head of Worker0 and runs to its tail.
package fixtures

import (
	"sort"

	"github.com/ritzau/critpath/pkg/execgraph"
)

var (
	Worker0 = execgraph.NewWorker("fixture", "0")
	Worker1 = execgraph.NewWorker("fixture", "1")
	Worker2 = execgraph.NewWorker("fixture", "2")
	Worker3 = execgraph.NewWorker("fixture", "3")
)

// Qualifier is the link qualifier used by the scenarios that carry one
const Qualifier = "testLinkQualifier"

const (
	running = execgraph.EdgeRunning
	blocked = execgraph.EdgeBlocked
	timer   = execgraph.EdgeTimer
	network = execgraph.EdgeNetwork
	unknown = execgraph.EdgeUnknown
	deflt   = execgraph.EdgeDefault
)

// GraphFunc builds a fresh graph on every call
type GraphFunc func() (*execgraph.Graph, error)

// Fixture is one reference scenario
type Fixture struct {
	Name        string
	Description string
	Main        execgraph.Worker
	Build       GraphFunc
	Bounded     GraphFunc
	// Unbounded is nil when the unbounded algorithm must refuse the graph
	Unbounded GraphFunc
}

var registry = map[string]Fixture{}

func register(f Fixture) {
	f.Main = Worker0
	registry[f.Name] = f
}

// All returns every fixture sorted by name
func All() []Fixture {
	out := make([]Fixture, 0, len(registry))
	for _, f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a fixture by name
func Lookup(name string) (Fixture, bool) {
	f, ok := registry[name]
	return f, ok
}

func init() {
	register(Fixture{
		Name:        "basic",
		Description: "one worker running",
		Build:       basic,
		Bounded:     basic,
		Unbounded:   basic,
	})
	register(Fixture{
		Name:        "wakeup_self",
		Description: "worker blocked on its own timer",
		Build:       wakeupSelf,
		Bounded:     wakeupSelfBounded,
		Unbounded:   wakeupSelfUnbounded,
	})
	register(Fixture{
		Name:        "wakeup_missing",
		Description: "blocked with no recorded wake-up",
		Build:       wakeupMissing,
		Bounded:     wakeupMissing,
	})
	register(Fixture{
		Name:        "wakeup_unknown",
		Description: "woken by a worker with no history",
		Build:       wakeupUnknown,
		Bounded:     wakeupUnknownBounded,
		Unbounded:   wakeupUnknownUnbounded,
	})
	register(Fixture{
		Name:        "wakeup_new",
		Description: "woken by a worker it created",
		Build:       wakeupNew,
		Bounded:     wakeupNewBounded,
		Unbounded:   wakeupNewUnbounded,
	})
	register(Fixture{
		Name:        "opened",
		Description: "woken by a worker already running before the block",
		Build:       opened,
		Bounded:     openedBounded,
	})
	register(Fixture{
		Name:        "opened_delay",
		Description: "wake-up sent before the block started",
		Build:       openedDelay,
		Bounded:     openedDelayBounded,
	})
	register(Fixture{
		Name:        "wakeup_mutual",
		Description: "two workers waking each other",
		Build:       wakeupMutual,
		Bounded:     wakeupMutualBounded,
		Unbounded:   wakeupMutualUnbounded,
	})
	register(Fixture{
		Name:        "wakeup_embedded",
		Description: "second waker forked before the first one",
		Build:       wakeupEmbedded,
		Bounded:     wakeupEmbeddedBounded,
	})
	register(Fixture{
		Name:        "wakeup_interleave",
		Description: "second waker forked after the first one",
		Build:       wakeupInterleave,
		Bounded:     wakeupEmbeddedBounded,
	})
	register(Fixture{
		Name:        "nested",
		Description: "chain of blocks three workers deep",
		Build:       nested,
		Bounded:     nestedReduced,
		Unbounded:   nestedReduced,
	})
	register(Fixture{
		Name:        "net1",
		Description: "multi-hop network relay",
		Build:       net1,
		Bounded:     net1Bounded,
	})
}

func basic() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	return b.done()
}

func wakeupSelf() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v1 := b.app(Worker0, 1, running)
	b.appq(Worker0, 2, running, Qualifier)
	v3 := b.app(Worker0, 3, blocked)
	b.app(Worker0, 4, running)
	b.link(v1, v3, timer)
	return b.done()
}

func wakeupSelfBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	b.appq(Worker0, 2, running, Qualifier)
	b.app(Worker0, 3, timer)
	b.app(Worker0, 4, running)
	return b.done()
}

func wakeupSelfUnbounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	b.app(Worker0, 3, timer)
	b.app(Worker0, 4, running)
	return b.done()
}

func wakeupMissing() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 2, running)
	b.appq(Worker0, 4, blocked, Qualifier)
	b.app(Worker0, 6, running)
	return b.done()
}

func wakeupUnknown() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 2, running)
	v4 := b.app(Worker0, 4, blocked)
	b.app(Worker0, 6, running)
	w1 := b.add(Worker1, 3)
	b.link(w1, v4, network)
	return b.done()
}

func wakeupUnknownBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v2 := b.app(Worker0, 2, running)
	v4 := b.add(Worker0, 4)
	b.app(Worker0, 6, running)
	w2 := b.add(Worker1, 2)
	w3 := b.app(Worker1, 3, unknown)
	b.link(v2, w2, deflt)
	b.link(w3, v4, network)
	return b.done()
}

func wakeupUnknownUnbounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 2, running)
	v3 := b.app(Worker0, 3, unknown)
	v4 := b.add(Worker0, 4)
	b.app(Worker0, 6, running)
	b.link(v3, v4, network)
	return b.done()
}

func wakeupNew() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v2 := b.app(Worker0, 2, running)
	b.appq(Worker0, 4, running, Qualifier)
	v6 := b.app(Worker0, 6, blocked)
	b.appq(Worker0, 8, running, Qualifier)
	w3 := b.add(Worker1, 3)
	w6 := b.appq(Worker1, 6, running, Qualifier)
	b.link(v2, w3, deflt)
	b.link(w6, v6, deflt)
	return b.done()
}

func wakeupNewBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 2, running)
	v4 := b.appq(Worker0, 4, running, Qualifier)
	v6 := b.add(Worker0, 6)
	b.appq(Worker0, 8, running, Qualifier)
	w4 := b.add(Worker1, 4)
	w6 := b.appq(Worker1, 6, running, Qualifier)
	b.link(v4, w4, deflt)
	b.link(w6, v6, deflt)
	return b.done()
}

func wakeupNewUnbounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v2 := b.app(Worker0, 2, running)
	v6 := b.add(Worker0, 6)
	b.appq(Worker0, 8, running, Qualifier)
	w3 := b.add(Worker1, 3)
	w6 := b.appq(Worker1, 6, running, Qualifier)
	b.link(v2, w3, deflt)
	b.link(w6, v6, deflt)
	return b.done()
}

func opened() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 3, running)
	v6 := b.app(Worker0, 6, blocked)
	b.app(Worker0, 9, running)
	b.add(Worker1, 0)
	w6 := b.app(Worker1, 6, running)
	b.app(Worker1, 9, running)
	b.link(w6, v6, deflt)
	return b.done()
}

func openedBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v3 := b.app(Worker0, 3, running)
	w3 := b.add(Worker1, 3)
	w6 := b.app(Worker1, 6, running)
	v6 := b.add(Worker0, 6)
	b.link(v3, w3, deflt)
	b.link(w6, v6, deflt)
	b.app(Worker0, 9, running)
	return b.done()
}

func openedDelay() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 3, running)
	v6 := b.app(Worker0, 6, blocked)
	b.app(Worker0, 9, running)
	b.add(Worker1, 0)
	w2 := b.app(Worker1, 2, running)
	b.app(Worker1, 5, running)
	b.link(w2, v6, deflt)
	return b.done()
}

func openedDelayBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v3 := b.app(Worker0, 3, running)
	w3 := b.add(Worker1, 3)
	v6 := b.add(Worker0, 6)
	b.link(v3, w3, deflt)
	b.link(w3, v6, deflt)
	b.app(Worker0, 9, running)
	return b.done()
}

func wakeupMutual() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	v2 := b.app(Worker0, 2, running)
	b.app(Worker0, 3, running)
	v4 := b.app(Worker0, 4, blocked)
	b.app(Worker0, 5, running)
	b.add(Worker1, 0)
	b.app(Worker1, 1, running)
	w2 := b.app(Worker1, 2, blocked)
	b.app(Worker1, 3, running)
	w4 := b.app(Worker1, 4, running)
	b.app(Worker1, 5, running)
	b.link(v2, w2, deflt)
	b.link(w4, v4, deflt)
	return b.done()
}

func wakeupMutualBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	b.app(Worker0, 2, running)
	v3 := b.app(Worker0, 3, running)
	v4 := b.add(Worker0, 4)
	b.app(Worker0, 5, running)
	w3 := b.add(Worker1, 3)
	w4 := b.app(Worker1, 4, running)
	b.link(v3, w3, deflt)
	b.link(w4, v4, deflt)
	return b.done()
}

func wakeupMutualUnbounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	v2 := b.app(Worker0, 2, running)
	v4 := b.add(Worker0, 4)
	b.app(Worker0, 5, running)
	w2 := b.add(Worker1, 2)
	b.app(Worker1, 3, running)
	w4 := b.app(Worker1, 4, running)
	b.link(v2, w2, deflt)
	b.link(w4, v4, deflt)
	return b.done()
}

// mainWithTwoBlocks is the Worker0 lifeline shared by the embedded and
// interleaved scenarios.
func mainWithTwoBlocks(b *builder) (v2, v4, v8, v10 *execgraph.Vertex) {
	b.add(Worker0, 0)
	v2 = b.app(Worker0, 2, running)
	v4 = b.app(Worker0, 4, running)
	b.app(Worker0, 6, running)
	v8 = b.app(Worker0, 8, blocked)
	v10 = b.app(Worker0, 10, blocked)
	b.app(Worker0, 12, running)
	return v2, v4, v8, v10
}

func wakeupEmbedded() (*execgraph.Graph, error) {
	b := newBuilder()
	v2, v4, v8, v10 := mainWithTwoBlocks(b)
	w4 := b.add(Worker1, 4)
	w8 := b.app(Worker1, 8, running)
	x2 := b.add(Worker2, 2)
	x10 := b.app(Worker2, 10, running)
	b.link(v2, x2, deflt)
	b.link(v4, w4, deflt)
	b.link(w8, v8, deflt)
	b.link(x10, v10, deflt)
	return b.done()
}

func wakeupInterleave() (*execgraph.Graph, error) {
	b := newBuilder()
	v2, v4, v8, v10 := mainWithTwoBlocks(b)
	w2 := b.add(Worker1, 2)
	w8 := b.app(Worker1, 8, running)
	x4 := b.add(Worker2, 4)
	x10 := b.app(Worker2, 10, running)
	b.link(v2, w2, deflt)
	b.link(v4, x4, deflt)
	b.link(w8, v8, deflt)
	b.link(x10, v10, deflt)
	return b.done()
}

func wakeupEmbeddedBounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 2, running)
	b.app(Worker0, 4, running)
	v6 := b.app(Worker0, 6, running)
	v8 := b.add(Worker0, 8)
	v10 := b.add(Worker0, 10)
	b.app(Worker0, 12, running)
	w6 := b.add(Worker1, 6)
	w8 := b.app(Worker1, 8, running)
	x8 := b.add(Worker2, 8)
	x10 := b.app(Worker2, 10, running)
	b.link(v6, w6, deflt)
	b.link(w8, v8, deflt)
	b.link(v8, x8, deflt)
	b.link(x10, v10, deflt)
	return b.done()
}

func nested() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v1 := b.app(Worker0, 1, running)
	v6 := b.app(Worker0, 6, blocked)
	b.app(Worker0, 7, running)
	w1 := b.add(Worker1, 1)
	w2 := b.app(Worker1, 2, running)
	w5 := b.app(Worker1, 5, blocked)
	w6 := b.app(Worker1, 6, running)
	x2 := b.add(Worker2, 2)
	x3 := b.app(Worker2, 3, running)
	x4 := b.app(Worker2, 4, blocked)
	x5 := b.app(Worker2, 5, running)
	y3 := b.add(Worker3, 3)
	y4 := b.app(Worker3, 4, running)
	b.link(v1, w1, deflt)
	b.link(w2, x2, deflt)
	b.link(x3, y3, deflt)
	b.link(y4, x4, deflt)
	b.link(x5, w5, deflt)
	b.link(w6, v6, deflt)
	return b.done()
}

func nestedReduced() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v1 := b.app(Worker0, 1, running)
	v6 := b.add(Worker0, 6)
	b.app(Worker0, 7, running)
	w1 := b.add(Worker1, 1)
	w2 := b.app(Worker1, 2, running)
	w5 := b.add(Worker1, 5)
	w6 := b.app(Worker1, 6, running)
	x2 := b.add(Worker2, 2)
	x3 := b.app(Worker2, 3, running)
	x4 := b.add(Worker2, 4)
	x5 := b.app(Worker2, 5, running)
	y3 := b.add(Worker3, 3)
	y4 := b.app(Worker3, 4, running)
	b.link(v1, w1, deflt)
	b.link(w2, x2, deflt)
	b.link(x3, y3, deflt)
	b.link(y4, x4, deflt)
	b.link(x5, w5, deflt)
	b.link(w6, v6, deflt)
	return b.done()
}

func net1() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	b.app(Worker0, 1, running)
	v11 := b.app(Worker0, 11, blocked)
	b.app(Worker0, 12, running)
	b.add(Worker1, 3)
	w4 := b.app(Worker1, 4, running)
	b.app(Worker1, 5, running)
	b.add(Worker2, 6)
	x7 := b.app(Worker2, 7, running)
	x8 := b.app(Worker2, 8, running)
	b.add(Worker3, 9)
	y10 := b.app(Worker3, 10, running)
	y11 := b.app(Worker3, 11, running)
	b.link(w4, x7, network)
	b.link(x8, y10, network)
	b.link(y11, v11, deflt)
	return b.done()
}

func net1Bounded() (*execgraph.Graph, error) {
	b := newBuilder()
	b.add(Worker0, 0)
	v1 := b.app(Worker0, 1, running)
	v11 := b.add(Worker0, 11)
	b.app(Worker0, 12, running)
	w1 := b.add(Worker1, 1)
	b.app(Worker1, 3, unknown)
	w4 := b.app(Worker1, 4, running)
	x7 := b.add(Worker2, 7)
	x8 := b.app(Worker2, 8, running)
	y10 := b.add(Worker3, 10)
	y11 := b.app(Worker3, 11, running)
	b.link(v1, w1, deflt)
	b.link(w4, x7, network)
	b.link(x8, y10, network)
	b.link(y11, v11, deflt)
	return b.done()
}
