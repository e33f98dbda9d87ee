package analysis

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/critpath/pkg/criticalpath"
	"github.com/ritzau/critpath/pkg/fixtures"
	"github.com/ritzau/critpath/pkg/pubsub"
)

func TestRunVerifiesEveryFixture(t *testing.T) {
	for _, f := range fixtures.All() {
		t.Run(f.Name, func(t *testing.T) {
			r := NewRunner(FixtureSource{Fixture: f.Name}, nil)
			res, err := r.Run(context.Background(), Options{End: -1, Verify: true, Reason: "test"})
			require.NoError(t, err)

			assert.True(t, res.Verified(), "%+v", res.Checks)
			assert.Len(t, res.Checks, 2)
			assert.Equal(t, f.Main, res.Worker)
			assert.Empty(t, res.Cycles)
			assert.Positive(t, res.Reach)
			assert.Same(t, res, r.Latest())
		})
	}
}

func TestRunSelectedAlgorithmFails(t *testing.T) {
	r := NewRunner(FixtureSource{Fixture: "opened"}, nil)
	_, err := r.Run(context.Background(), Options{Algorithm: criticalpath.NameUnbounded, End: -1})
	require.ErrorIs(t, err, criticalpath.ErrUnsupported)
	assert.Nil(t, r.Latest())
}

func TestRunRecordsOtherAlgorithmFailure(t *testing.T) {
	r := NewRunner(FixtureSource{Fixture: "opened"}, nil)
	res, err := r.Run(context.Background(), Options{End: -1})
	require.NoError(t, err)

	assert.Equal(t, criticalpath.NameBounded, res.Algorithm)
	assert.NoError(t, res.Selected().Err)
	assert.ErrorIs(t, res.Reductions[criticalpath.NameUnbounded].Err, criticalpath.ErrUnsupported)
}

func TestRunSpanAndWorker(t *testing.T) {
	r := NewRunner(FixtureSource{Fixture: "nested"}, nil)

	res, err := r.Run(context.Background(), Options{Worker: fixtures.Worker1.String(), Start: 2, End: 5})
	require.NoError(t, err)
	assert.Equal(t, fixtures.Worker1, res.Worker)
	assert.Equal(t, int64(2), res.Selected().Path.Head(fixtures.Worker1).Timestamp())

	_, err = r.Run(context.Background(), Options{Worker: "fixture/9", End: -1})
	require.ErrorIs(t, err, criticalpath.ErrInvalidSpan)
}

func TestRunVerifyNeedsFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.json")
	doc := `{"steps": [{"op": "add", "worker": "h/0", "ts": 0}, {"op": "append", "worker": "h/0", "ts": 3, "type": "RUNNING"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	r := NewRunner(ScenarioSource{Path: path}, nil)
	res, err := r.Run(context.Background(), Options{End: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Selected().Stats.Total())

	_, err = r.Run(context.Background(), Options{End: -1, Verify: true})
	require.Error(t, err)
}

func TestRunPublishes(t *testing.T) {
	pub := pubsub.NewSSEPublisher()
	defer pub.Close()
	pubsub.ConfigureDefaults(pub)

	r := NewRunner(FixtureSource{Fixture: "wakeup_new"}, pub)
	_, err := r.Run(context.Background(), Options{End: -1})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sub, err := pub.Subscribe(ctx, pubsub.TopicCriticalPath)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		var data pubsub.CriticalPathData
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		assert.Equal(t, "ready", ev.Type)
		assert.Equal(t, fixtures.Worker0.String(), data.Worker)
		assert.Equal(t, 2, data.Workers)
	case <-ctx.Done():
		t.Fatal("no critical path event")
	}

	status, err := pub.Subscribe(ctx, pubsub.TopicAnalysisStatus)
	require.NoError(t, err)
	defer status.Close()
	for _, want := range []string{pubsub.StateLoading, pubsub.StateBuilding, pubsub.StateReducing, pubsub.StateReady} {
		select {
		case ev := <-status.Events():
			assert.Equal(t, want, ev.Type)
		case <-ctx.Done():
			t.Fatalf("no %s status", want)
		}
	}
}

func TestNewSource(t *testing.T) {
	s, err := NewSource("", "basic")
	require.NoError(t, err)
	assert.Equal(t, "fixture:basic", s.Name())

	s, err = NewSource("a.toml", "")
	require.NoError(t, err)
	assert.Equal(t, "a.toml", s.Name())

	_, err = NewSource("a.toml", "basic")
	require.Error(t, err)
	_, err = NewSource("", "")
	require.Error(t, err)

	_, err = FixtureSource{Fixture: "missing"}.Load(context.Background())
	require.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(FixtureSource{Fixture: "basic"}, nil).Run(ctx, Options{End: -1})
	require.ErrorIs(t, err, context.Canceled)
}
