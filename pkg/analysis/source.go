package analysis

import (
	"context"
	"fmt"

	"github.com/ritzau/critpath/pkg/execgraph"
	"github.com/ritzau/critpath/pkg/fixtures"
	"github.com/ritzau/critpath/pkg/scenario"
)

// Input is a completed execution graph ready for reduction
type Input struct {
	Graph *execgraph.Graph
	Main  execgraph.Worker
	// Fixture is set when the graph comes with expected critical paths
	Fixture *fixtures.Fixture
}

// Source produces the execution graph to analyse
type Source interface {
	// Name identifies the source in logs and events
	Name() string

	// Load builds a fresh graph. It should respect the context for cancellation.
	Load(ctx context.Context) (*Input, error)
}

// ScenarioSource reads a scenario document from disk
type ScenarioSource struct {
	Path string
}

func (s ScenarioSource) Name() string {
	return s.Path
}

func (s ScenarioSource) Load(ctx context.Context) (*Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sc, err := scenario.Load(s.Path)
	if err != nil {
		return nil, err
	}
	built, err := sc.Build()
	if err != nil {
		return nil, err
	}
	return &Input{Graph: built.Graph, Main: built.Main}, nil
}

// FixtureSource builds one of the reference scenarios
type FixtureSource struct {
	Fixture string
}

func (s FixtureSource) Name() string {
	return "fixture:" + s.Fixture
}

func (s FixtureSource) Load(ctx context.Context) (*Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, ok := fixtures.Lookup(s.Fixture)
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q", s.Fixture)
	}
	g, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", f.Name, err)
	}
	return &Input{Graph: g, Main: f.Main, Fixture: &f}, nil
}

// NewSource picks the source named by a scenario path or fixture name
func NewSource(scenarioPath, fixture string) (Source, error) {
	switch {
	case scenarioPath != "" && fixture != "":
		return nil, fmt.Errorf("scenario and fixture are mutually exclusive")
	case scenarioPath != "":
		return ScenarioSource{Path: scenarioPath}, nil
	case fixture != "":
		return FixtureSource{Fixture: fixture}, nil
	}
	return nil, fmt.Errorf("no scenario or fixture given")
}
