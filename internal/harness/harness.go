package harness

import (
	"fmt"

	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/testutil"
)

// Result is the outcome of running a scenario.
type Result struct {
	Graph  *graph.Graph
	Events []model.Event
	Report graph.Report
}

// Run turns the scenario's steps into events with deterministic ids and
// timestamps, replays them into a fresh graph, and returns the result.
// Orphaned edges are a legal outcome (scenarios test them on purpose);
// rejected events fail the run.
func Run(scenario *Scenario) (*Result, error) {
	events, err := buildEvents(scenario)
	if err != nil {
		return nil, err
	}

	g := graph.New()
	report := g.Replay(events)
	if len(report.Rejected) > 0 {
		return nil, fmt.Errorf("scenario %q: event rejected: %w", scenario.Name, report.Rejected[0])
	}
	return &Result{Graph: g, Events: events, Report: report}, nil
}

func buildEvents(scenario *Scenario) ([]model.Event, error) {
	factory := testutil.NewEventFactory(model.ScopeLocal)
	var events []model.Event

	add := func(ev model.Event, scope string) {
		if scope != "" {
			ev.Scope = model.Scope(scope)
		}
		events = append(events, ev)
	}

	for i, step := range scenario.Steps {
		switch step.Op {
		case OpCapture:
			add(factory.Capture(step.ID, model.ArtifactKind(step.Kind), step.Content), step.Scope)
		case OpChallenge:
			capture := factory.CaptureTension(step.ID, step.Target, step.Content)
			add(capture, step.Scope)
			edge := factory.Edge(step.ID, model.EdgeTensionsWith, step.Target)
			edge.Causes = capture.ID
			add(edge, step.Scope)
		case OpLink:
			add(factory.Edge(step.From, model.EdgeKind(step.Edge), step.To), step.Scope)
		case OpEndorse:
			add(factory.Endorse(step.ID), step.Scope)
		case OpEvidence:
			add(factory.Evidence(step.ID, step.Note), step.Scope)
		case OpDeprecate:
			add(factory.Deprecate(step.ID, step.Reason, step.SupersededBy), step.Scope)
		case OpResolve:
			add(factory.Resolve(step.ID, model.Outcome(step.Outcome), step.Resolution), step.Scope)
		default:
			return nil, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
	}
	return events, nil
}

// RunAndAssert runs the scenario and checks every assertion, returning
// the first failure.
func RunAndAssert(scenario *Scenario) (*Result, error) {
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := CheckAssertions(scenario, result); err != nil {
		return result, err
	}
	return result, nil
}
