package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/loamdev/loam/internal/model"
)

// RunWithGolden executes a scenario and compares the canonical graph
// snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
//
// The snapshot is canonical JSON, so a golden match is exactly the
// replay-equivalence relation the projector guarantees.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if err := CheckAssertions(scenario, result); err != nil {
		return err
	}

	snapshot, err := model.MarshalCanonical(result.Graph.Snapshot())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)
	return nil
}
