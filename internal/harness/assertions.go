package harness

import (
	"fmt"

	"github.com/loamdev/loam/internal/model"
)

// Assertion validates one fact about the projected graph.
type Assertion struct {
	// Type selects the check: validation, tension_state, deprecated,
	// edge_exists, orphan_count, gap_count, node_count.
	Type string `yaml:"type"`

	// ID names the artifact under test (validation, tension_state,
	// deprecated).
	ID string `yaml:"id,omitempty"`

	// Expect is the expected value: a validation state, a tension state,
	// or an outcome, depending on the type.
	Expect string `yaml:"expect,omitempty"`

	// Edge endpoints (edge_exists).
	From string `yaml:"from,omitempty"`
	Edge string `yaml:"edge,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Count for the counting assertions.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertValidation   = "validation"
	AssertTensionState = "tension_state"
	AssertDeprecated   = "deprecated"
	AssertEdgeExists   = "edge_exists"
	AssertOrphanCount  = "orphan_count"
	AssertGapCount     = "gap_count"
	AssertNodeCount    = "node_count"
)

func validateAssertion(i int, a *Assertion) error {
	switch a.Type {
	case AssertValidation, AssertTensionState:
		if a.ID == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: %s requires id and expect", i, a.Type)
		}
	case AssertDeprecated:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: deprecated requires id", i)
		}
	case AssertEdgeExists:
		if a.From == "" || a.Edge == "" || a.To == "" {
			return fmt.Errorf("assertions[%d]: edge_exists requires from, edge, to", i)
		}
	case AssertOrphanCount, AssertGapCount, AssertNodeCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}

// CheckAssertions evaluates every assertion against the result and
// returns the first failure.
func CheckAssertions(scenario *Scenario, result *Result) error {
	for i, a := range scenario.Assertions {
		if err := checkAssertion(&a, result); err != nil {
			return fmt.Errorf("scenario %q assertions[%d]: %w", scenario.Name, i, err)
		}
	}
	return nil
}

func checkAssertion(a *Assertion, result *Result) error {
	g := result.Graph
	switch a.Type {
	case AssertValidation:
		node := g.Node(a.ID)
		if node == nil {
			return fmt.Errorf("artifact %s not in graph", a.ID)
		}
		if got := node.Validation(); got != model.ValidationState(a.Expect) {
			return fmt.Errorf("artifact %s validation = %s, want %s", a.ID, got, a.Expect)
		}
	case AssertTensionState:
		node := g.Node(a.ID)
		if node == nil || node.Tension == nil {
			return fmt.Errorf("artifact %s is not a tension in the graph", a.ID)
		}
		if got := string(node.Tension.State); got != a.Expect {
			return fmt.Errorf("tension %s state = %s, want %s", a.ID, got, a.Expect)
		}
	case AssertDeprecated:
		node := g.Node(a.ID)
		if node == nil {
			return fmt.Errorf("artifact %s not in graph", a.ID)
		}
		if !node.Deprecated {
			return fmt.Errorf("artifact %s is not deprecated", a.ID)
		}
	case AssertEdgeExists:
		for _, e := range g.EdgesFrom(a.From, model.EdgeKind(a.Edge)) {
			if e.To == a.To {
				return nil
			}
		}
		return fmt.Errorf("edge %s -[%s]-> %s not materialized", a.From, a.Edge, a.To)
	case AssertOrphanCount:
		if got := len(g.Orphans()); got != a.Count {
			return fmt.Errorf("orphan count = %d, want %d", got, a.Count)
		}
	case AssertGapCount:
		if got := len(g.Gaps()); got != a.Count {
			return fmt.Errorf("gap count = %d, want %d", got, a.Count)
		}
	case AssertNodeCount:
		if got := g.NodeCount(); got != a.Count {
			return fmt.Errorf("node count = %d, want %d", got, a.Count)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
