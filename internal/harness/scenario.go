package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loamdev/loam/internal/model"
)

// Scenario is a YAML-scripted graph history: a sequence of steps that
// become events, plus assertions on the projected result.
type Scenario struct {
	// Name uniquely identifies this scenario; golden files use it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are applied in order. Each step produces exactly one event
	// (challenge produces two: the tension capture and its edge).
	Steps []Step `yaml:"steps"`

	// Assertions validate the projected graph after all steps.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scripted operation. Ids are scenario-chosen so histories
// and golden files stay byte-stable; production ids come from the
// allocator instead.
type Step struct {
	// Op selects the operation: capture, challenge, link, endorse,
	// evidence, deprecate, resolve.
	Op string `yaml:"op"`

	// Scope partitions the event; defaults to local.
	Scope string `yaml:"scope,omitempty"`

	// capture / challenge
	ID      string `yaml:"id,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Content string `yaml:"content,omitempty"`
	Target  string `yaml:"target,omitempty"` // challenge only

	// link
	From string `yaml:"from,omitempty"`
	Edge string `yaml:"edge,omitempty"`
	To   string `yaml:"to,omitempty"`

	// endorse / evidence / deprecate / resolve
	Note         string `yaml:"note,omitempty"`
	Reason       string `yaml:"reason,omitempty"`
	SupersededBy string `yaml:"superseded_by,omitempty"`
	Outcome      string `yaml:"outcome,omitempty"`
	Resolution   string `yaml:"resolution,omitempty"`
}

// Step operation constants.
const (
	OpCapture   = "capture"
	OpChallenge = "challenge"
	OpLink      = "link"
	OpEndorse   = "endorse"
	OpEvidence  = "evidence"
	OpDeprecate = "deprecate"
	OpResolve   = "resolve"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so a typo fails the scenario instead of silently doing
// nothing.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, s *Step) error {
	if s.Scope != "" && !model.ValidScope(model.Scope(s.Scope)) {
		return fmt.Errorf("steps[%d]: unknown scope %q", i, s.Scope)
	}
	switch s.Op {
	case OpCapture:
		if s.ID == "" || s.Kind == "" || s.Content == "" {
			return fmt.Errorf("steps[%d]: capture requires id, kind, content", i)
		}
		if !model.ValidArtifactKind(model.ArtifactKind(s.Kind)) {
			return fmt.Errorf("steps[%d]: unknown kind %q", i, s.Kind)
		}
	case OpChallenge:
		if s.ID == "" || s.Target == "" || s.Content == "" {
			return fmt.Errorf("steps[%d]: challenge requires id, target, content", i)
		}
	case OpLink:
		if s.From == "" || s.Edge == "" || s.To == "" {
			return fmt.Errorf("steps[%d]: link requires from, edge, to", i)
		}
		if !model.ValidEdgeKind(model.EdgeKind(s.Edge)) {
			return fmt.Errorf("steps[%d]: unknown edge kind %q", i, s.Edge)
		}
	case OpEndorse:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: endorse requires id", i)
		}
	case OpEvidence:
		if s.ID == "" || s.Note == "" {
			return fmt.Errorf("steps[%d]: evidence requires id, note", i)
		}
	case OpDeprecate:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: deprecate requires id", i)
		}
	case OpResolve:
		if s.ID == "" || s.Outcome == "" {
			return fmt.Errorf("steps[%d]: resolve requires id, outcome", i)
		}
		if !model.ValidOutcome(model.Outcome(s.Outcome)) {
			return fmt.Errorf("steps[%d]: unknown outcome %q", i, s.Outcome)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, s.Op)
	}
	return nil
}
