package model

// TensionState is the lifecycle state of a tension artifact.
type TensionState string

const (
	TensionOpen     TensionState = "open"
	TensionResolved TensionState = "resolved"
)

// Outcome is the closed set of tension resolutions.
type Outcome string

const (
	// OutcomeConfirmed: the challenged artifact survived the challenge.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeRevised: the challenged artifact should be deprecated and
	// replaced. The engine does not enforce the follow-up, but the gaps
	// query flags revisions whose target was never deprecated.
	OutcomeRevised Outcome = "revised"
	// OutcomeSynthesized: both positions merged into a new artifact.
	OutcomeSynthesized Outcome = "synthesized"
	// OutcomeUncertain: resolved without a verdict.
	OutcomeUncertain Outcome = "uncertain"
)

// Outcomes lists every valid outcome.
var Outcomes = []Outcome{
	OutcomeConfirmed, OutcomeRevised, OutcomeSynthesized, OutcomeUncertain,
}

// ValidOutcome reports whether o is a known outcome.
func ValidOutcome(o Outcome) bool {
	for _, outcome := range Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}

// ExpectsDeprecation reports whether the outcome implies the challenged
// artifact should eventually be deprecated.
func (o Outcome) ExpectsDeprecation() bool {
	return o == OutcomeRevised || o == OutcomeSynthesized
}

// TensionInfo holds the challenge lifecycle carried by a tension
// artifact: the challenged target, accumulated evidence references, and
// the terminal resolution once one exists.
type TensionInfo struct {
	Target     string   // challenged artifact id
	State      TensionState
	Outcome    Outcome  // set when State == TensionResolved
	Resolution string   // free-text, set on resolve
	Evidence   []string // evidence notes, in application order
}
