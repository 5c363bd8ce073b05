package model

import "time"

// ArtifactKind is the closed set of node kinds in the decision graph.
type ArtifactKind string

const (
	KindPurpose     ArtifactKind = "purpose"
	KindDecision    ArtifactKind = "decision"
	KindConstraint  ArtifactKind = "constraint"
	KindPrinciple   ArtifactKind = "principle"
	KindRequirement ArtifactKind = "requirement"
	KindProposal    ArtifactKind = "proposal"
	KindQuestion    ArtifactKind = "question"
	KindMemo        ArtifactKind = "memo"
	KindTension     ArtifactKind = "tension"
	KindCodeSymbol  ArtifactKind = "code_symbol"
	KindDocSymbol   ArtifactKind = "doc_symbol"
)

// ArtifactKinds lists every valid kind, in display order.
var ArtifactKinds = []ArtifactKind{
	KindPurpose, KindDecision, KindConstraint, KindPrinciple,
	KindRequirement, KindProposal, KindQuestion, KindMemo,
	KindTension, KindCodeSymbol, KindDocSymbol,
}

// ValidArtifactKind reports whether k is a known kind.
func ValidArtifactKind(k ArtifactKind) bool {
	for _, kind := range ArtifactKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SpecFields are the optional structured fields an artifact's content
// may carry alongside its opaque text.
type SpecFields struct {
	Objective string   `json:"objective,omitempty"`
	Add       []string `json:"add,omitempty"`
	Modify    []string `json:"modify,omitempty"`
	Remove    []string `json:"remove,omitempty"`
	Preserve  []string `json:"preserve,omitempty"`
	Related   []string `json:"related,omitempty"`
}

// ValidationState is the derived trust level of an artifact. It is a
// pure function of endorsement and evidence counts, recomputed on every
// relevant event, never stored as an independent fact that could drift.
type ValidationState string

const (
	// ValidationProposed: no endorsement, no evidence.
	ValidationProposed ValidationState = "proposed"
	// ValidationConsensusOnly: at least one endorsement, no evidence.
	ValidationConsensusOnly ValidationState = "consensus_only"
	// ValidationEvidenceOnly: at least one piece of evidence, no endorsement.
	ValidationEvidenceOnly ValidationState = "evidence_only"
	// ValidationValidated: at least one of each. Dual-test passed.
	ValidationValidated ValidationState = "validated"
	// ValidationDeprecated is a terminal marker. The underlying counts
	// are preserved so history remains inspectable.
	ValidationDeprecated ValidationState = "deprecated"
)

// Artifact is a projected node in the decision graph.
type Artifact struct {
	ID           string
	Kind         ArtifactKind
	Scope        Scope
	Content      string
	Spec         *SpecFields
	Domain       string
	CreatedAt    time.Time
	Author       string
	CaptureEvent string // id of the ArtifactCaptured event

	Deprecated        bool
	DeprecationReason string
	SupersededBy      string

	Endorsements int
	Evidence     []string // evidence notes, in application order

	// Tension holds lifecycle state for KindTension artifacts, nil for
	// every other kind.
	Tension *TensionInfo
}

// Validation derives the artifact's current trust level.
func (a *Artifact) Validation() ValidationState {
	return DeriveValidation(a.Endorsements, len(a.Evidence), a.Deprecated)
}

// DeriveValidation computes the validation state from edge counts.
// Deprecation is terminal and wins regardless of counts.
func DeriveValidation(endorsements, evidence int, deprecated bool) ValidationState {
	if deprecated {
		return ValidationDeprecated
	}
	switch {
	case endorsements > 0 && evidence > 0:
		return ValidationValidated
	case endorsements > 0:
		return ValidationConsensusOnly
	case evidence > 0:
		return ValidationEvidenceOnly
	default:
		return ValidationProposed
	}
}
