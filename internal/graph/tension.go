package graph

import (
	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
)

// Tension lifecycle: Open -> Resolved(outcome), one way. An open
// tension accepts unlimited evidence; a single Resolve event is
// terminal. Revised and Synthesized outcomes are expected, not
// required, to be followed by deprecating the challenged artifact:
// the engine records the resolution and lets the gaps query surface
// the drift instead of enforcing the sequencing.

func openTension(target string) *model.TensionInfo {
	return &model.TensionInfo{
		Target: target,
		State:  model.TensionOpen,
	}
}

func addTensionEvidence(a *model.Artifact, ev model.Event, p model.EvidenceAdded) error {
	// Late evidence on a resolved tension is still a recorded fact; it
	// just can no longer change the outcome.
	a.Tension.Evidence = append(a.Tension.Evidence, p.Note)
	return nil
}

func (g *Graph) applyResolved(ev model.Event, p model.Resolved) error {
	a := g.Node(p.TensionID)
	if a == nil {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "resolution targets missing artifact %s", p.TensionID)
	}
	if a.Kind != model.KindTension || a.Tension == nil {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "resolution targets non-tension artifact %s", p.TensionID)
	}
	if !model.ValidOutcome(p.Outcome) {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "unknown outcome %q", p.Outcome)
	}
	if a.Tension.State == model.TensionResolved {
		return apperr.New(apperr.CodeAlreadyExists, p.TensionID, "tension already resolved")
	}

	a.Tension.State = model.TensionResolved
	a.Tension.Outcome = p.Outcome
	a.Tension.Resolution = p.Resolution
	return nil
}
