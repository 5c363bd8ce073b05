package graph

import (
	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
)

// Dual-test validation: an artifact is fully trusted only once it has
// both human consensus (an endorsement) and empirical evidence. The
// state is a pure function of the counters on the node: it is derived
// on read via Artifact.Validation() and never stored where it could
// drift from its inputs.
//
// Transitions are monotonic: counters only grow, so once Validated an
// artifact can only leave that state through deprecation, which is a
// terminal marker layered on top without clearing the counts.

func (g *Graph) applyEndorsed(ev model.Event, p model.Endorsed) error {
	a := g.Node(p.TargetID)
	if a == nil {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "endorsement targets missing artifact %s", p.TargetID)
	}
	a.Endorsements++
	return nil
}

func (g *Graph) applyEvidence(ev model.Event, p model.EvidenceAdded) error {
	a := g.Node(p.TargetID)
	if a == nil {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "evidence targets missing artifact %s", p.TargetID)
	}

	// Evidence against a tension feeds its lifecycle; evidence against
	// anything else feeds dual-test validation.
	if a.Kind == model.KindTension {
		return addTensionEvidence(a, ev, p)
	}

	a.Evidence = append(a.Evidence, p.Note)
	return nil
}
