package graph

import (
	"sort"

	"github.com/loamdev/loam/internal/model"
)

// Neighbor is one hop out of (or into) a node.
type Neighbor struct {
	Edge     model.Edge
	Artifact *model.Artifact
	Outgoing bool // true if the edge leaves the queried node
}

// Neighbors returns every artifact one edge away from id, outgoing
// first, each direction in edge application order.
func (g *Graph) Neighbors(id string) []Neighbor {
	var result []Neighbor
	for _, idx := range g.out[id] {
		e := g.edges[idx]
		result = append(result, Neighbor{Edge: e, Artifact: g.nodes[e.To], Outgoing: true})
	}
	for _, idx := range g.in[id] {
		e := g.edges[idx]
		result = append(result, Neighbor{Edge: e, Artifact: g.nodes[e.From], Outgoing: false})
	}
	return result
}

// EdgesFrom returns the outgoing edges of a node with the given kind.
func (g *Graph) EdgesFrom(id string, kind model.EdgeKind) []model.Edge {
	var result []model.Edge
	for _, idx := range g.out[id] {
		if e := g.edges[idx]; e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Kind              model.ArtifactKind
	Scope             model.Scope
	Validation        model.ValidationState
	Domain            string
	IncludeDeprecated bool
	IncludeSymbols    bool // CodeSymbol/DocSymbol nodes are noise in most listings
}

// List returns artifacts matching the filter, sorted by creation time
// then id so output is stable across invocations.
func (g *Graph) List(f Filter) []*model.Artifact {
	var result []*model.Artifact
	for _, a := range g.nodes {
		if f.Kind != "" && a.Kind != f.Kind {
			continue
		}
		if f.Scope != "" && a.Scope != f.Scope {
			continue
		}
		if f.Validation != "" && a.Validation() != f.Validation {
			continue
		}
		if f.Domain != "" && a.Domain != f.Domain {
			continue
		}
		if a.Deprecated && !f.IncludeDeprecated {
			continue
		}
		if !f.IncludeSymbols && (a.Kind == model.KindCodeSymbol || a.Kind == model.KindDocSymbol) {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// OpenTensions returns tension artifacts that have not been resolved,
// sorted by creation time then id.
func (g *Graph) OpenTensions() []*model.Artifact {
	var result []*model.Artifact
	for _, a := range g.nodes {
		if a.Kind == model.KindTension && a.Tension != nil && a.Tension.State == model.TensionOpen {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// GapKind classifies a detected drift between recorded intent and the
// graph's actual shape.
type GapKind string

const (
	// GapUnresolvedDrift: a tension was resolved as Revised or
	// Synthesized but the challenged artifact was never deprecated.
	GapUnresolvedDrift GapKind = "unresolved_drift"
	// GapUnimplemented: a validated decision has no implements or
	// implemented_in edge, so nothing ties it to code.
	GapUnimplemented GapKind = "unimplemented"
	// GapUntested: an artifact sits in Proposed with neither consensus
	// nor evidence.
	GapUntested GapKind = "untested"
	// GapOrphanedEdge: an edge still waits for a missing endpoint.
	GapOrphanedEdge GapKind = "orphaned_edge"
)

// Gap is one detected inconsistency, with enough context to act on it.
type Gap struct {
	Kind       GapKind
	ArtifactID string
	Detail     string
}

// Gaps detects drift. Detection, not enforcement: the engine records
// what happened and reports where the record disagrees with itself.
func (g *Graph) Gaps() []Gap {
	var gaps []Gap

	for _, id := range g.NodeIDs() {
		a := g.nodes[id]
		switch {
		case a.Kind == model.KindTension && a.Tension != nil:
			t := a.Tension
			if t.State != model.TensionResolved || !t.Outcome.ExpectsDeprecation() {
				continue
			}
			target := g.Node(t.Target)
			if target != nil && !target.Deprecated {
				gaps = append(gaps, Gap{
					Kind:       GapUnresolvedDrift,
					ArtifactID: a.ID,
					Detail:     "resolved as " + string(t.Outcome) + " but " + t.Target + " is not deprecated",
				})
			}
		case a.Kind == model.KindDecision && !a.Deprecated:
			switch a.Validation() {
			case model.ValidationValidated:
				if len(g.EdgesFrom(a.ID, model.EdgeImplementedIn)) == 0 &&
					len(g.EdgesFrom(a.ID, model.EdgeImplements)) == 0 {
					gaps = append(gaps, Gap{
						Kind:       GapUnimplemented,
						ArtifactID: a.ID,
						Detail:     "validated decision with no implementation link",
					})
				}
			case model.ValidationProposed:
				gaps = append(gaps, Gap{
					Kind:       GapUntested,
					ArtifactID: a.ID,
					Detail:     "decision has neither endorsement nor evidence",
				})
			}
		case a.Kind == model.KindProposal && !a.Deprecated:
			if a.Validation() == model.ValidationProposed {
				gaps = append(gaps, Gap{
					Kind:       GapUntested,
					ArtifactID: a.ID,
					Detail:     "proposal has neither endorsement nor evidence",
				})
			}
		}
	}

	for _, o := range g.orphans {
		gaps = append(gaps, Gap{
			Kind:       GapOrphanedEdge,
			ArtifactID: o.EventID,
			Detail:     o.Edge.From + " -[" + string(o.Edge.Kind) + "]-> " + o.Edge.To,
		})
	}

	return gaps
}
