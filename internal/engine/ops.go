package engine

import (
	"context"
	"strings"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/merge"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/symbols"
)

// CaptureInput is the structured form of a capture request.
type CaptureInput struct {
	Kind    model.ArtifactKind
	Content string
	Spec    *model.SpecFields
	Domain  string
	Scope   model.Scope
}

// Capture appends an ArtifactCaptured event and returns the projected
// artifact. The id is allocator-issued; callers never pick ids.
func (e *Engine) Capture(in CaptureInput) (*model.Artifact, error) {
	if !model.ValidArtifactKind(in.Kind) {
		return nil, apperr.New(apperr.CodeIntegrity, string(in.Kind), "unknown artifact kind")
	}
	if in.Kind == model.KindTension {
		return nil, apperr.New(apperr.CodeIntegrity, "", "tensions are raised via challenge, not captured directly")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.New(apperr.CodeIntegrity, "", "empty artifact content")
	}
	if in.Scope == "" {
		in.Scope = model.ScopeLocal
	}
	if !model.ValidScope(in.Scope) {
		return nil, apperr.New(apperr.CodeIntegrity, string(in.Scope), "unknown scope")
	}

	artifactID, err := e.allocator().Allocate()
	if err != nil {
		return nil, err
	}
	_, err = e.appendAndApply(model.EventArtifactCaptured, in.Scope, "", model.ArtifactCaptured{
		ArtifactID: artifactID,
		Kind:       in.Kind,
		Content:    in.Content,
		Spec:       in.Spec,
		Domain:     in.Domain,
	})
	if err != nil {
		return nil, err
	}
	return e.graph.Node(artifactID), nil
}

// CaptureText runs free text through the extraction service and captures
// each proposed artifact. When the service is unavailable or proposes
// nothing, the text is captured verbatim as a single Memo, so capture
// never loses input.
func (e *Engine) CaptureText(ctx context.Context, text string, scope model.Scope) ([]*model.Artifact, error) {
	proposals, err := e.extractor.Extract(ctx, text)
	if err != nil || len(proposals) == 0 {
		memo, err := e.Capture(CaptureInput{Kind: model.KindMemo, Content: text, Scope: scope})
		if err != nil {
			return nil, err
		}
		return []*model.Artifact{memo}, nil
	}

	captured := make([]*model.Artifact, 0, len(proposals))
	for _, p := range proposals {
		a, err := e.Capture(CaptureInput{
			Kind:    p.Kind,
			Content: p.Content,
			Domain:  p.Domain,
			Scope:   scope,
		})
		if err != nil {
			return captured, err
		}
		captured = append(captured, a)
	}
	return captured, nil
}

// Link creates a typed edge between two artifacts, both given as ids or
// prefixes. Endpoints are resolved before the event is appended, so a
// well-formed Link never orphans.
func (e *Engine) Link(fromPrefix string, kind model.EdgeKind, toPrefix string) (model.Edge, error) {
	if !model.ValidEdgeKind(kind) {
		return model.Edge{}, apperr.New(apperr.CodeIntegrity, string(kind), "unknown edge kind")
	}
	from, err := e.Resolve(fromPrefix)
	if err != nil {
		return model.Edge{}, err
	}
	to, err := e.Resolve(toPrefix)
	if err != nil {
		return model.Edge{}, err
	}
	scope := e.edgeScope(from, to)

	ev, err := e.appendAndApply(model.EventEdgeCreated, scope, "", model.EdgeCreated{
		From: from, Kind: kind, To: to,
	})
	if err != nil {
		return model.Edge{}, err
	}
	return model.Edge{EventID: ev.ID, From: from, Kind: kind, To: to, Scope: scope}, nil
}

// edgeScope picks the partition for an edge between two resolved nodes:
// shared only when both endpoints are shared, since a shared edge
// naming a local-only node would orphan on every other machine.
func (e *Engine) edgeScope(from, to string) model.Scope {
	a, b := e.graph.Node(from), e.graph.Node(to)
	if a != nil && b != nil && a.Scope == model.ScopeShared && b.Scope == model.ScopeShared {
		return model.ScopeShared
	}
	return model.ScopeLocal
}

// Endorse records one unit of consensus for the artifact.
func (e *Engine) Endorse(prefix string) (*model.Artifact, error) {
	id, err := e.Resolve(prefix)
	if err != nil {
		return nil, err
	}
	target := e.graph.Node(id)
	_, err = e.appendAndApply(model.EventEndorsed, target.Scope, "", model.Endorsed{TargetID: id})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// AddEvidence records one unit of empirical evidence. When the target
// is an open tension the note lands on the tension lifecycle instead of
// the plain evidence list.
func (e *Engine) AddEvidence(prefix, note string) (*model.Artifact, error) {
	id, err := e.Resolve(prefix)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		return nil, apperr.New(apperr.CodeIntegrity, id, "empty evidence note")
	}
	target := e.graph.Node(id)
	_, err = e.appendAndApply(model.EventEvidenceAdded, target.Scope, "", model.EvidenceAdded{
		TargetID: id, Note: note,
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Deprecate marks an artifact deprecated, optionally naming a successor.
// The node is never removed; its history and counts survive.
func (e *Engine) Deprecate(prefix, reason, successorPrefix string) (*model.Artifact, error) {
	id, err := e.Resolve(prefix)
	if err != nil {
		return nil, err
	}
	target := e.graph.Node(id)
	if target.Deprecated {
		return nil, apperr.New(apperr.CodeAlreadyExists, id, "artifact already deprecated")
	}

	successor := ""
	if successorPrefix != "" {
		successor, err = e.Resolve(successorPrefix)
		if err != nil {
			return nil, err
		}
	}
	_, err = e.appendAndApply(model.EventDeprecated, target.Scope, "", model.Deprecated{
		TargetID: id, Reason: reason, SupersededBy: successor,
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// Challenge raises a tension against an artifact: a tension node plus a
// tensions_with edge, the edge caused by the capture event. The target
// keeps its validation state until the tension resolves; a challenge is
// a question, not a verdict.
func (e *Engine) Challenge(targetPrefix, claim string, scope model.Scope) (*model.Artifact, error) {
	target, err := e.Resolve(targetPrefix)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claim) == "" {
		return nil, apperr.New(apperr.CodeIntegrity, target, "empty challenge claim")
	}
	if scope == "" {
		scope = e.graph.Node(target).Scope
	}
	if !model.ValidScope(scope) {
		return nil, apperr.New(apperr.CodeIntegrity, string(scope), "unknown scope")
	}

	tensionID, err := e.allocator().Allocate()
	if err != nil {
		return nil, err
	}
	captureEv, err := e.appendAndApply(model.EventArtifactCaptured, scope, "", model.ArtifactCaptured{
		ArtifactID: tensionID,
		Kind:       model.KindTension,
		Content:    claim,
		Target:     target,
	})
	if err != nil {
		return nil, err
	}
	_, err = e.appendAndApply(model.EventEdgeCreated, scope, captureEv.ID, model.EdgeCreated{
		From: tensionID, Kind: model.EdgeTensionsWith, To: target,
	})
	if err != nil {
		return nil, err
	}
	return e.graph.Node(tensionID), nil
}

// ResolveTension terminates an open tension with an outcome and a
// free-text resolution. The resolution event is caused by the tension's
// capture event, keeping the challenge chain walkable.
func (e *Engine) ResolveTension(tensionPrefix string, outcome model.Outcome, resolution string) (*model.Artifact, error) {
	id, err := e.Resolve(tensionPrefix)
	if err != nil {
		return nil, err
	}
	tension := e.graph.Node(id)
	if tension.Tension == nil {
		return nil, apperr.New(apperr.CodeIntegrity, id, "artifact is not a tension")
	}
	if tension.Tension.State == model.TensionResolved {
		return nil, apperr.New(apperr.CodeAlreadyExists, id, "tension already resolved")
	}
	if !model.ValidOutcome(outcome) {
		return nil, apperr.New(apperr.CodeIntegrity, string(outcome), "unknown outcome")
	}

	_, err = e.appendAndApply(model.EventResolved, tension.Scope, tension.CaptureEvent, model.Resolved{
		TensionID: id, Outcome: outcome, Resolution: resolution,
	})
	if err != nil {
		return nil, err
	}
	return tension, nil
}

// LinkSymbol connects an artifact to a code or doc symbol by name. The
// symbol is looked up in the index; the winning record is promoted into
// the graph as a durable symbol node (reusing an existing node for the
// same qualified name) and an implemented_in edge is created.
//
// A name matching several symbols in its best tier is ambiguous and the
// caller must qualify it further; the engine never guesses.
func (e *Engine) LinkSymbol(prefix, name string, ix *symbols.Indexer) (model.Edge, error) {
	from, err := e.Resolve(prefix)
	if err != nil {
		return model.Edge{}, err
	}

	matches, err := ix.Query(name)
	if err != nil {
		return model.Edge{}, err
	}
	if len(matches) == 0 {
		return model.Edge{}, apperr.NotFound(name)
	}
	best := matches[0]
	var rivals []string
	for _, m := range matches[1:] {
		if m.Tier != best.Tier {
			break
		}
		rivals = append(rivals, m.Record.QualifiedName)
	}
	if len(rivals) > 0 {
		return model.Edge{}, apperr.Ambiguous(name, append([]string{best.Record.QualifiedName}, rivals...))
	}

	symbolID, err := e.promoteSymbol(best.Record)
	if err != nil {
		return model.Edge{}, err
	}
	scope := e.edgeScope(from, symbolID)
	ev, err := e.appendAndApply(model.EventEdgeCreated, scope, "", model.EdgeCreated{
		From: from, Kind: model.EdgeImplementedIn, To: symbolID,
	})
	if err != nil {
		return model.Edge{}, err
	}
	return model.Edge{EventID: ev.ID, From: from, Kind: model.EdgeImplementedIn, To: symbolID, Scope: scope}, nil
}

// promoteSymbol finds or creates the graph node for a symbol record.
// The cache stays rebuildable; only symbols something links to become
// graph nodes.
func (e *Engine) promoteSymbol(r symbols.Record) (string, error) {
	kind := model.KindCodeSymbol
	if r.Kind == symbols.KindDocument || r.Kind == symbols.KindSection || r.Kind == symbols.KindSubsection {
		kind = model.KindDocSymbol
	}

	for _, id := range e.graph.NodeIDs() {
		n := e.graph.Node(id)
		if n.Kind == kind && n.Content == r.QualifiedName {
			return id, nil
		}
	}

	id, err := e.allocator().Allocate()
	if err != nil {
		return "", err
	}
	_, err = e.appendAndApply(model.EventSymbolIndexed, model.ScopeLocal, "", model.SymbolIndexed{
		ArtifactID:    id,
		Kind:          kind,
		QualifiedName: r.QualifiedName,
		FilePath:      r.FilePath,
		LineStart:     r.LineStart,
		LineEnd:       r.LineEnd,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Sync folds freshly pulled shared events into the graph.
func (e *Engine) Sync() (merge.Report, error) {
	return merge.Sync(e.log, e.graph)
}

// Synthesize answers a prose question over the graph via the injected
// extraction service, handing it the current non-deprecated artifacts
// as candidates.
func (e *Engine) Synthesize(ctx context.Context, query string) (string, []string, error) {
	candidates := e.graph.List(graph.Filter{})
	answer, err := e.extractor.Synthesize(ctx, query, candidates)
	if err != nil {
		return "", nil, err
	}
	return answer.Prose, answer.CitedIDs, nil
}
