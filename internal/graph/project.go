package graph

import (
	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
)

// Apply folds one event into the graph.
//
// Apply is idempotent: re-applying an event that is already folded in is
// a no-op, so replaying a merged history can never double-count. Errors
// come in two severities: an ORPHANED_EDGE error means the event was
// recorded as a repairable orphan and the replay should continue; every
// other error means the event was rejected.
func (g *Graph) Apply(ev model.Event) error {
	if err := ev.Validate(); err != nil {
		return apperr.Wrap(apperr.CodeIntegrity, ev.ID, err, "malformed event")
	}
	if g.Applied(ev.ID) {
		return nil
	}

	var err error
	switch p := ev.Payload.(type) {
	case model.ArtifactCaptured:
		err = g.applyCapture(ev, p)
	case model.EdgeCreated:
		err = g.applyEdge(ev, p)
	case model.Endorsed:
		err = g.applyEndorsed(ev, p)
	case model.EvidenceAdded:
		err = g.applyEvidence(ev, p)
	case model.Deprecated:
		err = g.applyDeprecated(ev, p)
	case model.Resolved:
		err = g.applyResolved(ev, p)
	case model.SymbolIndexed:
		err = g.applySymbol(ev, p)
	default:
		err = apperr.New(apperr.CodeIntegrity, ev.ID, "unhandled event type %q", ev.Type)
	}

	// Orphaned edges still count as applied: the event is in the graph's
	// books (queued), and replaying it again must not queue it twice.
	if err == nil || apperr.IsCode(err, apperr.CodeOrphanedEdge) {
		g.applied[ev.ID] = struct{}{}
	}
	return err
}

// Report summarizes a full replay.
type Report struct {
	Applied  int
	Orphaned int
	Rejected []error // non-orphan failures, in replay order
}

// Replay folds a set of events into the graph in deterministic order:
// timestamp first, event id lexical on ties. Orphaned edges and
// rejected events are collected, never fatal, so one bad record cannot
// take the whole graph down.
func (g *Graph) Replay(events []model.Event) Report {
	ordered := make([]model.Event, len(events))
	copy(ordered, events)
	sortForReplay(ordered)

	var report Report
	for _, ev := range ordered {
		err := g.Apply(ev)
		switch {
		case err == nil:
			report.Applied++
		case apperr.IsCode(err, apperr.CodeOrphanedEdge):
			report.Applied++
			report.Orphaned++
		default:
			report.Rejected = append(report.Rejected, err)
		}
	}
	return report
}

func sortForReplay(events []model.Event) {
	for i := 1; i < len(events); i++ {
		j := i
		for j > 0 && model.Less(events[j], events[j-1]) {
			events[j], events[j-1] = events[j-1], events[j]
			j--
		}
	}
}

func (g *Graph) applyCapture(ev model.Event, p model.ArtifactCaptured) error {
	if !model.ValidArtifactKind(p.Kind) {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "unknown artifact kind %q", p.Kind)
	}
	if g.HasNode(p.ArtifactID) {
		return apperr.New(apperr.CodeAlreadyExists, p.ArtifactID, "duplicate artifact id")
	}

	a := &model.Artifact{
		ID:           p.ArtifactID,
		Kind:         p.Kind,
		Scope:        ev.Scope,
		Content:      p.Content,
		Spec:         p.Spec,
		Domain:       p.Domain,
		CreatedAt:    ev.Timestamp,
		Author:       ev.Author,
		CaptureEvent: ev.ID,
	}
	if p.Kind == model.KindTension {
		a.Tension = openTension(p.Target)
	}
	g.nodes[p.ArtifactID] = a

	// A node arriving late (merged histories) may complete edges that
	// were queued as orphans.
	g.adoptOrphans(p.ArtifactID)
	return nil
}

func (g *Graph) applyEdge(ev model.Event, p model.EdgeCreated) error {
	if !model.ValidEdgeKind(p.Kind) {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "unknown edge kind %q", p.Kind)
	}

	var missing []string
	if !g.HasNode(p.From) {
		missing = append(missing, p.From)
	}
	if !g.HasNode(p.To) {
		missing = append(missing, p.To)
	}
	if len(missing) > 0 {
		g.orphans = append(g.orphans, Orphan{
			EventID: ev.ID,
			Edge:    p,
			Scope:   ev.Scope,
			Missing: missing,
		})
		return apperr.New(apperr.CodeOrphanedEdge, ev.ID,
			"edge %s -[%s]-> %s references missing node(s)", p.From, p.Kind, p.To)
	}

	g.addEdge(model.Edge{EventID: ev.ID, From: p.From, Kind: p.Kind, To: p.To, Scope: ev.Scope})
	return nil
}

func (g *Graph) applyDeprecated(ev model.Event, p model.Deprecated) error {
	a := g.Node(p.TargetID)
	if a == nil {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "deprecation targets missing artifact %s", p.TargetID)
	}
	if a.Deprecated {
		return apperr.New(apperr.CodeAlreadyExists, p.TargetID, "artifact already deprecated")
	}

	a.Deprecated = true
	a.DeprecationReason = p.Reason
	a.SupersededBy = p.SupersededBy

	// The supersession link is part of the same fact; it shares the
	// deprecation event's id.
	if p.SupersededBy != "" {
		if g.HasNode(p.SupersededBy) {
			g.addEdge(model.Edge{
				EventID: ev.ID,
				From:    p.TargetID,
				Kind:    model.EdgeSupersededBy,
				To:      p.SupersededBy,
				Scope:   ev.Scope,
			})
		} else {
			g.orphans = append(g.orphans, Orphan{
				EventID: ev.ID,
				Edge:    model.EdgeCreated{From: p.TargetID, Kind: model.EdgeSupersededBy, To: p.SupersededBy},
				Scope:   ev.Scope,
				Missing: []string{p.SupersededBy},
			})
		}
	}
	return nil
}

func (g *Graph) applySymbol(ev model.Event, p model.SymbolIndexed) error {
	if p.Kind != model.KindCodeSymbol && p.Kind != model.KindDocSymbol {
		return apperr.New(apperr.CodeIntegrity, ev.ID, "symbol event with non-symbol kind %q", p.Kind)
	}

	if existing := g.Node(p.ArtifactID); existing != nil {
		if existing.Kind != p.Kind {
			return apperr.New(apperr.CodeIntegrity, p.ArtifactID,
				"symbol refresh changes kind from %q to %q", existing.Kind, p.Kind)
		}
		// Refresh is the expected path after re-indexing: same artifact,
		// newer location.
		existing.Content = p.QualifiedName
		existing.Spec = symbolSpec(p)
		return nil
	}

	g.nodes[p.ArtifactID] = &model.Artifact{
		ID:           p.ArtifactID,
		Kind:         p.Kind,
		Scope:        ev.Scope,
		Content:      p.QualifiedName,
		Spec:         symbolSpec(p),
		CreatedAt:    ev.Timestamp,
		Author:       ev.Author,
		CaptureEvent: ev.ID,
	}
	g.adoptOrphans(p.ArtifactID)
	return nil
}

// symbolSpec stows the symbol's location in the Related spec field so
// presentation can point at the file without a cache lookup.
func symbolSpec(p model.SymbolIndexed) *model.SpecFields {
	return &model.SpecFields{
		Related: []string{p.FilePath},
	}
}

// adoptOrphans re-checks queued orphans after id gained a node. Orphans
// whose endpoints all exist are materialized in queue order and removed
// from the queue.
func (g *Graph) adoptOrphans(id string) {
	remaining := g.orphans[:0]
	for _, o := range g.orphans {
		stillMissing := false
		for _, m := range o.Missing {
			if m != id && !g.HasNode(m) {
				stillMissing = true
				break
			}
		}
		if !stillMissing && g.HasNode(o.Edge.From) && g.HasNode(o.Edge.To) {
			g.addEdge(model.Edge{
				EventID: o.EventID,
				From:    o.Edge.From,
				Kind:    o.Edge.Kind,
				To:      o.Edge.To,
				Scope:   o.Scope,
			})
			continue
		}
		remaining = append(remaining, o)
	}
	g.orphans = remaining
}
