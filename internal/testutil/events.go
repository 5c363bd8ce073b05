package testutil

import (
	"fmt"

	"github.com/loamdev/loam/internal/model"
)

// EventFactory builds fully-formed events with deterministic ids and
// timestamps, so projector and replay tests read as scenario scripts
// instead of struct-literal walls.
//
// Event ids are EV2001, EV2002, ... in issue order for local factories
// and EV8001, EV8002, ... for shared ones, so a test holding one factory
// per scope never hands the same id to both partitions. Artifact ids are
// whatever the scenario passes in. Not safe for concurrent use; tests
// are single-goroutine scripts.
type EventFactory struct {
	clock *DeterministicClock
	n     int
	scope model.Scope
}

// NewEventFactory creates a factory emitting events in the given scope.
func NewEventFactory(scope model.Scope) *EventFactory {
	return &EventFactory{clock: NewDeterministicClock(), scope: scope}
}

func (f *EventFactory) next() string {
	f.n++
	series := 2
	if f.scope == model.ScopeShared {
		series = 8
	}
	return fmt.Sprintf("EV%d%03d", series, f.n)
}

func (f *EventFactory) event(t model.EventType, p model.Payload) model.Event {
	return model.Event{
		ID:        f.next(),
		Type:      t,
		Scope:     f.scope,
		Timestamp: f.clock.Now(),
		Author:    "test",
		Payload:   p,
	}
}

// Capture builds an ArtifactCaptured event for a plain artifact.
func (f *EventFactory) Capture(artifactID string, kind model.ArtifactKind, content string) model.Event {
	return f.event(model.EventArtifactCaptured, model.ArtifactCaptured{
		ArtifactID: artifactID,
		Kind:       kind,
		Content:    content,
	})
}

// CaptureTension builds the capture event for a tension challenging
// target.
func (f *EventFactory) CaptureTension(artifactID, target, claim string) model.Event {
	return f.event(model.EventArtifactCaptured, model.ArtifactCaptured{
		ArtifactID: artifactID,
		Kind:       model.KindTension,
		Content:    claim,
		Target:     target,
	})
}

// Edge builds an EdgeCreated event.
func (f *EventFactory) Edge(from string, kind model.EdgeKind, to string) model.Event {
	return f.event(model.EventEdgeCreated, model.EdgeCreated{From: from, Kind: kind, To: to})
}

// Endorse builds an Endorsed event.
func (f *EventFactory) Endorse(targetID string) model.Event {
	return f.event(model.EventEndorsed, model.Endorsed{TargetID: targetID})
}

// Evidence builds an EvidenceAdded event.
func (f *EventFactory) Evidence(targetID, note string) model.Event {
	return f.event(model.EventEvidenceAdded, model.EvidenceAdded{TargetID: targetID, Note: note})
}

// Deprecate builds a Deprecated event.
func (f *EventFactory) Deprecate(targetID, reason, supersededBy string) model.Event {
	return f.event(model.EventDeprecated, model.Deprecated{
		TargetID: targetID, Reason: reason, SupersededBy: supersededBy,
	})
}

// Resolve builds a Resolved event for a tension.
func (f *EventFactory) Resolve(tensionID string, outcome model.Outcome, resolution string) model.Event {
	return f.event(model.EventResolved, model.Resolved{
		TensionID: tensionID, Outcome: outcome, Resolution: resolution,
	})
}

// Symbol builds a SymbolIndexed event.
func (f *EventFactory) Symbol(artifactID string, kind model.ArtifactKind, qualified, path string, start, end int) model.Event {
	return f.event(model.EventSymbolIndexed, model.SymbolIndexed{
		ArtifactID:    artifactID,
		Kind:          kind,
		QualifiedName: qualified,
		FilePath:      path,
		LineStart:     start,
		LineEnd:       end,
	})
}
