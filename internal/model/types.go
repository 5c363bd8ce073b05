package model

import (
	"fmt"
	"time"
)

// Scope partitions records into personal and team-visible storage.
// Scope determines the physical partition on disk: shared records
// round-trip through version control, local records never leave the
// machine.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeShared Scope = "shared"
)

// ValidScope reports whether s is a known scope.
func ValidScope(s Scope) bool {
	return s == ScopeLocal || s == ScopeShared
}

// EventType identifies the variant carried in an event payload.
type EventType string

const (
	EventArtifactCaptured EventType = "artifact_captured"
	EventEdgeCreated      EventType = "edge_created"
	EventEndorsed         EventType = "endorsed"
	EventEvidenceAdded    EventType = "evidence_added"
	EventDeprecated       EventType = "deprecated"
	EventResolved         EventType = "resolved"
	EventSymbolIndexed    EventType = "symbol_indexed"
)

// Event is the immutable unit of truth. Events are never mutated or
// deleted; corrections are new events.
type Event struct {
	ID        string    // allocator-issued short id
	Type      EventType // payload variant tag
	Scope     Scope     // physical partition
	Timestamp time.Time // UTC, RFC3339Nano on disk
	Author    string    // free-form author identity
	Causes    string    // optional prior event id (e.g. resolution -> challenge)
	Payload   Payload   // variant-specific data, never nil
}

// Payload is the closed set of event payload variants.
type Payload interface {
	eventType() EventType
}

// ArtifactCaptured inserts a new artifact node into the graph.
type ArtifactCaptured struct {
	ArtifactID string       `json:"artifact_id"`
	Kind       ArtifactKind `json:"kind"`
	Content    string       `json:"content"`
	Spec       *SpecFields  `json:"spec,omitempty"`
	Domain     string       `json:"domain,omitempty"` // opaque classifier output
	Target     string       `json:"target,omitempty"` // challenged artifact, Tension kind only
}

// EdgeCreated records a directed, typed relationship between two
// artifact ids. Edges are never retargeted, only added.
type EdgeCreated struct {
	From string   `json:"from"`
	Kind EdgeKind `json:"kind"`
	To   string   `json:"to"`
}

// Endorsed records one unit of human consensus for an artifact.
type Endorsed struct {
	TargetID string `json:"target_id"`
}

// EvidenceAdded records one unit of empirical evidence for an artifact
// or an open tension.
type EvidenceAdded struct {
	TargetID string `json:"target_id"`
	Note     string `json:"note"`
}

// Deprecated flips an artifact's deprecation flag. The node is never
// deleted; counts and history are preserved.
type Deprecated struct {
	TargetID     string `json:"target_id"`
	Reason       string `json:"reason,omitempty"`
	SupersededBy string `json:"superseded_by,omitempty"`
}

// Resolved terminates an open tension with an outcome from the closed
// set and a free-text resolution.
type Resolved struct {
	TensionID  string  `json:"tension_id"`
	Outcome    Outcome `json:"outcome"`
	Resolution string  `json:"resolution,omitempty"`
}

// SymbolIndexed materializes a CodeSymbol or DocSymbol artifact so that
// implemented_in edges have a durable endpoint. The symbol cache itself
// stays rebuildable; only symbols something links to are promoted into
// the graph.
type SymbolIndexed struct {
	ArtifactID    string       `json:"artifact_id"`
	Kind          ArtifactKind `json:"kind"` // KindCodeSymbol or KindDocSymbol
	QualifiedName string       `json:"qualified_name"`
	FilePath      string       `json:"file_path"`
	LineStart     int          `json:"line_start"`
	LineEnd       int          `json:"line_end"`
}

func (ArtifactCaptured) eventType() EventType { return EventArtifactCaptured }
func (EdgeCreated) eventType() EventType      { return EventEdgeCreated }
func (Endorsed) eventType() EventType         { return EventEndorsed }
func (EvidenceAdded) eventType() EventType    { return EventEvidenceAdded }
func (Deprecated) eventType() EventType       { return EventDeprecated }
func (Resolved) eventType() EventType         { return EventResolved }
func (SymbolIndexed) eventType() EventType    { return EventSymbolIndexed }

// Validate checks the envelope for structural problems before it is
// appended. The projector performs the graph-level checks.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event missing id")
	}
	if !ValidScope(e.Scope) {
		return fmt.Errorf("event %s: unknown scope %q", e.ID, e.Scope)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event %s: zero timestamp", e.ID)
	}
	if e.Payload == nil {
		return fmt.Errorf("event %s: nil payload", e.ID)
	}
	if got := e.Payload.eventType(); got != e.Type {
		return fmt.Errorf("event %s: type %q does not match payload %q", e.ID, e.Type, got)
	}
	return nil
}

// Less orders events for deterministic replay: timestamp first, event id
// lexical on ties. The same rule must hold on every machine so merged
// histories project identically.
func Less(a, b Event) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}
