package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope is the on-disk shape of an event: one JSON object per line,
// payload kept raw until the type tag has been read.
type envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Scope     Scope           `json:"scope"`
	Timestamp string          `json:"ts"`
	Author    string          `json:"author,omitempty"`
	Causes    string          `json:"causes,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the event envelope with its typed payload inline.
func (e Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s payload: %w", e.ID, err)
	}
	return json.Marshal(envelope{
		ID:        e.ID,
		Type:      e.Type,
		Scope:     e.Scope,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Author:    e.Author,
		Causes:    e.Causes,
		Payload:   payload,
	})
}

// UnmarshalJSON decodes the envelope and dispatches the payload on the
// type tag. Unknown event types are an error: a record from a newer
// writer must not be silently reinterpreted.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, env.Timestamp)
	if err != nil {
		return fmt.Errorf("decode event %s: bad timestamp %q: %w", env.ID, env.Timestamp, err)
	}

	payload, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return fmt.Errorf("decode event %s: %w", env.ID, err)
	}

	*e = Event{
		ID:        env.ID,
		Type:      env.Type,
		Scope:     env.Scope,
		Timestamp: ts.UTC(),
		Author:    env.Author,
		Causes:    env.Causes,
		Payload:   payload,
	}
	return nil
}

func decodePayload(t EventType, raw json.RawMessage) (Payload, error) {
	switch t {
	case EventArtifactCaptured:
		var p ArtifactCaptured
		return p, json.Unmarshal(raw, &p)
	case EventEdgeCreated:
		var p EdgeCreated
		return p, json.Unmarshal(raw, &p)
	case EventEndorsed:
		var p Endorsed
		return p, json.Unmarshal(raw, &p)
	case EventEvidenceAdded:
		var p EvidenceAdded
		return p, json.Unmarshal(raw, &p)
	case EventDeprecated:
		var p Deprecated
		return p, json.Unmarshal(raw, &p)
	case EventResolved:
		var p Resolved
		return p, json.Unmarshal(raw, &p)
	case EventSymbolIndexed:
		var p SymbolIndexed
		return p, json.Unmarshal(raw, &p)
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}
