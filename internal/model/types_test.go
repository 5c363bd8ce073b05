package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() Event {
	return Event{
		ID:        "EV2001",
		Type:      EventArtifactCaptured,
		Scope:     ScopeShared,
		Timestamp: time.Date(2025, 1, 1, 12, 0, 0, 500, time.UTC),
		Author:    "dana",
		Payload: ArtifactCaptured{
			ArtifactID: "D4K2MX",
			Kind:       KindDecision,
			Content:    "Use SQLite for the symbol cache",
			Domain:     "storage",
		},
	}
}

func TestEventValidate(t *testing.T) {
	assert.NoError(t, testEvent().Validate())

	t.Run("missing id", func(t *testing.T) {
		ev := testEvent()
		ev.ID = ""
		assert.Error(t, ev.Validate())
	})

	t.Run("unknown scope", func(t *testing.T) {
		ev := testEvent()
		ev.Scope = "global"
		assert.Error(t, ev.Validate())
	})

	t.Run("zero timestamp", func(t *testing.T) {
		ev := testEvent()
		ev.Timestamp = time.Time{}
		assert.Error(t, ev.Validate())
	})

	t.Run("nil payload", func(t *testing.T) {
		ev := testEvent()
		ev.Payload = nil
		assert.Error(t, ev.Validate())
	})

	t.Run("type tag mismatch", func(t *testing.T) {
		ev := testEvent()
		ev.Type = EventEndorsed
		assert.Error(t, ev.Validate())
	})
}

func TestEventJSONRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		typ  EventType
		p    Payload
	}{
		{"capture", EventArtifactCaptured, ArtifactCaptured{ArtifactID: "A2B3C4", Kind: KindConstraint, Content: "p99 < 50ms"}},
		{"tension capture", EventArtifactCaptured, ArtifactCaptured{ArtifactID: "T2B3C4", Kind: KindTension, Content: "latency regressed", Target: "A2B3C4"}},
		{"edge", EventEdgeCreated, EdgeCreated{From: "A2B3C4", Kind: EdgeSupports, To: "P2B3C4"}},
		{"endorse", EventEndorsed, Endorsed{TargetID: "A2B3C4"}},
		{"evidence", EventEvidenceAdded, EvidenceAdded{TargetID: "A2B3C4", Note: "load test passed"}},
		{"deprecate", EventDeprecated, Deprecated{TargetID: "A2B3C4", Reason: "superseded", SupersededBy: "B2B3C4"}},
		{"resolve", EventResolved, Resolved{TensionID: "T2B3C4", Outcome: OutcomeRevised, Resolution: "replaced the cache"}},
		{"symbol", EventSymbolIndexed, SymbolIndexed{ArtifactID: "S2B3C4", Kind: KindCodeSymbol, QualifiedName: "eventlog.Append", FilePath: "internal/eventlog/log.go", LineStart: 79, LineEnd: 112}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := Event{
				ID:        "EV2042",
				Type:      tc.typ,
				Scope:     ScopeLocal,
				Timestamp: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
				Author:    "sam",
				Payload:   tc.p,
			}
			data, err := json.Marshal(in)
			require.NoError(t, err)

			var out Event
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestEventUnmarshal_UnknownTypeRejected(t *testing.T) {
	line := `{"id":"EV2001","type":"node_renamed","scope":"local","ts":"2025-01-01T00:00:00Z","payload":{}}`
	var ev Event
	err := json.Unmarshal([]byte(line), &ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestLess_TimestampThenID(t *testing.T) {
	early := testEvent()
	late := testEvent()
	late.Timestamp = early.Timestamp.Add(time.Second)

	assert.True(t, Less(early, late))
	assert.False(t, Less(late, early))

	// Tie on timestamp breaks on id, lexically.
	a, b := testEvent(), testEvent()
	a.ID, b.ID = "EV2001", "EV2002"
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}
