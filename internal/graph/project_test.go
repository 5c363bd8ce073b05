package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/testutil"
)

func TestApply_CaptureThenValidate(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)

	require.NoError(t, g.Apply(f.Capture("D2B3C4", model.KindDecision, "batch writes")))
	node := g.Node("D2B3C4")
	require.NotNil(t, node)
	assert.Equal(t, model.ValidationProposed, node.Validation())

	require.NoError(t, g.Apply(f.Endorse("D2B3C4")))
	assert.Equal(t, model.ValidationConsensusOnly, node.Validation())

	require.NoError(t, g.Apply(f.Evidence("D2B3C4", "p99 dropped 40%")))
	assert.Equal(t, model.ValidationValidated, node.Validation())
	assert.Equal(t, []string{"p99 dropped 40%"}, node.Evidence)
}

func TestApply_DuplicateArtifactIDRejected(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)

	require.NoError(t, g.Apply(f.Capture("D2B3C4", model.KindDecision, "one")))
	err := g.Apply(f.Capture("D2B3C4", model.KindDecision, "two"))
	require.Error(t, err)
	assert.True(t, apperr.IsAlreadyExists(err))
	assert.Equal(t, "one", g.Node("D2B3C4").Content)
}

func TestApply_IsIdempotent(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	ev := f.Capture("D2B3C4", model.KindDecision, "once")

	require.NoError(t, g.Apply(ev))
	require.NoError(t, g.Apply(ev)) // same event id, no-op
	assert.Equal(t, 1, g.NodeCount())

	endorse := f.Endorse("D2B3C4")
	require.NoError(t, g.Apply(endorse))
	require.NoError(t, g.Apply(endorse))
	assert.Equal(t, 1, g.Node("D2B3C4").Endorsements)
}

func TestApply_UnknownKindsRejected(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)

	bad := f.Capture("D2B3C4", "whiteboard", "x")
	err := g.Apply(bad)
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))

	require.NoError(t, g.Apply(f.Capture("A2B3C4", model.KindMemo, "a")))
	require.NoError(t, g.Apply(f.Capture("B2B3C4", model.KindMemo, "b")))
	badEdge := f.Edge("A2B3C4", "points_at", "B2B3C4")
	err = g.Apply(badEdge)
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestApply_OrphanedEdgeQueuedAndAdopted(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)

	require.NoError(t, g.Apply(f.Capture("A2B3C4", model.KindDecision, "a")))

	edge := f.Edge("A2B3C4", model.EdgeSupports, "P2B3C4")
	err := g.Apply(edge)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeOrphanedEdge))
	assert.Equal(t, 0, g.EdgeCount())
	require.Len(t, g.Orphans(), 1)
	assert.Equal(t, []string{"P2B3C4"}, g.Orphans()[0].Missing)

	// Orphaned events still count as applied, so replays stay idempotent.
	assert.True(t, g.Applied(edge.ID))
	require.NoError(t, g.Apply(edge))
	assert.Len(t, g.Orphans(), 1)

	// The endpoint arriving adopts the queued edge.
	require.NoError(t, g.Apply(f.Capture("P2B3C4", model.KindPurpose, "p")))
	assert.Empty(t, g.Orphans())
	require.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, edge.ID, g.Edges()[0].EventID)
}

func TestApply_EdgeDeduplicatesOnTriple(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	require.NoError(t, g.Apply(f.Capture("A2B3C4", model.KindDecision, "a")))
	require.NoError(t, g.Apply(f.Capture("P2B3C4", model.KindPurpose, "p")))

	require.NoError(t, g.Apply(f.Edge("A2B3C4", model.EdgeSupports, "P2B3C4")))
	require.NoError(t, g.Apply(f.Edge("A2B3C4", model.EdgeSupports, "P2B3C4"))) // different event, same triple
	assert.Equal(t, 1, g.EdgeCount())
}

func TestApply_DeprecateWithSupersession(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	require.NoError(t, g.Apply(f.Capture("A2B3C4", model.KindDecision, "old way")))
	require.NoError(t, g.Apply(f.Capture("B2B3C4", model.KindDecision, "new way")))

	dep := f.Deprecate("A2B3C4", "replaced", "B2B3C4")
	require.NoError(t, g.Apply(dep))

	old := g.Node("A2B3C4")
	assert.True(t, old.Deprecated)
	assert.Equal(t, "replaced", old.DeprecationReason)
	assert.Equal(t, "B2B3C4", old.SupersededBy)
	assert.Equal(t, model.ValidationDeprecated, old.Validation())

	edges := g.EdgesFrom("A2B3C4", model.EdgeSupersededBy)
	require.Len(t, edges, 1)
	assert.Equal(t, dep.ID, edges[0].EventID)

	// Double deprecation is a conflict.
	err := g.Apply(f.Deprecate("A2B3C4", "again", ""))
	assert.True(t, apperr.IsAlreadyExists(err))
}

func TestApply_DeprecateMissingSuccessorQueuesOrphan(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	require.NoError(t, g.Apply(f.Capture("A2B3C4", model.KindDecision, "old")))

	require.NoError(t, g.Apply(f.Deprecate("A2B3C4", "", "Z9Z9Z9")))
	assert.True(t, g.Node("A2B3C4").Deprecated)
	require.Len(t, g.Orphans(), 1)

	require.NoError(t, g.Apply(f.Capture("Z9Z9Z9", model.KindDecision, "new")))
	assert.Empty(t, g.Orphans())
	assert.Len(t, g.EdgesFrom("A2B3C4", model.EdgeSupersededBy), 1)
}

func TestApply_SymbolPromoteAndRefresh(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)

	require.NoError(t, g.Apply(f.Symbol("S2B3C4", model.KindCodeSymbol, "eventlog.Append", "internal/eventlog/log.go", 79, 112)))
	node := g.Node("S2B3C4")
	require.NotNil(t, node)
	assert.Equal(t, "eventlog.Append", node.Content)

	// Re-index moved the symbol; same artifact refreshes in place.
	require.NoError(t, g.Apply(f.Symbol("S2B3C4", model.KindCodeSymbol, "eventlog.Append", "internal/eventlog/append.go", 10, 44)))
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, []string{"internal/eventlog/append.go"}, g.Node("S2B3C4").Spec.Related)

	// A refresh may not change the kind.
	err := g.Apply(f.Symbol("S2B3C4", model.KindDocSymbol, "eventlog.Append", "x.md", 1, 2))
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestReplay_CollectsRejectionsWithoutAborting(t *testing.T) {
	f := testutil.NewEventFactory(model.ScopeLocal)
	events := []model.Event{
		f.Capture("A2B3C4", model.KindDecision, "a"),
		f.Capture("A2B3C4", model.KindDecision, "duplicate"),
		f.Capture("B2B3C4", model.KindDecision, "b"),
	}

	g := New()
	report := g.Replay(events)
	assert.Equal(t, 2, report.Applied)
	require.Len(t, report.Rejected, 1)
	assert.True(t, apperr.IsAlreadyExists(report.Rejected[0]))
	assert.Equal(t, 2, g.NodeCount())
}
