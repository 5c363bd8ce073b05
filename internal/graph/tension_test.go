package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/testutil"
)

// challengeFixture captures a decision and raises a tension against it.
func challengeFixture(t *testing.T) (*Graph, *testutil.EventFactory) {
	t.Helper()
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	require.NoError(t, g.Apply(f.Capture("D2B3C4", model.KindDecision, "cache everything")))
	require.NoError(t, g.Apply(f.CaptureTension("T2B3C4", "D2B3C4", "cache invalidation bugs outweigh wins")))
	require.NoError(t, g.Apply(f.Edge("T2B3C4", model.EdgeTensionsWith, "D2B3C4")))
	return g, f
}

func TestTension_OpensAgainstTarget(t *testing.T) {
	g, _ := challengeFixture(t)

	tension := g.Node("T2B3C4")
	require.NotNil(t, tension.Tension)
	assert.Equal(t, model.TensionOpen, tension.Tension.State)
	assert.Equal(t, "D2B3C4", tension.Tension.Target)

	// The challenged decision keeps its validation state.
	assert.Equal(t, model.ValidationProposed, g.Node("D2B3C4").Validation())

	tensions := g.OpenTensions()
	require.Len(t, tensions, 1)
	assert.Equal(t, "T2B3C4", tensions[0].ID)
}

func TestTension_EvidenceAccumulatesOnLifecycle(t *testing.T) {
	g, f := challengeFixture(t)

	require.NoError(t, g.Apply(f.Evidence("T2B3C4", "repro: stale read after deploy")))
	require.NoError(t, g.Apply(f.Evidence("T2B3C4", "second repro under load")))

	info := g.Node("T2B3C4").Tension
	assert.Equal(t, []string{"repro: stale read after deploy", "second repro under load"}, info.Evidence)
	// Tension evidence does not feed dual-test validation.
	assert.Empty(t, g.Node("T2B3C4").Evidence)
}

func TestTension_ResolveIsTerminal(t *testing.T) {
	g, f := challengeFixture(t)

	require.NoError(t, g.Apply(f.Resolve("T2B3C4", model.OutcomeRevised, "drop the cache layer")))
	info := g.Node("T2B3C4").Tension
	assert.Equal(t, model.TensionResolved, info.State)
	assert.Equal(t, model.OutcomeRevised, info.Outcome)
	assert.Equal(t, "drop the cache layer", info.Resolution)
	assert.Empty(t, g.OpenTensions())

	err := g.Apply(f.Resolve("T2B3C4", model.OutcomeConfirmed, "changed my mind"))
	assert.True(t, apperr.IsAlreadyExists(err))
	assert.Equal(t, model.OutcomeRevised, info.Outcome)
}

func TestTension_LateEvidenceStillRecorded(t *testing.T) {
	g, f := challengeFixture(t)
	require.NoError(t, g.Apply(f.Resolve("T2B3C4", model.OutcomeConfirmed, "")))

	require.NoError(t, g.Apply(f.Evidence("T2B3C4", "postmortem link")))
	assert.Contains(t, g.Node("T2B3C4").Tension.Evidence, "postmortem link")
	assert.Equal(t, model.TensionResolved, g.Node("T2B3C4").Tension.State)
}

func TestResolve_Rejections(t *testing.T) {
	g, f := challengeFixture(t)

	t.Run("missing artifact", func(t *testing.T) {
		err := g.Apply(f.Resolve("Z9Z9Z9", model.OutcomeConfirmed, ""))
		assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
	})

	t.Run("non-tension target", func(t *testing.T) {
		err := g.Apply(f.Resolve("D2B3C4", model.OutcomeConfirmed, ""))
		assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
	})

	t.Run("unknown outcome", func(t *testing.T) {
		err := g.Apply(f.Resolve("T2B3C4", "maybe", ""))
		assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
	})
}

func TestMutualTensions_AreOrdinaryGraphFacts(t *testing.T) {
	g := New()
	f := testutil.NewEventFactory(model.ScopeLocal)
	require.NoError(t, g.Apply(f.CaptureTension("T2AAAA", "T2BBBB", "b is wrong")))
	require.NoError(t, g.Apply(f.CaptureTension("T2BBBB", "T2AAAA", "a is wrong")))
	require.NoError(t, g.Apply(f.Edge("T2AAAA", model.EdgeTensionsWith, "T2BBBB")))
	require.NoError(t, g.Apply(f.Edge("T2BBBB", model.EdgeTensionsWith, "T2AAAA")))

	assert.Equal(t, 2, g.EdgeCount())
	assert.Len(t, g.OpenTensions(), 2)
}
