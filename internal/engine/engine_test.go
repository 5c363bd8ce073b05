package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/extract"
	"github.com/loamdev/loam/internal/ident"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/testutil"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	return openTestEngineAt(t, t.TempDir())
}

func openTestEngineAt(t *testing.T, root string) *Engine {
	t.Helper()
	e, err := Open(Options{
		Root:   root,
		Author: "tester",
		Clock:  testutil.NewDeterministicClock(),
	})
	require.NoError(t, err)
	return e
}

func TestCapture_AppendsAndProjects(t *testing.T) {
	e := openTestEngine(t)

	a, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "use sqlite for the cache"})
	require.NoError(t, err)
	assert.True(t, ident.Valid(a.ID))
	assert.Equal(t, model.KindDecision, a.Kind)
	assert.Equal(t, model.ScopeLocal, a.Scope, "scope defaults to local")
	assert.Equal(t, "tester", a.Author)
	assert.Equal(t, testutil.At(0), a.CreatedAt)
	assert.Equal(t, model.ValidationProposed, a.Validation())

	assert.True(t, e.Graph().HasNode(a.ID))
	assert.True(t, e.Graph().Applied(a.CaptureEvent))
}

func TestCapture_Rejections(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.Capture(CaptureInput{Kind: model.KindTension, Content: "not like this"})
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))

	_, err = e.Capture(CaptureInput{Kind: model.KindDecision, Content: "   "})
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))

	_, err = e.Capture(CaptureInput{Kind: "opinion", Content: "x"})
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))

	_, err = e.Capture(CaptureInput{Kind: model.KindDecision, Content: "x", Scope: "global"})
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestValidationLifecycle(t *testing.T) {
	e := openTestEngine(t)
	a, err := e.Capture(CaptureInput{Kind: model.KindConstraint, Content: "p99 under 200ms"})
	require.NoError(t, err)

	_, err = e.Endorse(a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ValidationConsensusOnly, e.Graph().Node(a.ID).Validation())

	_, err = e.AddEvidence(a.ID, "load test run 2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, model.ValidationValidated, e.Graph().Node(a.ID).Validation())
}

func TestAddEvidence_RejectsEmptyNote(t *testing.T) {
	e := openTestEngine(t)
	a, err := e.Capture(CaptureInput{Kind: model.KindPrinciple, Content: "prefer boring tech"})
	require.NoError(t, err)

	_, err = e.AddEvidence(a.ID, "  ")
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestResolve_Prefixes(t *testing.T) {
	e := openTestEngine(t)
	a, err := e.Capture(CaptureInput{Kind: model.KindMemo, Content: "one"})
	require.NoError(t, err)

	// Exact id always resolves.
	id, err := e.Resolve(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	// Find a prefix of a.ID unique among node ids, then resolve it.
	prefix := a.ID[:3]
	unique := 0
	for _, nodeID := range e.Graph().NodeIDs() {
		if len(nodeID) >= 3 && nodeID[:3] == prefix {
			unique++
		}
	}
	if unique == 1 {
		got, err := e.Resolve(prefix)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got)
	}

	// "0" is outside the id alphabet, so it can never match.
	_, err = e.Resolve("0")
	assert.True(t, apperr.IsNotFound(err))
}

func TestLink_ResolvesEndpointsAndPicksScope(t *testing.T) {
	e := openTestEngine(t)
	from, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "a"})
	require.NoError(t, err)
	to, err := e.Capture(CaptureInput{Kind: model.KindConstraint, Content: "b"})
	require.NoError(t, err)

	edge, err := e.Link(from.ID, model.EdgeSupports, to.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeLocal, edge.Scope)
	require.Len(t, e.Graph().EdgesFrom(from.ID, model.EdgeSupports), 1)

	shared1, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "s1", Scope: model.ScopeShared})
	require.NoError(t, err)
	shared2, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "s2", Scope: model.ScopeShared})
	require.NoError(t, err)

	sharedEdge, err := e.Link(shared1.ID, model.EdgeEvolvesFrom, shared2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeShared, sharedEdge.Scope)

	// Mixed endpoints stay local so other machines never see a dangling
	// reference.
	mixed, err := e.Link(shared1.ID, model.EdgeSupports, from.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScopeLocal, mixed.Scope)

	_, err = e.Link(from.ID, "blocks", to.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestChallengeAndResolve(t *testing.T) {
	e := openTestEngine(t)
	target, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "cache invalidation by TTL"})
	require.NoError(t, err)
	_, err = e.Endorse(target.ID)
	require.NoError(t, err)

	tension, err := e.Challenge(target.ID, "TTL races the writer", "")
	require.NoError(t, err)
	require.NotNil(t, tension.Tension)
	assert.Equal(t, model.TensionOpen, tension.Tension.State)
	assert.Equal(t, target.ID, tension.Tension.Target)

	// The challenge edge exists and the target's validation is untouched.
	edges := e.Graph().EdgesFrom(tension.ID, model.EdgeTensionsWith)
	require.Len(t, edges, 1)
	assert.Equal(t, target.ID, edges[0].To)
	assert.Equal(t, model.ValidationConsensusOnly, e.Graph().Node(target.ID).Validation())

	resolved, err := e.ResolveTension(tension.ID, model.OutcomeConfirmed, "measured, no race")
	require.NoError(t, err)
	assert.Equal(t, model.TensionResolved, resolved.Tension.State)
	assert.Equal(t, model.OutcomeConfirmed, resolved.Tension.Outcome)

	_, err = e.ResolveTension(tension.ID, model.OutcomeRevised, "second thoughts")
	assert.True(t, apperr.IsCode(err, apperr.CodeAlreadyExists))
}

func TestResolveTension_RejectsNonTension(t *testing.T) {
	e := openTestEngine(t)
	a, err := e.Capture(CaptureInput{Kind: model.KindMemo, Content: "plain"})
	require.NoError(t, err)

	_, err = e.ResolveTension(a.ID, model.OutcomeConfirmed, "")
	assert.True(t, apperr.IsCode(err, apperr.CodeIntegrity))
}

func TestDeprecate_WithSuccessor(t *testing.T) {
	e := openTestEngine(t)
	old, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "polling"})
	require.NoError(t, err)
	next, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "notifications"})
	require.NoError(t, err)

	_, err = e.Deprecate(old.ID, "superseded", next.ID)
	require.NoError(t, err)

	a := e.Graph().Node(old.ID)
	assert.True(t, a.Deprecated)
	assert.Equal(t, next.ID, a.SupersededBy)

	edges := e.Graph().EdgesFrom(old.ID, model.EdgeSupersededBy)
	require.Len(t, edges, 1)
	assert.Equal(t, next.ID, edges[0].To)

	_, err = e.Deprecate(old.ID, "again", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeAlreadyExists))
}

func TestCaptureText_FallsBackToMemo(t *testing.T) {
	e := openTestEngine(t)

	// Default extractor is the no-op service, which proposes nothing.
	got, err := e.CaptureText(context.Background(), "raw thought about indexes", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.KindMemo, got[0].Kind)
	assert.Equal(t, "raw thought about indexes", got[0].Content)
}

type stubExtractor struct {
	proposals []extract.Proposal
	answer    extract.Answer
}

func (s stubExtractor) Extract(ctx context.Context, text string) ([]extract.Proposal, error) {
	return s.proposals, nil
}

func (s stubExtractor) Synthesize(ctx context.Context, query string, candidates []*model.Artifact) (extract.Answer, error) {
	return s.answer, nil
}

func TestCaptureText_UsesExtractorProposals(t *testing.T) {
	e, err := Open(Options{
		Root:   t.TempDir(),
		Author: "tester",
		Clock:  testutil.NewDeterministicClock(),
		Extractor: stubExtractor{proposals: []extract.Proposal{
			{Kind: model.KindDecision, Content: "batch writes", Domain: "storage"},
			{Kind: model.KindConstraint, Content: "one fsync per batch", Domain: "storage"},
		}},
	})
	require.NoError(t, err)

	got, err := e.CaptureText(context.Background(), "we decided to batch writes...", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.KindDecision, got[0].Kind)
	assert.Equal(t, "storage", got[0].Domain)
	assert.Equal(t, model.KindConstraint, got[1].Kind)
}

func TestSynthesize_Unavailable(t *testing.T) {
	e := openTestEngine(t)
	_, _, err := e.Synthesize(context.Background(), "why sqlite?")
	assert.ErrorIs(t, err, extract.ErrUnavailable)
}

func TestSync_FoldsInSharedEvents(t *testing.T) {
	e := openTestEngine(t)
	shared := testutil.NewEventFactory(model.ScopeShared)
	_, err := e.Log().Append(shared.Capture("D2AAAA", model.KindDecision, "pulled from a teammate"))
	require.NoError(t, err)

	report, err := e.Sync()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Integrated)
	assert.True(t, e.Graph().HasNode("D2AAAA"))
}

func TestReopen_ReplaysHistory(t *testing.T) {
	root := t.TempDir()
	e := openTestEngineAt(t, root)
	a, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "durable"})
	require.NoError(t, err)
	_, err = e.Endorse(a.ID)
	require.NoError(t, err)

	reopened := openTestEngineAt(t, root)
	node := reopened.Graph().Node(a.ID)
	require.NotNil(t, node)
	assert.Equal(t, 1, node.Endorsements)
	assert.Equal(t, a.CreatedAt, node.CreatedAt)
}
