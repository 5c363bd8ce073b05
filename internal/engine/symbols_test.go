package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loamdev/loam/internal/apperr"
	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/symbols"
)

func testSymbolIndex(t *testing.T, records map[string][]symbols.Record) *symbols.Indexer {
	t.Helper()
	cache, err := symbols.OpenCache(filepath.Join(t.TempDir(), "symbols.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	ix := symbols.NewIndexer(t.TempDir(), cache, nil)
	for path, recs := range records {
		require.NoError(t, cache.ReplacePath(path, "fp-"+path, recs))
	}
	return ix
}

func TestLinkSymbol_PromotesAndLinks(t *testing.T) {
	e := openTestEngine(t)
	ix := testSymbolIndex(t, map[string][]symbols.Record{
		"internal/eventlog/log.go": {
			{QualifiedName: "eventlog.Append", Kind: symbols.KindMethod, FilePath: "internal/eventlog/log.go", LineStart: 40, LineEnd: 62},
		},
	})

	a, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "single fsync per append"})
	require.NoError(t, err)

	edge, err := e.LinkSymbol(a.ID, "Append", ix)
	require.NoError(t, err)
	assert.Equal(t, model.EdgeImplementedIn, edge.Kind)
	assert.Equal(t, a.ID, edge.From)

	symbol := e.Graph().Node(edge.To)
	require.NotNil(t, symbol)
	assert.Equal(t, model.KindCodeSymbol, symbol.Kind)
	assert.Equal(t, "eventlog.Append", symbol.Content)
	require.NotNil(t, symbol.Spec)
	assert.Equal(t, []string{"internal/eventlog/log.go"}, symbol.Spec.Related)
}

func TestLinkSymbol_ReusesExistingSymbolNode(t *testing.T) {
	e := openTestEngine(t)
	ix := testSymbolIndex(t, map[string][]symbols.Record{
		"docs/design.md": {
			{QualifiedName: "design.locking", Kind: symbols.KindSection, FilePath: "docs/design.md", LineStart: 10, LineEnd: 30},
		},
	})

	a, err := e.Capture(CaptureInput{Kind: model.KindDecision, Content: "advisory lock"})
	require.NoError(t, err)
	b, err := e.Capture(CaptureInput{Kind: model.KindConstraint, Content: "single writer"})
	require.NoError(t, err)

	first, err := e.LinkSymbol(a.ID, "design.locking", ix)
	require.NoError(t, err)
	second, err := e.LinkSymbol(b.ID, "design.locking", ix)
	require.NoError(t, err)

	assert.Equal(t, first.To, second.To, "same qualified name must reuse the node")
	assert.Equal(t, model.KindDocSymbol, e.Graph().Node(first.To).Kind)
	assert.Equal(t, 3, e.Graph().NodeCount())
}

func TestLinkSymbol_NotFoundAndAmbiguous(t *testing.T) {
	e := openTestEngine(t)
	ix := testSymbolIndex(t, map[string][]symbols.Record{
		"a.go": {{QualifiedName: "a.Parse", Kind: symbols.KindFunction, FilePath: "a.go", LineStart: 1, LineEnd: 2}},
		"b.go": {{QualifiedName: "b.Parse", Kind: symbols.KindFunction, FilePath: "b.go", LineStart: 1, LineEnd: 2}},
	})

	art, err := e.Capture(CaptureInput{Kind: model.KindMemo, Content: "x"})
	require.NoError(t, err)

	_, err = e.LinkSymbol(art.ID, "NoSuchSymbol", ix)
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.LinkSymbol(art.ID, "Parse", ix)
	require.True(t, apperr.IsAmbiguous(err))
	var aerr *apperr.Error
	require.ErrorAs(t, err, &aerr)
	assert.ElementsMatch(t, []string{"a.Parse", "b.Parse"}, aerr.Candidates)
}
