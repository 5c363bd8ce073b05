package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const designDoc = `# Storage Design

Intro paragraph.

## Event Log

Append-only.

### Locking

Advisory lock file.

` + "```" + `
# not a heading, inside a fence
` + "```" + `

## Symbol Cache

SQLite.
`

func TestMarkdownParser_DocumentAndSections(t *testing.T) {
	p := NewMarkdownParser()
	records, err := p.Parse("docs/storage.md", []byte(designDoc))
	require.NoError(t, err)

	byName := map[string]Record{}
	for _, r := range records {
		byName[r.QualifiedName] = r
	}

	doc, ok := byName["storage"]
	require.True(t, ok, "document record missing")
	assert.Equal(t, KindDocument, doc.Kind)
	assert.Equal(t, 1, doc.LineStart)

	top, ok := byName["storage.storage-design"]
	require.True(t, ok)
	assert.Equal(t, KindSection, top.Kind)
	assert.Equal(t, "storage", top.Parent)

	section, ok := byName["storage.event-log"]
	require.True(t, ok)
	assert.Equal(t, KindSection, section.Kind)

	sub, ok := byName["storage.locking"]
	require.True(t, ok)
	assert.Equal(t, KindSubsection, sub.Kind)
	assert.Equal(t, "storage.event-log", sub.Parent)

	// The fenced pseudo-heading must not appear.
	_, fenced := byName["storage.not-a-heading-inside-a-fence"]
	assert.False(t, fenced)

	// Section spans end where the next same-level heading starts.
	cache := byName["storage.symbol-cache"]
	assert.Greater(t, cache.LineStart, sub.LineStart)
	assert.True(t, section.LineEnd < cache.LineStart)
}

func TestMarkdownParser_Extensions(t *testing.T) {
	assert.ElementsMatch(t, []string{".md", ".markdown"}, NewMarkdownParser().Extensions())
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Event Log":          "event-log",
		"What's next?":       "what-s-next",
		"API v2 (draft)":     "api-v2-draft",
		"  spaced   out  ":   "spaced-out",
		"MixedCase Heading!": "mixedcase-heading",
	}
	for in, want := range cases {
		assert.Equal(t, want, slugify(in), in)
	}
}
