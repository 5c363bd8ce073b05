package symbols

import (
	"path/filepath"
	"strings"
)

// Parser extracts symbol records from one file's content. Parsers are
// registered per file extension; indexing a file with no parser is a
// soft skip, never an error, so an unknown file kind in the whitelist
// degrades gracefully.
type Parser interface {
	// Extensions returns the file extensions (with dot) this parser handles.
	Extensions() []string
	// Parse extracts records from content. path is repo-relative and is
	// used for qualified-name construction and record locations.
	Parse(path string, content []byte) ([]Record, error)
}

// Registry maps file extensions to parsers.
type Registry struct {
	byExt map[string]Parser
}

// NewRegistry builds a registry from the given parsers. Later parsers
// win on extension conflicts.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{byExt: make(map[string]Parser)}
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			r.byExt[strings.ToLower(ext)] = p
		}
	}
	return r
}

// DefaultRegistry returns the stock parser set: Go, Python, and
// JavaScript/TypeScript source plus Markdown documents.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewGoParser(),
		NewPythonParser(),
		NewJavaScriptParser(),
		NewMarkdownParser(),
	)
}

// For returns the parser for a path, or nil if its kind is not handled.
func (r *Registry) For(path string) Parser {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// moduleName derives the leading qualified-name segment from a path:
// the file name without extension ("internal/graph/query.go" -> "query").
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// firstLine returns the first line of a node's source, trimmed, for use
// as a record preview.
func firstLine(src string) string {
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		src = src[:i]
	}
	return strings.TrimSpace(src)
}
