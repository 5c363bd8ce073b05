// Package symbols maintains the derived symbol index: a rebuildable
// SQLite cache mapping names to locations in source and documentation.
//
// The index is whitelist-only, parsing exactly the paths it is given
// and never a whole tree, and is a pure cache: clearing or rebuilding it
// touches nothing in the decision graph. Per-file parsing is pluggable
// by file kind; a path with no registered parser is a soft skip.
package symbols

// Kind classifies a symbol record.
type Kind string

const (
	KindFunction   Kind = "function"
	KindMethod     Kind = "method"
	KindClass      Kind = "class"
	KindStruct     Kind = "struct"
	KindInterface  Kind = "interface"
	KindDocument   Kind = "document"
	KindSection    Kind = "section"
	KindSubsection Kind = "subsection"
)

// Record is one derived pointer into source or documentation. Records
// are created by indexing a path, invalidated wholesale by pattern-based
// clearing, and never hand-edited.
type Record struct {
	QualifiedName string `json:"qualified_name"`
	Kind          Kind   `json:"kind"`
	FilePath      string `json:"file_path"`
	LineStart     int    `json:"line_start"` // 1-based, inclusive
	LineEnd       int    `json:"line_end"`   // 1-based, inclusive
	Parent        string `json:"parent_qualified_name,omitempty"`
	Preview       string `json:"preview,omitempty"` // first line of the definition
}

// Name returns the last segment of the qualified name.
func (r Record) Name() string {
	for i := len(r.QualifiedName) - 1; i >= 0; i-- {
		if r.QualifiedName[i] == '.' {
			return r.QualifiedName[i+1:]
		}
	}
	return r.QualifiedName
}

// IndexReport summarizes one indexing pass.
type IndexReport struct {
	Indexed   int      // files parsed and written
	Unchanged int      // files skipped because their fingerprint matched
	Skipped   []string // files with no parser for their kind
	Removed   int      // stale files dropped (incremental mode)
	Symbols   int      // symbol records written
}
