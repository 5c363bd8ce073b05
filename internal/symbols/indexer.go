package symbols

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"lukechampine.com/blake3"
)

// Indexer coordinates parsing whitelisted paths into the cache.
//
// Indexing is whitelist-only by contract: the indexer touches exactly
// the paths it is handed and never walks a tree on its own, so vendored
// and third-party code stays out of the index unless someone asks for
// it by name.
type Indexer struct {
	root    string // paths are stored and matched relative to this
	cache   *Cache
	parsers *Registry
}

// NewIndexer creates an indexer rooted at root, writing into cache.
func NewIndexer(root string, cache *Cache, parsers *Registry) *Indexer {
	if parsers == nil {
		parsers = DefaultRegistry()
	}
	return &Indexer{root: root, cache: cache, parsers: parsers}
}

// Index parses the given paths and stores their symbol records. Paths
// are relative to the indexer root. Files whose content fingerprint is
// unchanged are skipped; files with no parser for their kind are
// reported as skipped, never failed.
func (ix *Indexer) Index(paths []string) (IndexReport, error) {
	return ix.run(paths, false)
}

// Incremental re-indexes a caller-supplied changed-files list (typically
// from a version-control diff). Unlike Index, a path that no longer
// exists on disk is treated as a deletion: its records are removed.
func (ix *Indexer) Incremental(changed []string) (IndexReport, error) {
	return ix.run(changed, true)
}

func (ix *Indexer) run(paths []string, removeMissing bool) (IndexReport, error) {
	var report IndexReport
	var stale []string

	for _, rel := range paths {
		rel = filepath.ToSlash(filepath.Clean(rel))
		abs := filepath.Join(ix.root, filepath.FromSlash(rel))

		content, err := os.ReadFile(abs)
		if err != nil {
			if os.IsNotExist(err) && removeMissing {
				stale = append(stale, rel)
				continue
			}
			// Unreadable file: skip and report rather than abort the
			// whole pass.
			report.Skipped = append(report.Skipped, rel)
			continue
		}

		parser := ix.parsers.For(rel)
		if parser == nil {
			report.Skipped = append(report.Skipped, rel)
			continue
		}

		fingerprint := fingerprintOf(content)
		if prev, ok, err := ix.cache.Fingerprint(rel); err != nil {
			return report, err
		} else if ok && prev == fingerprint {
			report.Unchanged++
			continue
		}

		records, err := parser.Parse(rel, content)
		if err != nil {
			// A file the parser cannot make sense of degrades to a skip;
			// the cache keeps whatever it had for the path.
			report.Skipped = append(report.Skipped, rel)
			continue
		}

		if err := ix.cache.ReplacePath(rel, fingerprint, records); err != nil {
			return report, err
		}
		report.Indexed++
		report.Symbols += len(records)
	}

	if len(stale) > 0 {
		removed, err := ix.cache.RemovePaths(stale)
		if err != nil {
			return report, err
		}
		report.Removed = removed
	}
	return report, nil
}

func fingerprintOf(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Clear removes cached records for paths matching pattern, keeping any
// that match except. Patterns are doublestar globs; a bare directory
// prefix and the special pattern "." (everything) also work. Returns
// the number of files cleared. Only the cache is touched.
func (ix *Indexer) Clear(pattern string, except string) (int, error) {
	paths, err := ix.cache.Paths()
	if err != nil {
		return 0, err
	}

	var doomed []string
	for _, p := range paths {
		if !matchPattern(pattern, p) {
			continue
		}
		if except != "" && matchPattern(except, p) {
			continue
		}
		doomed = append(doomed, p)
	}
	return ix.cache.RemovePaths(doomed)
}

func matchPattern(pattern, path string) bool {
	if pattern == "" || pattern == "." || pattern == "**" {
		return true
	}
	pattern = filepath.ToSlash(pattern)
	if ok, err := doublestar.Match(pattern, path); err == nil && ok {
		return true
	}
	// A plain directory name matches everything under it.
	return strings.HasPrefix(path, strings.TrimSuffix(pattern, "/")+"/")
}

// Match is a ranked query hit.
type Match struct {
	Record Record
	Tier   int // 0 exact, 1 qualified, 2 token-set
}

// Query finds symbol records for a name, ranked: exact-name matches
// first, then qualified-name matches, then token-set matches (so
// parse_event_log finds ParseEventLog). Within each tier, matches sort
// by path then line. All tiers are returned; callers cut where they
// like.
func (ix *Indexer) Query(name string) ([]Match, error) {
	records, err := ix.cache.AllRecords()
	if err != nil {
		return nil, err
	}

	queryTokens := TokenKey(name)
	var matches []Match
	for _, r := range records {
		tier, ok := rankRecord(r, name, queryTokens)
		if !ok {
			continue
		}
		matches = append(matches, Match{Record: r, Tier: tier})
	}

	// Records arrive path/line ordered; a stable sort on tier preserves
	// that order within each tier.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Tier < matches[j].Tier
	})
	return matches, nil
}

func rankRecord(r Record, name, queryTokens string) (int, bool) {
	if r.QualifiedName == name || r.Name() == name {
		return 0, true
	}
	if strings.HasSuffix(r.QualifiedName, "."+name) ||
		strings.EqualFold(r.QualifiedName, name) ||
		strings.EqualFold(r.Name(), name) {
		return 1, true
	}
	if queryTokens != "" &&
		(TokenKey(r.Name()) == queryTokens || TokenKey(r.QualifiedName) == queryTokens) {
		return 2, true
	}
	return 0, false
}
