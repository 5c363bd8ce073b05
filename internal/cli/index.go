package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/gitio"
	"github.com/loamdev/loam/internal/symbols"
)

// NewIndexCommand creates the index command.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		changedSince string
		dirty        bool
	)

	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index source and document symbols",
		Long: `Index parses the given files into the symbol cache. Indexing is
whitelist-only: with no arguments the configured index.paths globs are
expanded; nothing outside the whitelist is ever touched.

With --changed-since the file list comes from the git diff against the
given revision; with --dirty from uncommitted changes. Files that no
longer exist are dropped from the cache on those paths.

The cache is disposable. Clearing or deleting it loses nothing that a
re-index cannot restore.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}

			cache, err := symbols.OpenCache(s.config.CachePath(s.root))
			if err != nil {
				return s.fail(err)
			}
			defer cache.Close()

			projectRoot := "."
			incremental := false
			var paths []string
			switch {
			case changedSince != "":
				repo, err := gitio.Open(".")
				if err != nil {
					return s.fail(err)
				}
				projectRoot = repo.Root()
				if head, err := repo.Head(); err == nil {
					s.out.VerboseLog("diffing %s..%s", changedSince, head.Hash[:8])
				}
				paths, err = repo.ChangedSince(changedSince)
				if err != nil {
					return s.fail(err)
				}
				incremental = true
			case dirty:
				repo, err := gitio.Open(".")
				if err != nil {
					return s.fail(err)
				}
				projectRoot = repo.Root()
				paths, err = repo.Dirty()
				if err != nil {
					return s.fail(err)
				}
				incremental = true
			case len(args) > 0:
				paths = args
			default:
				paths, err = expandGlobs(projectRoot, s.config.Index.Paths, s.config.Index.Ignore)
				if err != nil {
					return s.fail(err)
				}
			}

			ix := symbols.NewIndexer(projectRoot, cache, nil)
			var report symbols.IndexReport
			if incremental {
				report, err = ix.Incremental(paths)
			} else {
				report, err = ix.Index(paths)
			}
			if err != nil {
				return s.fail(err)
			}

			return s.out.JSON(report, func(w io.Writer) {
				fmt.Fprintf(w, "indexed: %d files (%d symbols)  unchanged: %d  removed: %d\n",
					report.Indexed, report.Symbols, report.Unchanged, report.Removed)
				for _, p := range report.Skipped {
					fmt.Fprintf(w, "  skipped: %s\n", p)
				}
			})
		},
	}

	cmd.Flags().StringVar(&changedSince, "changed-since", "", "index files changed since a git revision")
	cmd.Flags().BoolVar(&dirty, "dirty", false, "index files with uncommitted changes")

	return cmd
}

// expandGlobs resolves whitelist patterns to concrete files, subtracts
// ignore patterns, and returns the result sorted and deduplicated. Plain
// paths pass through untouched.
func expandGlobs(root string, patterns, ignore []string) ([]string, error) {
	seen := make(map[string]struct{})
	fsys := os.DirFS(root)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad index pattern %q: %w", pattern, err)
		}
		if matches == nil {
			// Not a glob hit; keep literal paths so a missing file is
			// reported as skipped instead of silently ignored.
			if _, statErr := os.Stat(pattern); statErr == nil {
				seen[pattern] = struct{}{}
			}
			continue
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		if ignored, err := matchesAny(ignore, p); err != nil {
			return nil, err
		} else if ignored {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func matchesAny(patterns []string, path string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("bad ignore pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// NewSymbolsCommand creates the symbols command group.
func NewSymbolsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "Query and manage the symbol cache",
	}
	cmd.AddCommand(newSymbolsQueryCommand(rootOpts))
	cmd.AddCommand(newSymbolsClearCommand(rootOpts))
	return cmd
}

func newSymbolsQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <name>",
		Short: "Find indexed symbols by name",
		Long: `Query ranks matches in three tiers: exact name, qualified name,
then token-set equality (parse_event_log finds ParseEventLog).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			cache, err := symbols.OpenCache(s.config.CachePath(s.root))
			if err != nil {
				return s.fail(err)
			}
			defer cache.Close()

			ix := symbols.NewIndexer(".", cache, nil)
			matches, err := ix.Query(args[0])
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(matches, func(w io.Writer) {
				for _, m := range matches {
					r := m.Record
					fmt.Fprintf(w, "%-10s %s  %s:%d-%d\n", r.Kind, r.QualifiedName, r.FilePath, r.LineStart, r.LineEnd)
				}
				if len(matches) == 0 {
					fmt.Fprintln(w, "no matches")
				}
			})
		},
	}
}

func newSymbolsClearCommand(rootOpts *RootOptions) *cobra.Command {
	var except string

	cmd := &cobra.Command{
		Use:   "clear <pattern>",
		Short: "Drop cached symbols for matching paths",
		Long: `Clear removes cache rows for files matching a doublestar glob or
directory prefix; "." clears everything. Only the cache is touched, so
a clear is always safe.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			cache, err := symbols.OpenCache(s.config.CachePath(s.root))
			if err != nil {
				return s.fail(err)
			}
			defer cache.Close()

			ix := symbols.NewIndexer(".", cache, nil)
			removed, err := ix.Clear(args[0], except)
			if err != nil {
				return s.fail(err)
			}
			return s.out.Success(fmt.Sprintf("cleared %d file(s)", removed))
		},
	}

	cmd.Flags().StringVar(&except, "except", "", "keep paths matching this pattern")

	return cmd
}
