// Package cli implements the loam command tree. Commands are thin:
// they parse flags, open the engine, call one operation, and render the
// result. All graph semantics live below this package.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/config"
	"github.com/loamdev/loam/internal/engine"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Root    string // data root, empty means resolve from env/default
	Author  string // overrides the configured author when set
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the loam CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "loam",
		Short: "loam - an engineering decision knowledge graph",
		Long: `loam captures engineering decisions, constraints, and their
relationships as an append-only event log, and answers questions about
why the system is the way it is.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Root, "root", "", "data root (default .loam, or $LOAM_ROOT)")
	cmd.PersistentFlags().StringVar(&opts.Author, "author", "", "author identity for new events")

	cmd.AddCommand(NewCaptureCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewEndorseCommand(opts))
	cmd.AddCommand(NewEvidenceCommand(opts))
	cmd.AddCommand(NewDeprecateCommand(opts))
	cmd.AddCommand(NewChallengeCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewWhyCommand(opts))
	cmd.AddCommand(NewGapsCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewIndexCommand(opts))
	cmd.AddCommand(NewSymbolsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session is everything a command needs after setup.
type session struct {
	engine *engine.Engine
	config config.Config
	root   string
	out    *OutputFormatter
}

// openSession resolves the data root, loads config, and opens the
// engine. Every command goes through here so flag precedence stays
// uniform.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	root := config.ResolveRoot(opts.Root)
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	author := cfg.Author
	if opts.Author != "" {
		author = opts.Author
	}

	eng, err := engine.Open(engine.Options{Root: root, Author: author})
	if err != nil {
		return nil, err
	}

	return &session{
		engine: eng,
		config: cfg,
		root:   root,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// fail renders a domain error through the formatter and converts it to
// a bare exit code, so Execute does not print it a second time.
func (s *session) fail(err error) error {
	s.out.Error(err)
	return &ExitError{Code: GetExitCode(err)}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		var ee *ExitError
		if !(errors.As(err, &ee) && ee.Message == "" && ee.Err == nil) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}
