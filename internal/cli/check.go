package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the projected graph against the event log",
		Long: `Check replays the full log into a fresh graph and compares it to
the live projection. It reports node and edge counts, orphaned edges,
corrupt records, and a fingerprint of the canonical snapshot.

With --repair a diverged projection is replaced by the rebuild; orphan
adoption re-runs as part of it. The log itself is never modified.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			report, err := s.engine.Check(repair)
			if err != nil {
				return s.fail(err)
			}
			if err := s.out.JSON(report, func(w io.Writer) {
				fmt.Fprintf(w, "nodes: %d  edges: %d  orphans: %d  corrupt: %d\n",
					report.Nodes, report.Edges, len(report.Orphans), report.Corrupt)
				for _, id := range report.Orphans {
					fmt.Fprintf(w, "  orphaned edge event: %s\n", id)
				}
				for _, msg := range report.Rejected {
					fmt.Fprintf(w, "  rejected: %s\n", msg)
				}
				fmt.Fprintf(w, "fingerprint: %s\n", report.Fingerprint)
				switch {
				case report.Repaired:
					fmt.Fprintln(w, "projection repaired")
				case report.Consistent:
					fmt.Fprintln(w, "consistent")
				default:
					fmt.Fprintln(w, "INCONSISTENT (run with --repair)")
				}
			}); err != nil {
				return err
			}
			if !report.Consistent && !report.Repaired {
				return NewExitError(ExitFailure, "")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "replace a diverged projection with the rebuild")

	return cmd
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Integrate freshly pulled shared events",
		Long: `Sync folds shared-scope events that are not yet in the graph into
it, in deterministic order. Pulling the shared partition (git pull or
equivalent) happens before this command; sync only integrates what the
pull left on disk.

Sync is additive and idempotent: local-only data is never removed, and
running it twice integrates nothing the second time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			report, err := s.engine.Sync()
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(report, func(w io.Writer) {
				fmt.Fprintf(w, "integrated: %d  orphaned: %d  corrupt: %d\n",
					report.Integrated, report.Orphaned, report.Corrupt)
				for _, id := range report.OpenTensions {
					fmt.Fprintf(w, "  open tension: %s\n", id)
				}
			})
		},
	}
}
