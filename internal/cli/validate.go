package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewEndorseCommand creates the endorse command.
func NewEndorseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "endorse <id>",
		Short: "Record consensus for an artifact",
		Long: `Endorse records one unit of human agreement. An artifact with
endorsement but no evidence is consensus_only; with both it is
validated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			a, err := s.engine.Endorse(args[0])
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(viewOf(a), func(w io.Writer) {
				writeArtifact(w, a)
			})
		},
	}
}

// NewEvidenceCommand creates the evidence command.
func NewEvidenceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evidence <id> <note...>",
		Short: "Record empirical evidence for an artifact or open tension",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			a, err := s.engine.AddEvidence(args[0], strings.Join(args[1:], " "))
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(viewOf(a), func(w io.Writer) {
				writeArtifact(w, a)
			})
		},
	}
}

// NewDeprecateCommand creates the deprecate command.
func NewDeprecateCommand(rootOpts *RootOptions) *cobra.Command {
	var reason, successor string

	cmd := &cobra.Command{
		Use:   "deprecate <id>",
		Short: "Mark an artifact deprecated, optionally naming a successor",
		Long: `Deprecate flips the artifact's terminal marker. History, counts,
and edges survive; nothing is deleted. With --superseded-by the
replacement is linked via a superseded_by edge.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			a, err := s.engine.Deprecate(args[0], reason, successor)
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(viewOf(a), func(w io.Writer) {
				writeArtifact(w, a)
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "why the artifact is deprecated")
	cmd.Flags().StringVar(&successor, "superseded-by", "", "id of the replacing artifact")

	return cmd
}
