package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/model"
)

// NewChallengeCommand creates the challenge command.
func NewChallengeCommand(rootOpts *RootOptions) *cobra.Command {
	var scope string

	cmd := &cobra.Command{
		Use:   "challenge <id> <claim...>",
		Short: "Raise a tension against an artifact",
		Long: `Challenge records disagreement as a first-class tension node linked
to its target. The target keeps its validation state until the tension
is resolved; a challenge is a question, not a verdict.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			t, err := s.engine.Challenge(args[0], strings.Join(args[1:], " "), model.Scope(scope))
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(viewOf(t), func(w io.Writer) {
				writeArtifact(w, t)
			})
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "scope partition (defaults to the target's scope)")

	return cmd
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var resolution string

	cmd := &cobra.Command{
		Use:   "resolve <tension-id> <outcome>",
		Short: "Resolve an open tension",
		Long: `Resolve terminates a tension with one of the outcomes: confirmed,
revised, synthesized, or uncertain.

Revised and synthesized imply the challenged artifact should be
deprecated; the gaps command flags targets left standing.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			t, err := s.engine.ResolveTension(args[0], model.Outcome(args[1]), resolution)
			if err != nil {
				return s.fail(err)
			}
			return s.out.JSON(viewOf(t), func(w io.Writer) {
				writeArtifact(w, t)
			})
		},
	}

	cmd.Flags().StringVar(&resolution, "note", "", "free-text resolution")

	return cmd
}
