package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/engine"
	"github.com/loamdev/loam/internal/model"
)

// CaptureOptions holds flags for the capture command.
type CaptureOptions struct {
	*RootOptions
	Kind   string
	Domain string
	Scope  string
	Raw    bool // skip extraction, capture verbatim
}

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CaptureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "capture <content>",
		Short: "Capture a decision, constraint, or note into the graph",
		Long: `Capture appends a new artifact to the event log.

With --kind the content is captured as that kind directly. Without it,
the text goes through the extraction service; if the service is absent
or proposes nothing, the text is kept verbatim as a memo so nothing is
ever lost.

Example:
  loam capture --kind decision "Use SQLite for the symbol cache"
  loam capture "we talked about moving retries into the client"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Kind, "kind", "k", "", "artifact kind (decision, constraint, purpose, ...)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "domain classifier label")
	cmd.Flags().StringVar(&opts.Scope, "scope", "local", "scope partition (local|shared)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "skip extraction, capture text verbatim as a memo")

	return cmd
}

func runCapture(opts *CaptureOptions, content string, cmd *cobra.Command) error {
	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	scope := model.Scope(opts.Scope)

	var captured []*model.Artifact
	switch {
	case opts.Kind != "":
		a, err := s.engine.Capture(engine.CaptureInput{
			Kind:    model.ArtifactKind(opts.Kind),
			Content: content,
			Domain:  opts.Domain,
			Scope:   scope,
		})
		if err != nil {
			return s.fail(err)
		}
		captured = []*model.Artifact{a}
	case opts.Raw:
		a, err := s.engine.Capture(engine.CaptureInput{
			Kind:    model.KindMemo,
			Content: content,
			Domain:  opts.Domain,
			Scope:   scope,
		})
		if err != nil {
			return s.fail(err)
		}
		captured = []*model.Artifact{a}
	default:
		captured, err = s.engine.CaptureText(cmd.Context(), content, scope)
		if err != nil {
			return s.fail(err)
		}
	}

	return s.out.JSON(artifactViews(captured), func(w io.Writer) {
		for _, a := range captured {
			fmt.Fprintf(w, "%s  %s  %s\n", a.ID, a.Kind, firstLineOf(a.Content))
		}
	})
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
