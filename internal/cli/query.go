package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/extract"
	"github.com/loamdev/loam/internal/graph"
	"github.com/loamdev/loam/internal/model"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		kind, scope, validation, domain string
		deprecated, withSymbols         bool
	)

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List artifacts, newest last",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			artifacts := s.engine.Graph().List(graph.Filter{
				Kind:              model.ArtifactKind(kind),
				Scope:             model.Scope(scope),
				Validation:        model.ValidationState(validation),
				Domain:            domain,
				IncludeDeprecated: deprecated,
				IncludeSymbols:    withSymbols,
			})
			return s.out.JSON(artifactViews(artifacts), func(w io.Writer) {
				for _, a := range artifacts {
					fmt.Fprintf(w, "%s  %-11s  [%s]  %s\n", a.ID, a.Kind, a.Validation(), firstLineOf(a.Content))
				}
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by artifact kind")
	cmd.Flags().StringVar(&scope, "scope", "", "filter by scope (local|shared)")
	cmd.Flags().StringVar(&validation, "validation", "", "filter by validation state")
	cmd.Flags().StringVar(&domain, "domain", "", "filter by domain label")
	cmd.Flags().BoolVar(&deprecated, "deprecated", false, "include deprecated artifacts")
	cmd.Flags().BoolVar(&withSymbols, "symbols", false, "include code and doc symbol nodes")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one artifact with its relationships",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			id, err := s.engine.Resolve(args[0])
			if err != nil {
				return s.fail(err)
			}
			a := s.engine.Graph().Node(id)
			neighbors := s.engine.Graph().Neighbors(id)

			type neighborView struct {
				Edge     edgeView     `json:"edge"`
				Artifact artifactView `json:"artifact"`
				Outgoing bool         `json:"outgoing"`
			}
			data := struct {
				Artifact  artifactView   `json:"artifact"`
				Neighbors []neighborView `json:"neighbors,omitempty"`
			}{Artifact: viewOf(a)}
			for _, n := range neighbors {
				data.Neighbors = append(data.Neighbors, neighborView{
					Edge:     viewOfEdge(n.Edge),
					Artifact: viewOf(n.Artifact),
					Outgoing: n.Outgoing,
				})
			}

			return s.out.JSON(data, func(w io.Writer) {
				writeArtifact(w, a)
				for _, n := range neighbors {
					arrow := "<-"
					if n.Outgoing {
						arrow = "->"
					}
					fmt.Fprintf(w, "  %s %-14s %s  %s  %s\n",
						arrow, n.Edge.Kind, n.Artifact.ID, n.Artifact.Kind, firstLineOf(n.Artifact.Content))
				}
			})
		},
	}
}

// NewWhyCommand creates the why command.
func NewWhyCommand(rootOpts *RootOptions) *cobra.Command {
	var ask bool

	cmd := &cobra.Command{
		Use:   "why <id | question...>",
		Short: "Trace the reasoning behind an artifact",
		Long: `Why walks the rationale chain of an artifact: the purposes it
supports, the ancestors it evolved from, and the tensions raised
against it, each hop with its own rationale.

With --ask the arguments are treated as a free-text question and routed
through the synthesis service, which cites artifact ids in its answer.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			if ask {
				prose, cited, err := s.engine.Synthesize(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					if errors.Is(err, extract.ErrUnavailable) {
						return NewExitError(ExitCommandError, "synthesis service not configured")
					}
					return s.fail(err)
				}
				data := struct {
					Answer string   `json:"answer"`
					Cites  []string `json:"cites,omitempty"`
				}{prose, cited}
				return s.out.JSON(data, func(w io.Writer) {
					fmt.Fprintln(w, prose)
					for _, id := range cited {
						fmt.Fprintf(w, "  cites: %s\n", id)
					}
				})
			}

			id, err := s.engine.Resolve(args[0])
			if err != nil {
				return s.fail(err)
			}
			chain := rationaleChain(s.engine.Graph(), id)
			return s.out.JSON(chain, func(w io.Writer) {
				for _, step := range chain {
					fmt.Fprintf(w, "%s%s  %s  [%s]  %s\n",
						strings.Repeat("  ", step.Depth), step.Relation, step.ID, step.Kind, firstLineOf(step.Content))
				}
			})
		},
	}

	cmd.Flags().BoolVar(&ask, "ask", false, "ask a free-text question via the synthesis service")

	return cmd
}

// rationaleStep is one hop in a why-traversal.
type rationaleStep struct {
	Depth    int    `json:"depth"`
	Relation string `json:"relation"` // "root", "supports", "evolves_from", "tensions_with"
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Content  string `json:"content"`
}

// rationaleChain walks outgoing supports and evolves_from edges plus
// incoming tensions, depth-first, cycle-safe.
func rationaleChain(g *graph.Graph, rootID string) []rationaleStep {
	var steps []rationaleStep
	seen := map[string]bool{}

	var walk func(id, relation string, depth int)
	walk = func(id, relation string, depth int) {
		if seen[id] {
			return
		}
		seen[id] = true
		a := g.Node(id)
		if a == nil {
			return
		}
		steps = append(steps, rationaleStep{
			Depth:    depth,
			Relation: relation,
			ID:       a.ID,
			Kind:     string(a.Kind),
			Content:  a.Content,
		})
		for _, e := range g.EdgesFrom(id, model.EdgeSupports) {
			walk(e.To, "supports", depth+1)
		}
		for _, e := range g.EdgesFrom(id, model.EdgeEvolvesFrom) {
			walk(e.To, "evolves_from", depth+1)
		}
		for _, n := range g.Neighbors(id) {
			if !n.Outgoing && n.Edge.Kind == model.EdgeTensionsWith {
				walk(n.Artifact.ID, "tensions_with", depth+1)
			}
		}
	}

	walk(rootID, "root", 0)
	return steps
}

// NewGapsCommand creates the gaps command.
func NewGapsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "gaps",
		Short: "Report drift between recorded intent and the graph",
		Long: `Gaps lists detected inconsistencies: tensions resolved as revised or
synthesized whose target was never deprecated, validated decisions with
no implementation link, untested decisions, and edges still waiting for
a missing endpoint.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			gaps := s.engine.Graph().Gaps()
			return s.out.JSON(gaps, func(w io.Writer) {
				if len(gaps) == 0 {
					fmt.Fprintln(w, "no gaps")
					return
				}
				for _, g := range gaps {
					fmt.Fprintf(w, "%-17s %s  %s\n", g.Kind, g.ArtifactID, g.Detail)
				}
			})
		},
	}
}
