package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/loamdev/loam/internal/model"
	"github.com/loamdev/loam/internal/symbols"
)

// NewLinkCommand creates the link command.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	var symbolName string

	cmd := &cobra.Command{
		Use:   "link <from> <kind> [<to>]",
		Short: "Create a typed edge between two artifacts",
		Long: `Link creates a directed, typed relationship. Endpoints are ids or
unambiguous prefixes.

With --symbol, the second positional is omitted and the edge targets a
code or document symbol looked up in the index:

  loam link A7K2 supports Q3MX
  loam link A7K2 --symbol ParseEventLog`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}

			var edge model.Edge
			if symbolName != "" {
				if len(args) != 1 {
					return NewExitError(ExitCommandError, "usage: loam link <from> --symbol <name>")
				}
				cache, err := symbols.OpenCache(s.config.CachePath(s.root))
				if err != nil {
					return s.fail(err)
				}
				defer cache.Close()
				ix := symbols.NewIndexer(".", cache, nil)
				edge, err = s.engine.LinkSymbol(args[0], symbolName, ix)
				if err != nil {
					return s.fail(err)
				}
			} else {
				if len(args) != 3 {
					return NewExitError(ExitCommandError, "usage: loam link <from> <kind> <to>")
				}
				edge, err = s.engine.Link(args[0], model.EdgeKind(args[1]), args[2])
				if err != nil {
					return s.fail(err)
				}
			}

			return s.out.JSON(viewOfEdge(edge), func(w io.Writer) {
				fmt.Fprintf(w, "%s -[%s]-> %s  (%s)\n", edge.From, edge.Kind, edge.To, edge.EventID)
			})
		},
	}

	cmd.Flags().StringVar(&symbolName, "symbol", "", "link to an indexed code or doc symbol by name")

	return cmd
}
