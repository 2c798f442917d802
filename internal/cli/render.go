package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/reposgraph/pkg/errors"
	"github.com/matzehuels/reposgraph/pkg/graph"
	"github.com/matzehuels/reposgraph/pkg/render"
)

// renderCommand re-renders a graph saved with "crawl -f json" without
// fetching anything.
func (c *CLI) renderCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render a saved JSON graph in another format",
		Example: `  reposgraph crawl -f json -o deps.json
  reposgraph render deps.json -f svg -o deps.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Render.Format = format
			}
			return c.runRender(cmd.Context(), cfg, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: mermaid, dot, svg, json (default mermaid)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg Config, input, output string) error {
	format, err := render.ValidateFormat(cfg.Render.Format)
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "open graph")
	}
	defer f.Close()

	g, err := graph.ReadGraph(f)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "read graph %s", input)
	}
	loggerFromContext(ctx).Debug("loaded graph", "file", input, "nodes", g.NodeCount(), "edges", g.EdgeCount())

	out, err := render.Render(ctx, g, format, cfg.renderOptions())
	if err != nil {
		return err
	}
	return c.writeOutput(output, out)
}
