package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/pkg/parse"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// debugCommand creates the debug command group.
func (c *CLI) debugCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect pipeline internals",
	}

	cmd.AddCommand(c.debugGridCommand())

	return cmd
}

// debugGridCommand creates the "debug grid" subcommand.
func (c *CLI) debugGridCommand() *cobra.Command {
	var (
		inputFormat string
		configPath  string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "grid [source]",
		Short: "Dump the routing occupancy grid",
		Long: `Dump the routing occupancy grid.

Prints the grid the connector router worked against, one character per
cell: '#' for cells blocked by a node box or module header, '.' for free
cells. When an arrow hugs an obstacle in the rendered diagram, the dump
shows which corridors the router saw.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Format = parse.Format(inputFormat)
			return c.runDebugGrid(cmd.Context(), opts, configPath)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: auto (default), hcl, dot, json")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")

	return cmd
}

// runDebugGrid recomputes the diagram and prints its occupancy grid.
func (c *CLI) runDebugGrid(ctx context.Context, opts pipeline.Options, configPath string) error {
	cfg, err := c.loadConfig(configPath, opts.Source, &opts)
	if err != nil {
		return err
	}
	// Occupancy should reflect this run, not a cached one.
	runner, err := c.newRunner(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer runner.Close()
	opts.Logger = c.Logger

	g, _, err := runner.Parse(ctx, opts)
	if err != nil {
		return err
	}
	l, plan, err := runner.Diagram(ctx, g, opts)
	if err != nil {
		return err
	}

	// Rebuild the stage's grid; routing only reads it, so the dump shows
	// exactly what the router saw.
	opts.SetDiagramDefaults()
	grid := route.NewGrid(l.Width, l.Height, route.Obstacles(l), opts.Route)

	blocked := 0
	for gy := 0; gy < grid.Rows(); gy++ {
		for gx := 0; gx < grid.Cols(); gx++ {
			if grid.Blocked(gx, gy) {
				blocked++
			}
		}
	}

	printKeyValue("canvas", fmt.Sprintf("%d×%d px", l.Width, l.Height))
	printKeyValue("grid", fmt.Sprintf("%d×%d cells of %dpx", grid.Cols(), grid.Rows(), grid.CellSize()))
	printKeyValue("blocked", fmt.Sprintf("%d of %d cells", blocked, grid.Cols()*grid.Rows()))
	printKeyValue("routes", fmt.Sprintf("%d connectors, %d midpoint fallbacks", plan.ConnectorCount(), plan.Fallbacks))
	printNewline()
	fmt.Println(gridASCII(grid))
	return nil
}

// gridASCII renders the occupancy grid with one character per cell.
func gridASCII(g *route.Grid) string {
	var b strings.Builder
	b.Grow((g.Cols() + 1) * g.Rows())
	for gy := 0; gy < g.Rows(); gy++ {
		if gy > 0 {
			b.WriteByte('\n')
		}
		for gx := 0; gx < g.Cols(); gx++ {
			if g.Blocked(gx, gy) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}
