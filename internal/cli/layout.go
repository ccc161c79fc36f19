package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/pkg/io"
	"github.com/fwerkmann/stackflow/pkg/parse"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		inputFormat string
		configPath  string
		noCache     bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [source]",
		Short: "Compute diagram geometry without rendering",
		Long: `Compute diagram geometry without rendering.

The source is parsed and classified, boxes are placed and connectors are
routed, and the document is written with full geometry attached. Feeding
that document back into render skips straight to the drawing stage, which
is useful for inspecting placement or diffing geometry between runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Format = parse.Format(inputFormat)
			return c.runLayout(cmd.Context(), opts, output, configPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <source>.layout.json)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: auto (default), hcl, dot, json")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (default: derived from the source)")
	cmd.Flags().BoolVar(&opts.IncludeResolutionEdges, "dns-edges", false, "keep arrows pointing out of DNS zones")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")

	return cmd
}

// runLayout computes geometry for a source and writes the document.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output, configPath string, noCache bool) error {
	cfg, err := c.loadConfig(configPath, opts.Source, &opts)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	g, _, err := runner.Parse(ctx, opts)
	if err != nil {
		spinner.StopWithError("Parse failed")
		return err
	}
	l, plan, hit, err := runner.DiagramWithCacheInfo(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = basePath("", opts.Source) + ".layout.json"
	}
	if err := writeDocument(io.New(g, l, plan), output); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), l.Crossings, hit)
	printNewline()
	printNextStep("Render", "stackflow render "+output)
	return nil
}
