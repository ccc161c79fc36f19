package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/pkg/config"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/io"
	"github.com/fwerkmann/stackflow/pkg/parse"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
	"github.com/fwerkmann/stackflow/pkg/store"
)

// graphCommand creates the graph command: document export plus the named
// diagram store subcommands.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output      string
		inputFormat string
		configPath  string
		noCache     bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "graph [source]",
		Short: "Export the classified graph document",
		Long: `Export the classified graph document.

The document is the pipeline's intermediate JSON form: visible nodes with
flow placements plus derived edges, without geometry. It can be fed back
into render and serve, committed for review, or stored under a name with
the push subcommand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Format = parse.Format(inputFormat)
			return c.runGraphExport(cmd.Context(), opts, output, configPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: auto (default), hcl, dot, json")
	cmd.Flags().BoolVar(&opts.IncludeResolutionEdges, "dns-edges", false, "keep arrows pointing out of DNS zones")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "reclassify even when cached")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")

	cmd.AddCommand(c.graphPushCommand())
	cmd.AddCommand(c.graphPullCommand())
	cmd.AddCommand(c.graphListCommand())
	cmd.AddCommand(c.graphRemoveCommand())

	return cmd
}

// runGraphExport classifies a source and writes the document.
func (c *CLI) runGraphExport(ctx context.Context, opts pipeline.Options, output, configPath string, noCache bool) error {
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

	prog := newProgress(loggerFromContext(ctx))
	g, report, hit, err := runner.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Classified %d resources", g.NodeCount()))

	if err := writeDocument(io.New(g, nil, nil), output); err != nil {
		return err
	}

	if output == "" {
		return nil // a summary would interleave with the piped document
	}
	printSuccess("Graph exported")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), 0, hit)
	if report.CyclesBroken > 0 {
		printWarning("%d dependency cycles broken", report.CyclesBroken)
	}
	if n := len(report.Unclassified); n > 0 {
		printDetail("%d resources placed by tier heuristic", n)
	}
	printNewline()
	printNextStep("Render", "stackflow render "+output)
	return nil
}

// writeDocument writes a graph document as indented JSON.
func writeDocument(doc io.Document, output string) error {
	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// =============================================================================
// Diagram Store Subcommands
// =============================================================================

// openStore connects to the diagram store configured in the project file.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg == nil || cfg.Store.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"no diagram store configured (set [store] uri in %s)", config.DefaultFile)
	}
	return store.NewMongoStore(ctx, store.Config{
		URI:        cfg.Store.URI,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
	})
}

// graphPushCommand creates the "graph push" subcommand.
func (c *CLI) graphPushCommand() *cobra.Command {
	var (
		title      string
		configPath string
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "push [name] [source]",
		Short: "Render a source and store it as a named diagram",
		Long: `Render a source and store it as a named diagram.

The store keeps the full document plus the rendered SVG under the given
name, upserting on repeat pushes. A push whose graph hash matches the
stored one is skipped; --refresh forces the write. The source defaults to
the current directory.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "."
			if len(args) == 2 {
				source = args[1]
			}
			return c.runGraphPush(cmd.Context(), args[0], source, title, configPath, noCache, refresh)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "diagram title (default: derived from the source)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "store even when the graph is unchanged")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")

	return cmd
}

// runGraphPush renders the source and upserts the result into the store.
func (c *CLI) runGraphPush(ctx context.Context, name, source, title, configPath string, noCache, refresh bool) error {
	opts := pipeline.Options{
		Source:  source,
		Title:   title,
		View:    pipeline.ViewDiagram,
		Formats: []string{pipeline.FormatSVG},
	}
	cfg, err := c.loadConfig(configPath, source, &opts)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering diagram...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if !refresh {
		prev, err := st.Get(ctx, name)
		if err != nil && !errors.Is(err, errors.ErrCodeDiagramNotFound) {
			return err
		}
		if err == nil && prev.GraphHash == res.GraphHash {
			printInfo("Diagram %q is already up to date", name)
			return nil
		}
	}

	d := &store.Diagram{
		Name:      name,
		Title:     res.Layout.Title,
		GraphHash: res.GraphHash,
		Document:  io.New(res.Graph, res.Layout, res.Plan),
		SVG:       res.Artifacts[pipeline.FormatSVG],
		NodeCount: res.Stats.NodeCount,
		EdgeCount: res.Stats.EdgeCount,
	}
	if err := st.Save(ctx, d); err != nil {
		return err
	}

	printSuccess("Pushed %q", name)
	printStats(d.NodeCount, d.EdgeCount, res.Stats.Crossings, res.CacheInfo.RenderHit)
	printNewline()
	printNextStep("Pull", "stackflow graph pull "+name)
	return nil
}

// graphPullCommand creates the "graph pull" subcommand.
func (c *CLI) graphPullCommand() *cobra.Command {
	var (
		output     string
		withSVG    bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "pull [name]",
		Short: "Fetch a stored diagram",
		Long: `Fetch a stored diagram.

The document is written as JSON to the working directory; --svg also
writes the stored rendering. Without a name, an interactive picker lists
the store's contents.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return c.runGraphPull(cmd.Context(), name, output, configPath, withSVG)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	cmd.Flags().BoolVar(&withSVG, "svg", false, "also write the stored SVG")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml in the working directory)")

	return cmd
}

// runGraphPull fetches one diagram, prompting when no name was given.
func (c *CLI) runGraphPull(ctx context.Context, name, output, configPath string, withSVG bool) error {
	cfg, _, err := config.Discover(configPath, "")
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	if name == "" {
		sums, err := st.List(ctx)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			printInfo("Store is empty")
			return nil
		}
		name, err = pickDiagram(sums)
		if err != nil {
			return err
		}
		if name == "" {
			printDetail("No selection made")
			return nil
		}
	}

	d, err := st.Get(ctx, name)
	if err != nil {
		return err
	}

	docPath := output
	if docPath == "" {
		docPath = name + ".json"
	}
	if err := writeDocument(d.Document, docPath); err != nil {
		return err
	}
	written := []string{docPath}

	if withSVG {
		if len(d.SVG) == 0 {
			printWarning("Diagram %q has no stored SVG", name)
		} else {
			svgPath := basePath(docPath, "") + ".svg"
			if err := writeArtifact(svgPath, d.SVG); err != nil {
				return err
			}
			written = append(written, svgPath)
		}
	}

	printSuccess("Pulled %q", name)
	for _, p := range written {
		printFile(p)
	}
	printDetail("%d nodes · %d edges", d.NodeCount, d.EdgeCount)
	printNewline()
	printNextStep("Render", "stackflow render "+docPath)
	return nil
}

// graphListCommand creates the "graph ls" subcommand.
func (c *CLI) graphListCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List stored diagrams",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraphList(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml in the working directory)")

	return cmd
}

// runGraphList prints the store contents, newest first.
func (c *CLI) runGraphList(ctx context.Context, configPath string) error {
	cfg, _, err := config.Discover(configPath, "")
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	sums, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		printInfo("Store is empty")
		return nil
	}
	fmt.Println(diagramTable(sums, -1))
	return nil
}

// graphRemoveCommand creates the "graph rm" subcommand.
func (c *CLI) graphRemoveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "rm [name]",
		Aliases: []string{"remove"},
		Short:   "Remove a stored diagram",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraphRemove(cmd.Context(), args[0], configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml in the working directory)")

	return cmd
}

// runGraphRemove deletes one stored diagram.
func (c *CLI) runGraphRemove(ctx context.Context, name, configPath string) error {
	cfg, _, err := config.Discover(configPath, "")
	if err != nil {
		return err
	}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	if err := st.Delete(ctx, name); err != nil {
		return err
	}
	printSuccess("Removed %q", name)
	return nil
}
