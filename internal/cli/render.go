package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/pkg/parse"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
)

// renderCommand creates the render command, the front door of the pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output      string
		formatsStr  string
		inputFormat string
		configPath  string
		noCache     bool
		jsonReport  bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Render an architecture diagram from infrastructure sources",
		Long: `Render an architecture diagram from infrastructure sources.

The source can be a .tf file or a directory of them, "terraform graph"
output (.dot), an exported graph document (.json), an http(s) URL serving
one of those, or "-" for stdin. The input format is detected from path and
content; --input-format overrides detection.

Formats svg, png, pdf, json, and dot can be produced in one run; with
multiple formats the output flag acts as a base path. Stage results are
cached, so re-rendering an unchanged source is cheap.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Format = parse.Format(inputFormat)
			opts.Formats = parseFormats(formatsStr)
			return c.runRender(cmd.Context(), opts, output, configPath, noCache, jsonReport)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple formats)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: auto (default), hcl, dot, json")
	cmd.Flags().StringVar(&opts.View, "view", "", "view: diagram (default), nodelink")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (default: derived from the source)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", 0, "PNG scale factor (default 2)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include resource types in nodelink labels")
	cmd.Flags().BoolVar(&opts.HideActor, "hide-actor", false, "omit the user figure and entry arrows")
	cmd.Flags().BoolVar(&opts.HideCrossModule, "hide-cross-module", false, "omit dashed cross-module connectors")
	cmd.Flags().StringVar(&opts.Footer, "footer", "", "footer text")
	cmd.Flags().BoolVar(&opts.IncludeResolutionEdges, "dns-edges", false, "keep arrows pointing out of DNS zones")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute every stage, ignoring cached results")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "print a machine-readable run report to stdout")

	return cmd
}

// runRender executes the full pipeline and writes the requested artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output, configPath string, noCache, jsonReport bool) error {
	cfg, err := c.loadConfig(configPath, opts.Source, &opts)
	if err != nil {
		return err
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{pipeline.FormatSVG}
	}

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

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, output, opts.Source)
	if err != nil {
		return err
	}

	if jsonReport {
		return writeRunReport(os.Stdout, res, paths)
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Stats.Crossings, res.CacheInfo.RenderHit)
	if res.Plan != nil && res.Plan.Fallbacks > 0 {
		printWarning("%d connectors crossed obstacles at midpoint height", res.Plan.Fallbacks)
	}
	printNewline()
	printNextStep("Preview", "stackflow serve "+opts.Source)
	return nil
}

// writeArtifacts writes one file per rendered format and returns the paths.
// A single format honors --output verbatim; multiple formats share a base
// path with per-format extensions.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, source string) ([]string, error) {
	if len(formats) == 1 && output != "" {
		if err := writeArtifact(output, artifacts[formats[0]]); err != nil {
			return nil, err
		}
		return []string{output}, nil
	}

	base := basePath(output, source)
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		p := base + "." + format
		if err := writeArtifact(p, data); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// writeArtifact writes a single artifact to path.
func writeArtifact(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}

// basePath derives the artifact base path. An explicit output drops a known
// format extension; otherwise the source name is reused, with URL and stdin
// sources falling back to "diagram".
func basePath(output, source string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	switch {
	case source == "" || source == "-":
		return "diagram"
	case strings.Contains(source, "://"):
		base := path.Base(source)
		if ext := path.Ext(base); pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			base = strings.TrimSuffix(base, ext)
		}
		if base == "" || base == "." || base == "/" {
			return "diagram"
		}
		return base
	default:
		clean := filepath.Clean(source)
		return strings.TrimSuffix(clean, filepath.Ext(clean))
	}
}

// runReport is the --json summary printed after a render.
type runReport struct {
	RunID     string   `json:"run_id"`
	GraphHash string   `json:"graph_hash"`
	Nodes     int      `json:"nodes"`
	Edges     int      `json:"edges"`
	Crossings int      `json:"crossings"`
	Fallbacks int      `json:"fallbacks"`
	ParseMS   int64    `json:"parse_ms"`
	LayoutMS  int64    `json:"layout_ms"`
	RenderMS  int64    `json:"render_ms"`
	Cached    bool     `json:"cached"`
	Outputs   []string `json:"outputs"`
}

// writeRunReport emits the run summary as indented JSON.
func writeRunReport(w io.Writer, res *pipeline.Result, paths []string) error {
	rep := runReport{
		RunID:     res.RunID,
		GraphHash: res.GraphHash,
		Nodes:     res.Stats.NodeCount,
		Edges:     res.Stats.EdgeCount,
		Crossings: res.Stats.Crossings,
		Fallbacks: res.Stats.Fallbacks,
		ParseMS:   res.Stats.ParseTime.Milliseconds(),
		LayoutMS:  res.Stats.LayoutTime.Milliseconds(),
		RenderMS:  res.Stats.RenderTime.Milliseconds(),
		Cached:    res.CacheInfo.RenderHit,
		Outputs:   paths,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
