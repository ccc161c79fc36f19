// Package cli implements the stackflow command-line interface.
//
// The CLI wraps the diagram pipeline: render produces artifacts, graph and
// layout export intermediate documents, serve starts the live preview, cache
// and debug cover maintenance and inspection. Commands are built with cobra
// and share one charmbracelet logger; per-project defaults come from an
// optional stackflow.toml discovered next to the source.
//
// # Commands
//
//   - render: run the full pipeline and write SVG/PNG/PDF/JSON/DOT artifacts
//   - graph: export the classified graph document, or push/pull named
//     diagrams against the configured store
//   - layout: export the graph document with computed geometry attached
//   - serve: live preview server that re-renders when the source changes
//   - cache: manage the pipeline cache
//   - debug: inspect pipeline internals (routing grid occupancy)
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// (-q) to silence everything but errors. Loggers travel through
// context.Context so helpers can log without extra plumbing.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/pkg/buildinfo"
	"github.com/fwerkmann/stackflow/pkg/cache"
	"github.com/fwerkmann/stackflow/pkg/config"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "stackflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI instance with a logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetQuiet silences decorative terminal output. Errors still print.
func (c *CLI) SetQuiet(q bool) {
	setQuiet(q)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "stackflow",
		Short: "Stackflow renders infrastructure dependency graphs as architecture diagrams",
		Long: `Stackflow turns Terraform sources, "terraform graph" output, and exported
graph documents into layered architecture diagrams: modules become
containers, resources become categorized boxes arranged by flow, and
dependencies become orthogonally routed arrows.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// =============================================================================
// Config & Runner Plumbing
// =============================================================================

// loadConfig resolves the project config for a source and layers it under
// opts, so flag values win over file values.
func (c *CLI) loadConfig(explicit, source string, opts *pipeline.Options) (*config.Config, error) {
	cfg, path, err := config.Discover(explicit, source)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		c.Logger.Debug("loaded config", "path", path)
		cfg.Apply(opts)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	cch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cch, nil, c.Logger), nil
}

// newCache picks the cache backend: --no-cache and backend "none" disable
// caching, "redis" shares one cache between instances, and the default is a
// file cache in the XDG cache directory.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	var ccfg config.Cache
	if cfg != nil {
		ccfg = cfg.Cache
	}
	switch ccfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCacheURL(ctx, ccfg.RedisURL, appName+":")
	default:
		dir, err := resolveCacheDir(cfg)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// resolveCacheDir returns the configured cache directory, falling back to
// the XDG location.
func resolveCacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/stackflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Output Helpers
// =============================================================================

// parseFormats splits the comma-separated --format value. Empty stays nil so
// the config file can fill it.
func parseFormats(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, with "" meaning stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
