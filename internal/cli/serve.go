package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fwerkmann/stackflow/internal/server"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
	"github.com/fwerkmann/stackflow/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		poll       time.Duration
		configPath string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve a live-updating diagram preview",
		Long: `Serve a live-updating diagram preview.

The source is re-checked at the poll interval and re-rendered when its
fingerprint changes; the page polls /status and reloads itself. With a
[store] section configured, stored diagrams are exposed under
/api/diagrams as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			return c.runServe(cmd.Context(), opts, addr, poll, configPath, noCache)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: :8080)")
	cmd.Flags().DurationVar(&poll, "poll", 0, "source re-check interval (default: 2s)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "diagram title (default: derived from the source)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: stackflow.toml next to the source)")

	return cmd
}

// runServe renders the source and serves it until interrupted.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string, poll time.Duration, configPath string, noCache bool) error {
	cfg, err := c.loadConfig(configPath, opts.Source, &opts)
	if err != nil {
		return err
	}

	// Stdin can only be read once, so buffer it for the poll loop.
	if opts.Source == "-" && len(opts.SourceData) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		opts.SourceData = data
	}

	if cfg != nil {
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if poll == 0 {
			poll = cfg.Server.PollInterval.Std()
		}
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	opts.Logger = c.Logger

	var st store.Store
	if cfg != nil && cfg.Store.URI != "" {
		ms, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer ms.Close(ctx)
		st = ms
	}

	spinner := newSpinnerWithContext(ctx, "Starting preview...")
	spinner.Start()
	srv, err := server.New(ctx, server.Config{Addr: addr, PollInterval: poll}, runner, opts, st, c.Logger)
	if err != nil {
		spinner.StopWithError("Preview failed to start")
		return err
	}
	spinner.Stop()

	printInfo("Preview at %s", StyleLink.Render(previewURL(addr)))
	printDetail("watching %s", opts.Source)
	printNewline()

	return srv.Run(ctx)
}

// previewURL turns a listen address into something a browser accepts.
func previewURL(addr string) string {
	if addr == "" {
		addr = server.DefaultAddr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
