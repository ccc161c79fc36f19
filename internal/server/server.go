// Package server implements the HTTP preview behind `stackflow serve`.
//
// The server renders one diagram from a local source and serves it over
// HTTP, polling the source fingerprint so edits show up without restarting.
// When a diagram store is configured it also exposes push/pull endpoints,
// so a preview can be published under a name and fetched elsewhere.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/pipeline"
	"github.com/fwerkmann/stackflow/pkg/store"
)

// Defaults applied by New.
const (
	DefaultAddr         = ":8080"
	DefaultPollInterval = 2 * time.Second
)

// Config configures the preview server.
type Config struct {
	Addr         string        // listen address, defaults to DefaultAddr
	PollInterval time.Duration // source re-check interval, defaults to DefaultPollInterval
}

// Server serves one continuously re-rendered diagram over HTTP.
//
// All rendering goes through the shared pipeline Runner, so the server
// benefits from the same stage caches as the CLI: reverting a file serves
// the previous bytes instead of recomputing them.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	opts   pipeline.Options
	store  store.Store
	logger *log.Logger

	mu      sync.RWMutex
	current snapshot
}

// snapshot is the latest render, swapped as a unit under mu.
type snapshot struct {
	svg         []byte
	result      *pipeline.Result
	fingerprint string
	renderedAt  time.Time
	err         error
}

// New creates a preview server and performs the initial render. A failed
// initial render is not fatal: the server starts anyway and reports the
// error on /status until the source renders again.
//
// Sources that cannot be re-read (stdin) must be buffered into
// opts.SourceData by the caller before constructing the server. The store
// may be nil, which disables the /api/diagrams endpoints.
func New(ctx context.Context, cfg Config, runner *pipeline.Runner, opts pipeline.Options, st store.Store, logger *log.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "preview server needs a pipeline runner")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if logger == nil {
		logger = log.Default()
	}

	// The preview serves SVG only; other formats stay a CLI concern.
	opts.Formats = []string{pipeline.FormatSVG}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		opts:   opts,
		store:  st,
		logger: logger,
	}
	s.refresh(ctx)
	return s, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	go s.pollLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening",
			"addr", s.cfg.Addr,
			"source", s.opts.Source,
			"poll", s.cfg.PollInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "shut down preview server")
		}
		return nil
	case err := <-errCh:
		return errors.Wrap(errors.ErrCodeNetwork, err, "preview server failed")
	}
}

// pollLoop re-checks the source at the configured interval.
func (s *Server) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh re-renders when the source fingerprint moved. A failed render
// keeps the previous SVG on screen and records the error; the source is
// retried on every poll until it renders again, so transient failures on
// remote inputs recover without an edit.
func (s *Server) refresh(ctx context.Context) {
	fp, err := pipeline.SourceFingerprint(s.opts)
	if err != nil {
		s.setError("", err)
		return
	}

	s.mu.RLock()
	unchanged := fp == s.current.fingerprint && s.current.err == nil
	s.mu.RUnlock()
	if unchanged {
		return
	}

	result, err := s.runner.Execute(ctx, s.opts)
	if err != nil {
		s.logger.Error("preview render failed", "source", s.opts.Source, "err", err)
		s.setError(fp, err)
		return
	}

	s.mu.Lock()
	s.current = snapshot{
		svg:         result.Artifacts[pipeline.FormatSVG],
		result:      result,
		fingerprint: fp,
		renderedAt:  time.Now().UTC(),
	}
	s.mu.Unlock()

	s.logger.Info("preview updated",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"crossings", result.Stats.Crossings,
		"cached", result.CacheInfo.RenderHit)
}

// setError records a failed refresh, preserving the last good render.
func (s *Server) setError(fingerprint string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint != "" {
		s.current.fingerprint = fingerprint
	}
	s.current.err = err
}

// view returns a consistent copy of the current state.
func (s *Server) view() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
