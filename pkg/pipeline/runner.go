package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fwerkmann/stackflow/pkg/cache"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/io"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/observability"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → classify → layout → route → render
// pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: graph
	parseStart := time.Now()
	g, report, graphHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Report = report
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.GraphHit = graphHit

	if graphData, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(graphData)
	}

	if g.NodeCount() == 0 {
		r.Logger.Warn("no visible resources after classification",
			"run", result.RunID, "source", opts.Source)
	}
	r.Logger.Info("parsed input",
		"run", result.RunID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", graphHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: diagram
	diagramStart := time.Now()
	l, plan, diagramHit, err := r.DiagramWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = l
	result.Plan = plan
	result.Stats.LayoutTime = time.Since(diagramStart)
	result.Stats.Crossings = l.Crossings
	result.Stats.Fallbacks = plan.Fallbacks
	result.CacheInfo.DiagramHit = diagramHit

	r.Logger.Info("computed diagram",
		"run", result.RunID,
		"modules", len(l.Modules),
		"connectors", plan.ConnectorCount(),
		"crossings", l.Crossings,
		"fallbacks", plan.Fallbacks,
		"cached", diagramHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, l, plan, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"run", result.RunID,
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo runs the graph stage with caching and returns cache hit
// info. A cached hit returns an empty Report, since nothing was classified.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, Report, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, Report{}, false, err
	}
	r.applyLogger(&opts)
	if err := opts.resolveStdin(); err != nil {
		return nil, Report{}, false, err
	}

	sourceHash, err := SourceFingerprint(opts)
	if err != nil {
		return nil, Report{}, false, err
	}
	key := r.Keyer.GraphKey(sourceHash, opts.GraphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if g, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, Report{}, true, nil
			}
			// Undecodable entries fall through to a fresh parse.
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	g, report, err := ParseGraph(ctx, opts)
	if err != nil {
		return nil, Report{}, false, err
	}

	if data, err := graph.MarshalGraph(g); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLGraph)
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}

	return g, report, false, nil
}

// Parse is a convenience wrapper that discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) (*graph.Graph, Report, error) {
	g, report, _, err := r.ParseWithCacheInfo(ctx, opts)
	return g, report, err
}

// DiagramWithCacheInfo runs the diagram stage with caching and returns cache
// hit info. The cache entry is a complete diagram document, so a hit skips
// both geometry and routing.
func (r *Runner) DiagramWithCacheInfo(ctx context.Context, g *graph.Graph, opts Options) (*layout.Layout, *route.Plan, bool, error) {
	if err := opts.ValidateForDiagram(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize graph for cache key")
	}
	key := r.Keyer.DiagramKey(cache.Hash(graphData), opts.DiagramKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, plan, err := decodeDiagram(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "diagram")
				return l, plan, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "diagram")
	}

	l, plan := ComputeDiagram(ctx, g, opts)

	if data, err := json.Marshal(io.New(g, l, plan)); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLDiagram)
		observability.Cache().OnCacheSet(ctx, "diagram", len(data))
	}

	return l, plan, false, nil
}

// Diagram is a convenience wrapper that discards the cache hit info.
func (r *Runner) Diagram(ctx context.Context, g *graph.Graph, opts Options) (*layout.Layout, *route.Plan, error) {
	l, plan, _, err := r.DiagramWithCacheInfo(ctx, g, opts)
	return l, plan, err
}

// RenderWithCacheInfo renders artifacts with caching and returns cache hit
// info. Rendering hits only when every requested format is cached; a partial
// hit re-renders everything, since the sinks share most of their work.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g *graph.Graph, l *layout.Layout, plan *route.Plan, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	doc, err := json.Marshal(io.New(g, l, plan))
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize diagram for cache key")
	}
	diagramHash := cache.Hash(doc)

	if !opts.Refresh {
		allCached := true
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := RenderArtifacts(ctx, g, l, plan, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, l *layout.Layout, plan *route.Plan, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, l, plan, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// decodeDiagram reads a cached diagram document back into its geometry
// sections. Entries missing either section are rejected so callers fall
// through to a fresh computation.
func decodeDiagram(data []byte) (*layout.Layout, *route.Plan, error) {
	var d io.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "decode cached diagram")
	}
	if d.Version != io.FormatVersion || !d.HasGeometry() {
		return nil, nil, errors.New(errors.ErrCodeUnsupported, "cached diagram version %d lacks geometry", d.Version)
	}
	return d.Layout, d.Routes, nil
}

// SourceFingerprint hashes the pipeline input for graph-stage cache keys:
// inline bytes directly, a file by its content, a directory by its .tf files
// in name order, and a remote source by its URL (remote content is unknown
// before fetching; the graph TTL bounds staleness there). The preview server
// polls this to detect edits between renders.
func SourceFingerprint(opts Options) (string, error) {
	if len(opts.SourceData) > 0 {
		return cache.Hash(opts.SourceData), nil
	}
	switch {
	case opts.Source == "":
		return "", errors.New(errors.ErrCodeInvalidInput, "source is required")
	case opts.Source == "-":
		return "", errors.New(errors.ErrCodeInvalidInput, "stdin must be buffered before fingerprinting")
	case strings.HasPrefix(opts.Source, "http://"), strings.HasPrefix(opts.Source, "https://"):
		return cache.Hash([]byte(opts.Source)), nil
	}

	info, err := os.Stat(opts.Source)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "stat input")
	}
	if info.IsDir() {
		return dirFingerprint(opts.Source)
	}
	data, err := os.ReadFile(opts.Source)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read input")
	}
	return cache.Hash(data), nil
}

// dirFingerprint hashes the same file set ParseDir reads, so the fingerprint
// changes exactly when the parsed input would.
func dirFingerprint(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read terraform directory")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tf") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", name)
		}
		buf.WriteString(name)
		buf.WriteByte(0)
		buf.Write(data)
		buf.WriteByte(0)
	}
	return cache.Hash(buf.Bytes()), nil
}
