// Package pipeline provides the core diagram pipeline for Stackflow.
//
// This package implements the complete parse → classify → layout → route →
// render pipeline that can be used by CLI and server components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three cacheable stages:
//
//  1. Graph: load the input and classify it into the visible graph
//  2. Diagram: compute node geometry and route every connector
//  3. Render: generate output in the requested formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
// All stage outputs are content-addressed: the graph by a fingerprint of the
// source, the diagram by the graph bytes and geometry configuration, each
// artifact by the diagram bytes and render options.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "./infra",
//	    Title:   "Orders Stack",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Parse and classify only
//	g, report, err := runner.Parse(ctx, opts)
//
//	// Diagram with an existing graph
//	l, plan, err := runner.Diagram(ctx, g, opts)
//
//	// Render with existing geometry
//	artifacts, err := runner.Render(ctx, g, l, plan, opts)
package pipeline

import (
	"encoding/json"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fwerkmann/stackflow/pkg/cache"
	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/httputil"
	"github.com/fwerkmann/stackflow/pkg/layout"
	"github.com/fwerkmann/stackflow/pkg/parse"
	"github.com/fwerkmann/stackflow/pkg/route"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// View constants for the two renderings of the same graph.
const (
	// ViewDiagram is the styled architecture diagram: module containers,
	// category-colored boxes, routed flow arrows.
	ViewDiagram = "diagram"

	// ViewNodelink is the raw dependency shape rendered through Graphviz.
	ViewNodelink = "nodelink"
)

// ValidViews is the set of supported views.
var ValidViews = map[string]bool{
	ViewDiagram:  true,
	ViewNodelink: true,
}

// DefaultView is the view used when none is requested.
const DefaultView = ViewDiagram

// DefaultScale is the raster scale factor for PNG output.
const DefaultScale = 2.0

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Input options
	Source     string       `json:"source,omitempty"`      // file, directory, URL, or "-" for stdin
	SourceData []byte       `json:"source_data,omitempty"` // inline input, overrides reading Source
	Format     parse.Format `json:"format,omitempty"`      // auto-detected when empty
	Title      string       `json:"title,omitempty"`
	Refresh    bool         `json:"refresh,omitempty"` // recompute every stage, ignore cached entries

	// Classification options. Nil slices mean the package defaults; non-nil
	// values replace them (merging is the config layer's job).
	IncludeResolutionEdges bool     `json:"dns_edges,omitempty"` // keep arrows out of DNS zones
	SkipTypes              []string `json:"skip_types,omitempty"`
	SupportTypes           []string `json:"support_types,omitempty"`

	// Geometry options. Zero fields fall back to package defaults.
	Layout layout.Config `json:"layout,omitempty"`
	Route  route.Config  `json:"route,omitempty"`

	// Render options
	View            string   `json:"view,omitempty"`
	Formats         []string `json:"formats,omitempty"`
	HideActor       bool     `json:"hide_actor,omitempty"`
	HideCrossModule bool     `json:"hide_cross_module,omitempty"`
	Footer          string   `json:"footer,omitempty"`
	Scale           float64  `json:"scale,omitempty"`    // PNG scale factor
	Detailed        bool     `json:"detailed,omitempty"` // verbose nodelink labels

	// Runtime options (not serialized)
	Logger   *log.Logger                  `json:"-"`
	Table    classify.Table               `json:"-"` // classification overrides, nil = defaults
	Patterns []classify.DependencyPattern `json:"-"` // inference overrides, nil = defaults
	Fetcher  *httputil.Fetcher            `json:"-"` // for http(s) sources
	Stdin    io.Reader                    `json:"-"` // substitutes os.Stdin for "-" sources

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution, for log correlation.
	RunID string

	// Graph is the classified visible graph: placed nodes plus the derived
	// drawable edges.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph document.
	GraphHash string

	// Report summarizes classification; empty when the graph stage was
	// served from cache.
	Report Report

	// Layout is the computed geometry.
	Layout *layout.Layout

	// Plan holds every routed connector.
	Plan *route.Plan

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Report summarizes what the graph stage did to the input.
type Report struct {
	Classified   int      // Nodes that matched the placement table
	Skipped      []string // Node IDs removed as diagram noise
	Unclassified []string // Node IDs placed by the tier heuristic
	CyclesBroken int      // Dependency edges dropped to break cycles
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount int // Visible nodes after classification
	EdgeCount int // Drawable edges after derivation
	Crossings int // Edge crossings in the computed row orders
	Fallbacks int // Connectors routed through the midpoint fallback

	ParseTime  time.Duration
	LayoutTime time.Duration // Covers geometry and routing
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit   bool // Whether the classified graph came from cache
	DiagramHit bool // Whether layout and routes came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateView checks that a view is valid.
func ValidateView(view string) error {
	if !ValidViews[view] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid view: %q (must be one of: diagram, nodelink)", view)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	o.SetDiagramDefaults()
	o.SetRenderDefaults()
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for the graph stage.
func (o *Options) ValidateForParse() error {
	if o.Source == "" && len(o.SourceData) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "source is required")
	}
	if o.Format == "" {
		o.Format = parse.FormatAuto
	}
	if !o.Format.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown input format %q", o.Format)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetDiagramDefaults sets default values for geometry computation. The entry
// types default to the classifier's, so layout entry markers stay consistent
// with classification overrides.
func (o *Options) SetDiagramDefaults() {
	if o.Layout.EntryTypes == nil {
		o.Layout.EntryTypes = o.classifier().Entries()
	}
	if o.Route == (route.Config{}) {
		o.Route = route.ConfigFor(o.Layout)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForDiagram validates and sets defaults for geometry computation.
func (o *Options) ValidateForDiagram() error {
	o.SetDiagramDefaults()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.View == "" {
		o.View = DefaultView
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetDiagramDefaults()
	o.SetRenderDefaults()
	if err := ValidateView(o.View); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// IsDiagram returns true if this run renders the styled diagram view.
func (o *Options) IsDiagram() bool {
	return o.View == "" || o.View == ViewDiagram
}

// IsNodelink returns true if this run renders the nodelink view.
func (o *Options) IsNodelink() bool {
	return o.View == ViewNodelink
}

// classifier builds the classifier this run uses. Classification overrides
// and the DNS-edge policy both live here, so the graph stage and the layout
// entry markers always agree. Entry types flow both ways: an override set on
// Layout.EntryTypes reaches the classifier, and SetDiagramDefaults fills an
// unset Layout.EntryTypes from the classifier's defaults.
func (o *Options) classifier() *classify.Classifier {
	var copts []classify.Option
	if o.Table != nil {
		copts = append(copts, classify.WithTable(o.Table))
	}
	if o.Layout.EntryTypes != nil {
		copts = append(copts, classify.WithEntryTypes(o.Layout.EntryTypes))
	}
	if o.SkipTypes != nil {
		copts = append(copts, classify.WithSkipTypes(o.SkipTypes...))
	}
	if o.SupportTypes != nil {
		copts = append(copts, classify.WithSupportTypes(o.SupportTypes...))
	}
	if !o.IncludeResolutionEdges {
		copts = append(copts, classify.WithEdgePredicate(classify.ExcludeDNS))
	}
	return classify.New(copts...)
}

// edgesPolicy fingerprints the edge-derivation policy for cache keys.
func (o *Options) edgesPolicy() string {
	if o.IncludeResolutionEdges {
		return "dns"
	}
	return "default"
}

// GraphKeyOpts returns cache key options for the graph stage.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		Format: string(o.Format),
		Edges:  o.edgesPolicy(),
		Policy: o.policyHash(),
	}
}

// policyHash fingerprints the classification policy for graph cache keys.
// Resolved values are hashed, not the raw overrides, so an override equal to
// the defaults and the defaults themselves produce the same key.
func (o *Options) policyHash() string {
	table := o.Table
	if table == nil {
		table = classify.DefaultTable()
	}
	patterns := o.Patterns
	if patterns == nil {
		patterns = classify.DefaultDependencyPatterns()
	}
	skip := slices.Sorted(slices.Values(orDefault(o.SkipTypes, classify.DefaultSkipTypes)))
	support := slices.Sorted(slices.Values(orDefault(o.SupportTypes, classify.DefaultSupportTypes)))

	data, _ := json.Marshal(struct {
		Table    classify.Table               `json:"table"`
		Entries  map[graph.Flow][]string      `json:"entries"`
		Skip     []string                     `json:"skip"`
		Support  []string                     `json:"support"`
		Patterns []classify.DependencyPattern `json:"patterns"`
	}{table, o.classifier().Entries(), skip, support, patterns})
	return cache.Hash(data)
}

func orDefault(v []string, def func() []string) []string {
	if v == nil {
		return def()
	}
	return v
}

// DiagramKeyOpts returns cache key options for the diagram stage.
func (o *Options) DiagramKeyOpts() cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{
		ConfigHash: o.configHash(),
		Title:      o.Title,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered artifact.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:          format,
		Style:           o.View,
		HideActor:       o.HideActor,
		HideCrossModule: o.HideCrossModule,
		Footer:          o.Footer,
		Scale:           o.Scale,
		Detailed:        o.Detailed,
	}
}

// configHash fingerprints everything that changes computed geometry: the
// spacing configs plus the entry-type set, which layout.Config itself keeps
// out of its JSON form.
func (o *Options) configHash() string {
	data, _ := json.Marshal(struct {
		Layout  layout.Config           `json:"layout"`
		Route   route.Config            `json:"route"`
		Entries map[graph.Flow][]string `json:"entries,omitempty"`
	}{o.Layout, o.Route, o.Layout.EntryTypes})
	return cache.Hash(data)
}
