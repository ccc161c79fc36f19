// Package cache provides content-addressed caching for pipeline stages.
//
// Every stage result is keyed by a hash of its inputs: a parsed graph by the
// source bytes, a diagram by the graph and geometry configuration, a
// rendered artifact by the diagram. Identical inputs therefore always hit,
// and a changed input can never serve a stale entry; the TTLs below exist
// only to bound disk usage.
//
// Two backends implement [Cache]: a file cache for CLI runs and a Redis
// cache for the preview server, plus a null cache for tests and --no-cache.
package cache

import (
	"context"
	"time"
)

// TTLs per stage. All keys are content-addressed, so these bound disk and
// memory rather than freshness.
const (
	// TTLGraph applies to parsed graphs. Inputs mutate often during
	// terraform development, so old graphs age out quickly.
	TTLGraph = 24 * time.Hour

	// TTLDiagram applies to computed layouts with routed edges.
	TTLDiagram = 24 * time.Hour

	// TTLArtifact applies to rendered outputs, the most expensive stage.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the minimal byte-oriented cache the pipeline runs against.
type Cache interface {
	// Get retrieves a value. The second return distinguishes a miss from
	// an empty value.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of 0 stores forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// GraphKeyOpts distinguishes graphs parsed from the same bytes under
// different parse and classification settings.
type GraphKeyOpts struct {
	Format string `json:"format"`           // resolved input format
	Edges  string `json:"edges"`            // edge policy fingerprint, e.g. "default" or "dns"
	Policy string `json:"policy,omitempty"` // hash of the resolved classification tables
}

// DiagramKeyOpts distinguishes diagrams computed from the same graph under
// different geometry.
type DiagramKeyOpts struct {
	ConfigHash string `json:"config_hash"` // hash of the layout and routing configuration
	Title      string `json:"title"`
}

// ArtifactKeyOpts distinguishes rendered outputs of the same diagram.
// Every option that changes rendered bytes must appear here, or a cached
// artifact could be served for a run that asked for different output.
type ArtifactKeyOpts struct {
	Format          string  `json:"format"`          // svg, dot, json, png, pdf
	Style           string  `json:"style,omitempty"` // renderer variant, "" = default
	HideActor       bool    `json:"hide_actor,omitempty"`
	HideCrossModule bool    `json:"hide_cross_module,omitempty"`
	Footer          string  `json:"footer,omitempty"`
	Scale           float64 `json:"scale,omitempty"` // raster scale factor
	Detailed        bool    `json:"detailed,omitempty"`
}

// Keyer derives cache keys for the three cacheable pipeline stages.
// Implementations must be deterministic: the same inputs always produce the
// same key.
type Keyer interface {
	// GraphKey keys a parsed graph by the hash of its source bytes.
	GraphKey(sourceHash string, opts GraphKeyOpts) string

	// DiagramKey keys a computed diagram by the hash of its graph document.
	DiagramKey(graphHash string, opts DiagramKeyOpts) string

	// ArtifactKey keys a rendered artifact by the hash of its diagram
	// document.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key derivation: a stage prefix plus a SHA-256
// over the input hash and the options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard Keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for parsed graph caching.
func (k *DefaultKeyer) GraphKey(sourceHash string, opts GraphKeyOpts) string {
	return hashKey("graph", sourceHash, opts)
}

// DiagramKey generates a key for diagram caching.
func (k *DefaultKeyer) DiagramKey(graphHash string, opts DiagramKeyOpts) string {
	return hashKey("diagram", graphHash, opts)
}

// ArtifactKey generates a key for rendered artifact caching.
func (k *DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
