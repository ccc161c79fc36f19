package graph

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// RootModule is the grouping name for resources declared outside any module.
const RootModule = "_root"

// Flow identifies the request path a resource participates in. Each flow maps
// to one horizontal row inside a module box, stacked in the order returned by
// [Flows].
type Flow string

// Known flows, from the edge of the network inward.
const (
	FlowCDN     Flow = "cdn"     // DNS zones, WAFs, CDN distributions, static assets
	FlowAPI     Flow = "api"     // API gateways and load balancers
	FlowCompute Flow = "compute" // Functions, containers, queues, data stores
	FlowSupport Flow = "support" // Certificates, user pools
)

// Flows returns all flows in display order (top to bottom within a module).
func Flows() []Flow {
	return []Flow{FlowCDN, FlowAPI, FlowCompute, FlowSupport}
}

// Valid reports whether f is one of the known flows.
func (f Flow) Valid() bool {
	switch f {
	case FlowCDN, FlowAPI, FlowCompute, FlowSupport:
		return true
	}
	return false
}

// Rank returns the display rank of f, the index in [Flows]. Unknown flows
// rank after all known ones.
func (f Flow) Rank() int {
	for i, known := range Flows() {
		if f == known {
			return i
		}
	}
	return len(Flows())
}

// Category buckets resource types for icon and color selection. The renderer
// maps each category to one accent color.
type Category string

// Known categories.
const (
	CategoryCompute     Category = "compute"
	CategoryDatabase    Category = "database"
	CategoryStorage     Category = "storage"
	CategoryNetwork     Category = "network"
	CategorySecurity    Category = "security"
	CategoryIntegration Category = "integration"
	CategoryDefault     Category = "default"
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// It is commonly used to carry provider attributes (region, ARN) through the
// pipeline. Metadata maps are never nil after a node is added to a Graph.
type Metadata map[string]any

// =============================================================================
// Node - Typed Resource
// =============================================================================

// Node represents a resource in the infrastructure graph.
//
// ID is the unique identifier edges refer to; for DOT input it is the raw
// vertex string, for other formats it equals Address. Flow, Position, and
// Category are assigned during classification and are zero until then.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Address  string   `json:"address,omitempty" bson:"address,omitempty"` // Cleaned resource address (e.g., "module.web.aws_s3_bucket.site")
	Type     string   `json:"type" bson:"type"`                           // Resource type (e.g., "aws_lambda_function")
	Name     string   `json:"name,omitempty" bson:"name,omitempty"`       // Display name (defaults to ID)
	Module   string   `json:"module,omitempty" bson:"module,omitempty"`   // Module grouping ("" = root)
	Flow     Flow     `json:"flow,omitempty" bson:"flow,omitempty"`       // Request-path row assignment
	Position int      `json:"position,omitempty" bson:"position,omitempty"`
	Category Category `json:"category,omitempty" bson:"category,omitempty"`
	Meta     Metadata `json:"meta,omitempty" bson:"meta,omitempty"`
}

// EffectiveModule returns the module name, or [RootModule] for resources
// declared outside any module. Grouping indices always use this value.
func (n Node) EffectiveModule() string {
	if n.Module == "" {
		return RootModule
	}
	return n.Module
}

// DisplayName returns the label recorded by the parser if present, then the
// name, then the ID. State parsers store the human-facing value (a bucket or
// domain name) under the "label" metadata key while Name keeps the
// configuration identifier used for sorting.
func (n Node) DisplayName() string {
	if s, ok := n.Meta["label"].(string); ok && s != "" {
		return s
	}
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// =============================================================================
// Edge - Directed Dependency
// =============================================================================

// EdgeKind records how an edge entered the graph. Kinds are informational:
// they select rendering style (solid, dashed, curved) but never participate
// in edge identity.
type EdgeKind string

// Edge kinds.
const (
	KindReference   EdgeKind = "reference"    // Declared in the input (DOT edge, dependency entry, rule)
	KindInferred    EdgeKind = "inferred"     // Synthesized from type patterns or row adjacency
	KindCrossModule EdgeKind = "cross-module" // Call between modules, drawn as a curved connector
	KindActor       EdgeKind = "actor"        // Actor figure to entry point
)

// Edge represents a directed edge in the infrastructure graph.
// Identity is the (From, To) pair; use [Edge.Key] when deduplicating or
// keying waypoint maps so that the informational Kind is ignored.
type Edge struct {
	From string   `json:"from" bson:"from"`
	To   string   `json:"to" bson:"to"`
	Kind EdgeKind `json:"kind,omitempty" bson:"kind,omitempty"`
}

// EdgeKey is the comparable identity of an edge, the (From, To) pair
// without the kind tag. The router keys waypoint polylines by EdgeKey.
type EdgeKey struct {
	From string
	To   string
}

// Key returns the edge's comparable identity.
func (e Edge) Key() EdgeKey { return EdgeKey{From: e.From, To: e.To} }

// Reversed returns the edge with its endpoints swapped. The kind carries
// over unchanged.
func (e Edge) Reversed() Edge {
	return Edge{From: e.To, To: e.From, Kind: e.Kind}
}
