package classify

import (
	"strings"

	"github.com/fwerkmann/stackflow/pkg/graph"
)

// Tier is the coarse placement guessed for types absent from the table.
type Tier string

// Known tiers.
const (
	TierPublic  Tier = "public"  // Ingress-facing: load balancers, gateways
	TierPrivate Tier = "private" // Data tier: databases, caches
	TierUnknown Tier = "unknown"
)

// Classifier assigns placements to nodes and derives the visible arrow set.
// Construct with [New]; the zero value has no tables.
type Classifier struct {
	table   Table
	skip    map[string]bool
	support map[string]bool
	entries map[graph.Flow][]string
	include EdgePredicate
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTable replaces the built-in placement table.
func WithTable(t Table) Option { return func(c *Classifier) { c.table = t } }

// WithSkipTypes replaces the set of types removed from the graph.
func WithSkipTypes(types ...string) Option {
	return func(c *Classifier) { c.skip = typeSet(types) }
}

// WithSupportTypes replaces the set of types excluded from flow arrows.
func WithSupportTypes(types ...string) Option {
	return func(c *Classifier) { c.support = typeSet(types) }
}

// WithEntryTypes replaces the per-flow entry type sets.
func WithEntryTypes(entries map[graph.Flow][]string) Option {
	return func(c *Classifier) { c.entries = entries }
}

// WithEdgePredicate installs a filter consulted for every candidate arrow,
// explicit or synthesized. Arrows the predicate rejects are not drawn.
// See [ExcludeDNS].
func WithEdgePredicate(p EdgePredicate) Option {
	return func(c *Classifier) { c.include = p }
}

// New returns a Classifier backed by the default AWS tables, with any
// overrides applied.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		table:   DefaultTable(),
		skip:    typeSet(DefaultSkipTypes()),
		support: typeSet(DefaultSupportTypes()),
		entries: DefaultEntryTypes(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func typeSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Known reports whether nodeType has a placement table entry.
func (c *Classifier) Known(nodeType string) bool {
	_, ok := c.table[nodeType]
	return ok
}

// Skip reports whether nodeType is diagram noise.
func (c *Classifier) Skip(nodeType string) bool { return c.skip[nodeType] }

// Support reports whether nodeType is a support service.
func (c *Classifier) Support(nodeType string) bool { return c.support[nodeType] }

// Entries returns a copy of the per-flow entry type sets, for handing to the
// layout stage.
func (c *Classifier) Entries() map[graph.Flow][]string {
	entries := make(map[graph.Flow][]string, len(c.entries))
	for flow, types := range c.entries {
		entries[flow] = append([]string(nil), types...)
	}
	return entries
}

// Assign returns the placement for a node type. It is total: types absent
// from the table are placed by [GuessTier] with [TrailingPosition] so they
// sort after every known stage of their row.
func (c *Classifier) Assign(nodeType, name string) Placement {
	if p, ok := c.table[nodeType]; ok {
		return p
	}
	return fallbackPlacement(GuessTier(nodeType, name))
}

func fallbackPlacement(t Tier) Placement {
	if t == TierPublic {
		return Placement{Flow: graph.FlowAPI, Position: TrailingPosition}
	}
	return Placement{Flow: graph.FlowCompute, Position: TrailingPosition}
}

func fallbackCategory(t Tier) graph.Category {
	switch t {
	case TierPublic:
		return graph.CategoryNetwork
	case TierPrivate:
		return graph.CategoryDatabase
	default:
		return graph.CategoryDefault
	}
}

// Tier hints, matched against the lowercased type and name.
var (
	publicHints  = []string{"_lb", "_alb", "_elb", "gateway", "ingress", "public"}
	privateHints = []string{"db", "rds", "cache", "database", "private"}
)

// GuessTier classifies a type absent from the placement table by inspecting
// the type and name for subnet-style hints: load balancers and gateways read
// as public ingress, databases and caches as the private data tier.
func GuessTier(nodeType, name string) Tier {
	s := strings.ToLower(nodeType + " " + name)
	for _, hint := range publicHints {
		if strings.Contains(s, hint) {
			return TierPublic
		}
	}
	for _, hint := range privateHints {
		if strings.Contains(s, hint) {
			return TierPrivate
		}
	}
	return TierUnknown
}

// Report summarizes what [Classifier.Apply] changed.
type Report struct {
	Classified   int      // Nodes that matched the placement table
	Skipped      []string // Node IDs removed as diagram noise
	Unclassified []string // Node IDs placed by the tier heuristic
}

// Apply classifies every node of g in place. Noise types are removed from
// the graph; known types receive their table placement and catalog category;
// the rest fall back to the tier heuristic and are reported, not dropped.
// Nodes are visited in ID order, so the report is deterministic.
func (c *Classifier) Apply(g *graph.Graph) Report {
	var report Report
	for _, n := range g.SortedNodes() {
		if c.skip[n.Type] {
			g.RemoveNode(n.ID)
			report.Skipped = append(report.Skipped, n.ID)
			continue
		}
		if p, ok := c.table[n.Type]; ok {
			n.Flow, n.Position = p.Flow, p.Position
			n.Category = Describe(n.Type).Category
			report.Classified++
			continue
		}
		tier := GuessTier(n.Type, tierHint(n))
		p := fallbackPlacement(tier)
		n.Flow, n.Position = p.Flow, p.Position
		n.Category = fallbackCategory(tier)
		report.Unclassified = append(report.Unclassified, n.ID)
	}
	return report
}

// tierHint widens the heuristic's view to any subnet reference the parser
// recorded, so a node placed in "aws_subnet.private_a" reads as private.
func tierHint(n *graph.Node) string {
	if s, ok := n.Meta["subnet"].(string); ok {
		return n.Name + " " + s
	}
	return n.Name
}
