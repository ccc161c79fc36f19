// Package graphjson reads terraform's JSON dumps and native graph documents.
//
// Four input shapes are recognized by their top-level keys:
//
//   - "values" or "planned_values": `terraform show -json` state or plan;
//     the module tree is walked and data-flow edges are inferred from the
//     call-pattern table, since state carries no dependency information.
//   - "resources": the simplified export format with explicit dependencies.
//   - "graph": a versioned diagram document written by the export commands;
//     only the graph section is read, geometry is recomputed downstream.
//   - "nodes": a bare graph document, sanitized and imported as-is.
package graphjson

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fwerkmann/stackflow/pkg/classify"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
	"github.com/fwerkmann/stackflow/pkg/graph/transform"
	"github.com/fwerkmann/stackflow/pkg/io"
)

// Options configures state parsing.
type Options struct {
	// Patterns drives data-flow inference for state dumps. Nil selects
	// [classify.DefaultDependencyPatterns].
	Patterns []classify.DependencyPattern
}

func (o Options) patterns() []classify.DependencyPattern {
	if o.Patterns != nil {
		return o.Patterns
	}
	return classify.DefaultDependencyPatterns()
}

type envelope struct {
	Values        *stateValues    `json:"values"`
	PlannedValues *stateValues    `json:"planned_values"`
	Resources     []stateResource `json:"resources"`
	Dependencies  []dependency    `json:"dependencies"`
	Graph         json.RawMessage `json:"graph"`
	Nodes         json.RawMessage `json:"nodes"`
}

type stateValues struct {
	RootModule stateModule `json:"root_module"`
}

type stateModule struct {
	Address      string          `json:"address"`
	Resources    []stateResource `json:"resources"`
	ChildModules []stateModule   `json:"child_modules"`
}

type stateResource struct {
	Address string         `json:"address"`
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Module  string         `json:"module"` // simplified format only
	Label   string         `json:"label"`  // simplified format only
	Values  map[string]any `json:"values"`
}

type dependency struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Parse reads one of the recognized JSON shapes into a graph. Returns an
// error with code [errors.ErrCodeMalformedInput] for anything else.
func Parse(data []byte, opts Options) (*graph.Graph, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "not a terraform JSON document")
	}

	switch {
	case env.Values != nil:
		return parseState(env.Values.RootModule, opts)
	case env.PlannedValues != nil:
		return parseState(env.PlannedValues.RootModule, opts)
	case env.Resources != nil:
		return parseSimplified(env), nil
	case env.Graph != nil:
		return parsePipelineDocument(data)
	case env.Nodes != nil:
		return parseDocument(data)
	default:
		return nil, errors.New(errors.ErrCodeMalformedInput, "unrecognized terraform JSON document")
	}
}

// parsePipelineDocument re-imports a document written by the export
// commands. The version gate lives in the document reader; any layout or
// routes sections are discarded since the pipeline recomputes geometry.
func parsePipelineDocument(data []byte) (*graph.Graph, error) {
	doc, err := io.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	transform.Sanitize(&doc.Graph)
	g, err := graph.ToGraph(doc.Graph)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid graph document")
	}
	return g, nil
}

func parseState(root stateModule, opts Options) (*graph.Graph, error) {
	g := graph.New(nil)
	walkModule(g, root, "")
	inferEdges(g, opts.patterns())
	return g, nil
}

func walkModule(g *graph.Graph, mod stateModule, path string) {
	for _, res := range mod.Resources {
		if res.Type == "" || res.Name == "" {
			continue
		}
		addNode(g, res, path, stateLabel(res.Values))
	}
	for _, child := range mod.ChildModules {
		walkModule(g, child, moduleName(child.Address))
	}
}

func addNode(g *graph.Graph, res stateResource, module, label string) {
	addr := res.Address
	if addr == "" {
		addr = res.Type + "." + res.Name
	}
	if _, ok := g.Node(addr); ok {
		return
	}
	n := graph.Node{
		ID:      addr,
		Address: addr,
		Type:    res.Type,
		Name:    res.Name,
		Module:  module,
	}
	if label != "" && label != res.Name {
		n.Meta = graph.Metadata{"label": label}
	}
	_ = g.AddNode(n)
}

// stateLabel picks the human-facing identifier terraform recorded for a
// resource, preferring the service-specific fields over the generic name.
func stateLabel(values map[string]any) string {
	for _, key := range []string{"function_name", "name", "bucket", "domain_name"} {
		if s, ok := values[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// moduleName flattens a child module address such as "module.app.module.db"
// into the grouping name "app_db".
func moduleName(addr string) string {
	parts := strings.Split(addr, ".")
	var names []string
	for len(parts) >= 2 && parts[0] == "module" {
		names = append(names, parts[1])
		parts = parts[2:]
	}
	return strings.Join(names, "_")
}

// inferEdges synthesizes data-flow arrows from the call-pattern table.
// Sources connect to targets of the paired type in their own module; a module
// source with no local target falls back to root-level targets. Inferred
// edges carry [graph.KindInferred].
func inferEdges(g *graph.Graph, patterns []classify.DependencyPattern) {
	type key struct{ module, nodeType string }
	groups := make(map[key][]*graph.Node)
	for _, n := range g.SortedNodes() {
		k := key{n.EffectiveModule(), n.Type}
		groups[k] = append(groups[k], n)
	}

	for _, p := range patterns {
		for _, mod := range g.ModuleNames() {
			srcs := groups[key{mod, p.FromType}]
			if len(srcs) == 0 {
				continue
			}
			tgts := groups[key{mod, p.ToType}]
			if len(tgts) == 0 && mod != graph.RootModule {
				tgts = groups[key{graph.RootModule, p.ToType}]
			}
			for _, src := range srcs {
				for _, tgt := range tgts {
					if src.ID == tgt.ID {
						continue
					}
					_ = g.AddEdge(graph.Edge{From: src.ID, To: tgt.ID, Kind: graph.KindInferred})
				}
			}
		}
	}
}

func parseSimplified(env envelope) *graph.Graph {
	g := graph.New(nil)
	for _, res := range env.Resources {
		if res.Type == "" || res.Name == "" {
			continue
		}
		addNode(g, res, res.Module, res.Label)
	}
	for _, d := range env.Dependencies {
		_ = g.AddEdge(graph.Edge{From: d.From, To: d.To, Kind: graph.KindReference})
	}
	return g
}

func parseDocument(data []byte) (*graph.Graph, error) {
	doc, err := graph.UnmarshalGraph(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid graph document")
	}
	transform.Sanitize(&doc)
	g, err := graph.ToGraph(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "invalid graph document")
	}
	return g, nil
}
