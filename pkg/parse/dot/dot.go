// Package dot reads `terraform graph` DOT output into an infrastructure graph.
//
// Terraform's DOT dump lists one quoted edge per line between full resource
// addresses. The parser validates the document with Graphviz, then scans the
// edge statements directly: node attributes, subgraphs, and styling carry no
// architectural information and are ignored. Addresses that name providers,
// variables, data sources, or graph plumbing are dropped; everything else
// becomes a node, including resource types the classifier has never heard of.
package dot

import (
	"regexp"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
)

// edgeLineRE matches one quoted edge statement, e.g.
// "[root] aws_lambda_function.api (expand)" -> "[root] aws_dynamodb_table.items (expand)".
var edgeLineRE = regexp.MustCompile(`"([^"]+)"\s*->\s*"([^"]+)"`)

// expandSuffixRE strips the expansion marker terraform appends to node names.
var expandSuffixRE = regexp.MustCompile(`\s*\(expand\)\s*$`)

// Address substrings that mark graph plumbing rather than resources.
var skipMarkers = []string{"provider[", "[root] root", "provisioner", "var.", "local.", "data.", "output."}

// Parse reads terraform graph DOT output. Explicit edges carry
// [graph.KindReference]; both endpoints must survive address filtering for
// the edge to be kept. Returns an error with code
// [errors.ErrCodeMalformedInput] when the input is not valid DOT.
func Parse(data []byte) (*graph.Graph, error) {
	parsed, err := graphviz.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "not a DOT graph")
	}
	defer parsed.Close()

	out := graph.New(nil)
	ids := make(map[string]string) // raw DOT name -> node ID

	for _, line := range strings.Split(string(data), "\n") {
		m := edgeLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		for _, raw := range m[1:3] {
			if _, ok := ids[raw]; ok {
				continue
			}
			n, ok := parseAddress(raw)
			if !ok {
				continue
			}
			if _, exists := out.Node(n.ID); !exists {
				_ = out.AddNode(n)
			}
			ids[raw] = n.ID
		}

		from, okFrom := ids[m[1]]
		to, okTo := ids[m[2]]
		if okFrom && okTo {
			_ = out.AddEdge(graph.Edge{From: from, To: to, Kind: graph.KindReference})
		}
	}

	return out, nil
}

// parseAddress turns a raw DOT node name into a Node. It reports false for
// plumbing addresses and anything that does not read as type.name after the
// module path is peeled off.
func parseAddress(raw string) (graph.Node, bool) {
	for _, marker := range skipMarkers {
		if strings.Contains(raw, marker) {
			return graph.Node{}, false
		}
	}

	addr := strings.TrimSpace(strings.ReplaceAll(raw, "[root] ", ""))
	addr = expandSuffixRE.ReplaceAllString(addr, "")
	if addr == "" || strings.ContainsAny(addr, " \t(") {
		return graph.Node{}, false
	}

	var moduleParts []string
	parts := strings.Split(addr, ".")
	for len(parts) >= 2 && parts[0] == "module" {
		moduleParts = append(moduleParts, parts[1])
		parts = parts[2:]
	}
	if len(parts) < 2 {
		return graph.Node{}, false
	}

	return graph.Node{
		ID:      addr,
		Address: addr,
		Type:    parts[0],
		Name:    strings.Join(parts[1:], "."),
		Module:  strings.Join(moduleParts, "_"),
	}, true
}
