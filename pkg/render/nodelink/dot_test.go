package nodelink

import (
	"strings"
	"testing"

	"github.com/fwerkmann/stackflow/pkg/graph"
)

func dotGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	nodes := []graph.Node{
		{ID: "fn", Type: "aws_lambda_function", Name: "orders", Flow: graph.FlowCompute, Position: 1, Category: graph.CategoryCompute},
		{ID: "tbl", Type: "aws_dynamodb_table", Name: "carts", Flow: graph.FlowCompute, Position: 3, Category: graph.CategoryDatabase},
		{ID: "cert", Type: "aws_acm_certificate", Name: "cert", Flow: graph.FlowSupport, Category: graph.CategorySecurity},
		{ID: "site", Type: "aws_s3_bucket", Name: "assets", Module: "web", Flow: graph.FlowCDN, Position: 3, Category: graph.CategoryStorage},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	edges := []graph.Edge{
		{From: "fn", To: "tbl", Kind: graph.KindReference},
		{From: "site", To: "fn", Kind: graph.KindCrossModule},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(dotGraph(t), Options{})

	wantContains := []string{
		"digraph G {",
		"rankdir=TB;",
		// Root resources at the top level, colored by category.
		`"fn" [label="orders\naws_lambda_function", fillcolor="#ED7100", fontcolor=white];`,
		`"tbl" [label="carts\naws_dynamodb_table", fillcolor="#C925D1", fontcolor=white];`,
		// The web module becomes a cluster.
		"subgraph cluster_0 {",
		`label="web";`,
		`"site" [label="assets\naws_s3_bucket", fillcolor="#7AA116", fontcolor=white];`,
		// Edge styles by kind.
		`"fn" -> "tbl";`,
		`"site" -> "fn" [style=dashed];`,
	}
	for _, want := range wantContains {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestToDOTSupportDashed(t *testing.T) {
	dot := ToDOT(dotGraph(t), Options{})

	if !strings.Contains(dot, `"cert" [label="cert\naws_acm_certificate", fillcolor="#DD344C", fontcolor=white, style="rounded,filled,dashed"];`) {
		t.Errorf("support resource not dashed:\n%s", dot)
	}
}

func TestToDOTDeterministic(t *testing.T) {
	first := ToDOT(dotGraph(t), Options{})
	second := ToDOT(dotGraph(t), Options{})
	if first != second {
		t.Error("identical graphs produced different DOT")
	}
}

func TestToDOTInferredDotted(t *testing.T) {
	g := graph.New(nil)
	for _, n := range []graph.Node{{ID: "a", Type: "aws_lambda_function"}, {ID: "b", Type: "aws_sqs_queue"}} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddEdge(graph.Edge{From: "a", To: "b", Kind: graph.KindInferred}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	dot := ToDOT(g, Options{})
	if !strings.Contains(dot, `"a" -> "b" [style=dotted];`) {
		t.Errorf("inferred edge not dotted:\n%s", dot)
	}
}

func TestNodeLabel(t *testing.T) {
	plain := graph.Node{ID: "fn", Type: "aws_lambda_function", Name: "orders"}
	if got := nodeLabel(&plain, false); got != "orders\naws_lambda_function" {
		t.Errorf("nodeLabel() = %q", got)
	}

	classified := graph.Node{
		ID: "fn", Type: "aws_lambda_function", Name: "orders",
		Flow: graph.FlowCompute, Position: 1,
		Meta: graph.Metadata{"region": "eu-west-1"},
	}
	got := nodeLabel(&classified, true)
	for _, want := range []string{"orders", "aws_lambda_function", "flow: compute/1", "region: eu-west-1"} {
		if !strings.Contains(got, want) {
			t.Errorf("detailed label missing %q: %q", want, got)
		}
	}

	// A label meta entry wins over the configuration name.
	labeled := graph.Node{ID: "b", Type: "aws_s3_bucket", Name: "site", Meta: graph.Metadata{"label": "cdn.example.com"}}
	if got := nodeLabel(&labeled, false); !strings.HasPrefix(got, "cdn.example.com\n") {
		t.Errorf("nodeLabel() = %q, want label meta first", got)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>` + "\n" +
		`<svg width="134pt" height="116pt" viewBox="0.00 0.00 134.00 116.00" xmlns="http://www.w3.org/2000/svg">` +
		`<g></g></svg>`)

	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 134.00 116.00" width="134" height="116">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
}

func TestNormalizeViewBoxPassthrough(t *testing.T) {
	in := []byte("<svg><g></g></svg>")
	if got := normalizeViewBox(in); string(got) != string(in) {
		t.Errorf("normalizeViewBox() altered SVG without viewBox: %s", got)
	}
}
