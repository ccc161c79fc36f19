package graphjson

import (
	"slices"
	"testing"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
)

const stateSample = `{
  "format_version": "1.0",
  "terraform_version": "1.7.0",
  "values": {
    "root_module": {
      "resources": [
        {"address": "aws_cloudfront_distribution.cdn", "mode": "managed", "type": "aws_cloudfront_distribution", "name": "cdn", "values": {"domain_name": "d123.cloudfront.net"}},
        {"address": "aws_s3_bucket.site", "mode": "managed", "type": "aws_s3_bucket", "name": "site", "values": {"bucket": "www.example.com"}},
        {"address": "aws_iam_role.exec", "mode": "managed", "type": "aws_iam_role", "name": "exec", "values": {"name": "exec-role"}}
      ],
      "child_modules": [
        {
          "address": "module.api",
          "resources": [
            {"address": "module.api.aws_lambda_function.handler", "type": "aws_lambda_function", "name": "handler", "values": {"function_name": "api-handler"}},
            {"address": "module.api.aws_dynamodb_table.items", "type": "aws_dynamodb_table", "name": "items", "values": {"name": "items-table"}}
          ]
        }
      ]
    }
  }
}`

func TestParseState(t *testing.T) {
	g, err := Parse([]byte(stateSample), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if g.NodeCount() != 5 {
		t.Errorf("NodeCount = %d, want 5: %v", g.NodeCount(), graph.NodeIDs(g.SortedNodes()))
	}

	handler, ok := g.Node("module.api.aws_lambda_function.handler")
	if !ok {
		t.Fatal("handler node missing")
	}
	if handler.Module != "api" {
		t.Errorf("handler module = %q, want api", handler.Module)
	}
	if got := handler.Meta["label"]; got != "api-handler" {
		t.Errorf("handler label = %v, want api-handler", got)
	}

	cdn, _ := g.Node("aws_cloudfront_distribution.cdn")
	if got := cdn.Meta["label"]; got != "d123.cloudfront.net" {
		t.Errorf("cdn label = %v, want the distribution domain", got)
	}

	// IAM noise survives parsing; classification removes it later.
	if _, ok := g.Node("aws_iam_role.exec"); !ok {
		t.Error("iam role dropped by the parser")
	}

	want := []graph.Edge{
		{From: "module.api.aws_lambda_function.handler", To: "module.api.aws_dynamodb_table.items", Kind: graph.KindInferred},
		{From: "module.api.aws_lambda_function.handler", To: "aws_s3_bucket.site", Kind: graph.KindInferred},
		{From: "aws_cloudfront_distribution.cdn", To: "aws_s3_bucket.site", Kind: graph.KindInferred},
	}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("inferred edges = %v, want %v", got, want)
	}
}

func TestParseStateDeterministic(t *testing.T) {
	first, err := Parse([]byte(stateSample), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse([]byte(stateSample), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !slices.Equal(graph.NodeIDs(first.SortedNodes()), graph.NodeIDs(second.SortedNodes())) {
		t.Error("node sets differ between runs")
	}
	if !slices.Equal(first.Edges(), second.Edges()) {
		t.Error("edge order differs between runs")
	}
}

func TestParsePlan(t *testing.T) {
	plan := `{
  "format_version": "1.2",
  "planned_values": {
    "root_module": {
      "resources": [
        {"address": "aws_lambda_function.fn", "type": "aws_lambda_function", "name": "fn", "values": {"function_name": "orders"}},
        {"address": "aws_dynamodb_table.tbl", "type": "aws_dynamodb_table", "name": "tbl", "values": {}}
      ]
    }
  }
}`
	g, err := Parse([]byte(plan), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Fatalf("NodeCount = %d, want 2", g.NodeCount())
	}
	want := []graph.Edge{{From: "aws_lambda_function.fn", To: "aws_dynamodb_table.tbl", Kind: graph.KindInferred}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestParseSimplified(t *testing.T) {
	simplified := `{
  "resources": [
    {"address": "aws_lambda_function.fn", "type": "aws_lambda_function", "name": "fn", "module": "", "label": "orders"},
    {"address": "aws_dynamodb_table.tbl", "type": "aws_dynamodb_table", "name": "tbl"},
    {"address": "aws_cloudfront_distribution.cdn", "type": "aws_cloudfront_distribution", "name": "cdn"},
    {"address": "aws_s3_bucket.site", "type": "aws_s3_bucket", "name": "site"}
  ],
  "dependencies": [
    {"from": "aws_lambda_function.fn", "to": "aws_dynamodb_table.tbl"},
    {"from": "aws_lambda_function.fn", "to": "aws_s3_bucket.ghost"}
  ],
  "modules": []
}`
	g, err := Parse([]byte(simplified), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("NodeCount = %d, want 4", g.NodeCount())
	}
	fn, _ := g.Node("aws_lambda_function.fn")
	if got := fn.Meta["label"]; got != "orders" {
		t.Errorf("fn label = %v, want orders", got)
	}

	// Explicit dependencies pass through untouched: the dangling target is
	// dropped and no pattern inference runs, so cdn -> site is absent.
	want := []graph.Edge{{From: "aws_lambda_function.fn", To: "aws_dynamodb_table.tbl", Kind: graph.KindReference}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestParseNativeDocument(t *testing.T) {
	doc := `{
  "title": "Production",
  "nodes": [
    {"id": "aws_lambda_function.fn", "type": "aws_lambda_function", "name": "fn"},
    {"id": "aws_dynamodb_table.tbl", "type": "aws_dynamodb_table", "name": "tbl"}
  ],
  "edges": [
    {"from": "aws_lambda_function.fn", "to": "aws_dynamodb_table.tbl"},
    {"from": "aws_lambda_function.fn", "to": "aws_dynamodb_table.tbl"},
    {"from": "aws_lambda_function.fn", "to": "missing"}
  ]
}`
	g, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1 after sanitizing duplicates and dangling edges", g.EdgeCount())
	}
	if got := g.Meta()[graph.MetaTitle]; got != "Production" {
		t.Errorf("title = %v, want Production", got)
	}
}

func TestParsePipelineDocument(t *testing.T) {
	doc := `{
  "version": 1,
  "graph": {
    "nodes": [
      {"id": "aws_lambda_function.orders", "type": "aws_lambda_function", "name": "orders", "flow": "compute", "position": 1},
      {"id": "aws_dynamodb_table.orders", "type": "aws_dynamodb_table", "name": "orders", "flow": "compute", "position": 3}
    ],
    "edges": [
      {"from": "aws_lambda_function.orders", "to": "aws_dynamodb_table.orders", "kind": "reference"}
    ]
  },
  "layout": {"positions": {}, "actor": {"x": 0, "y": 0, "w": 0, "h": 0}, "width": 640, "height": 480, "header_height": 32}
}`
	g, err := Parse([]byte(doc), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("got %d nodes, %d edges, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}
	if !g.HasEdge("aws_lambda_function.orders", "aws_dynamodb_table.orders") {
		t.Error("reference edge missing after re-import")
	}
}

func TestParsePipelineDocumentVersionGate(t *testing.T) {
	doc := `{"version": 99, "graph": {"nodes": [], "edges": []}}`
	if _, err := Parse([]byte(doc), Options{}); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Parse = %v, want %s", err, errors.ErrCodeUnsupported)
	}
}

func TestParseEmptyState(t *testing.T) {
	g, err := Parse([]byte(`{"values": {}}`), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("got %d nodes, %d edges, want empty graph", g.NodeCount(), g.EdgeCount())
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NotJSON", "not json {"},
		{"UnrecognizedShape", `{"foo": 1}`},
		{"TopLevelArray", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input), Options{})
			if err == nil {
				t.Fatal("Parse accepted malformed input")
			}
			if !errors.Is(err, errors.ErrCodeMalformedInput) {
				t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeMalformedInput)
			}
		})
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"module.api", "api"},
		{"module.app.module.db", "app_db"},
		{"", ""},
		{"not.a.module", ""},
	}
	for _, tt := range tests {
		if got := moduleName(tt.addr); got != tt.want {
			t.Errorf("moduleName(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestStateLabel(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"FunctionNameFirst", map[string]any{"function_name": "orders", "name": "fn"}, "orders"},
		{"NameBeforeBucket", map[string]any{"bucket": "assets", "name": "tbl"}, "tbl"},
		{"DomainLast", map[string]any{"domain_name": "d1.cloudfront.net"}, "d1.cloudfront.net"},
		{"NonStringIgnored", map[string]any{"name": 42}, ""},
		{"Empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stateLabel(tt.values); got != tt.want {
				t.Errorf("stateLabel = %q, want %q", got, tt.want)
			}
		})
	}
}
