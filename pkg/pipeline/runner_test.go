package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fwerkmann/stackflow/pkg/cache"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/graph"
)

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestRunnerExecute(t *testing.T) {
	runner := NewRunner(nil, nil, discardLogger())
	opts := Options{
		SourceData: []byte(apiStackDOT),
		Title:      "Orders",
		Formats:    []string{FormatSVG, FormatJSON, FormatDOT},
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if len(result.GraphHash) != 64 {
		t.Errorf("GraphHash = %q, want a sha256 hex digest", result.GraphHash)
	}
	if result.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", result.Stats.NodeCount)
	}
	if result.Stats.EdgeCount != 1 {
		t.Errorf("EdgeCount = %d, want 1", result.Stats.EdgeCount)
	}
	if result.Report.Classified != 3 {
		t.Errorf("Classified = %d, want 3", result.Report.Classified)
	}
	if result.CacheInfo.GraphHit || result.CacheInfo.DiagramHit || result.CacheInfo.RenderHit {
		t.Errorf("null cache should never hit: %+v", result.CacheInfo)
	}
	if len(result.Layout.Positions) != 3 {
		t.Errorf("Positions = %d, want 3", len(result.Layout.Positions))
	}
	if len(result.Plan.Intra) != 1 {
		t.Errorf("Intra connectors = %d, want 1", len(result.Plan.Intra))
	}
	if len(result.Plan.Actor) != 1 {
		t.Errorf("Actor connectors = %d, want 1", len(result.Plan.Actor))
	}

	svgData := result.Artifacts[FormatSVG]
	if !bytes.HasPrefix(svgData, []byte("<?xml")) {
		t.Error("SVG artifact should start with an XML declaration")
	}
	for _, want := range []string{">Orders</text>", ">API Gateway</text>", ">Lambda</text>", ">DynamoDB</text>", ">Users</text>"} {
		if !strings.Contains(string(svgData), want) {
			t.Errorf("SVG missing %s", want)
		}
	}

	var out struct {
		Width int    `json:"width"`
		Title string `json:"title"`
		Nodes []struct {
			ID      string `json:"id"`
			Service string `json:"service"`
		} `json:"nodes"`
		Arrows []struct {
			From string `json:"from"`
			To   string `json:"to"`
			Kind string `json:"kind"`
		} `json:"arrows"`
	}
	if err := json.Unmarshal(result.Artifacts[FormatJSON], &out); err != nil {
		t.Fatalf("JSON artifact does not parse: %v", err)
	}
	if out.Width <= 0 {
		t.Errorf("json width = %d, want > 0", out.Width)
	}
	if out.Title != "Orders" {
		t.Errorf("json title = %q, want Orders", out.Title)
	}
	if len(out.Nodes) != 3 {
		t.Errorf("json nodes = %d, want 3", len(out.Nodes))
	}
	if len(out.Arrows) != 1 || out.Arrows[0].Kind != "reference" {
		t.Errorf("json arrows = %+v, want one reference arrow", out.Arrows)
	}

	dotData := string(result.Artifacts[FormatDOT])
	if !strings.HasPrefix(dotData, "digraph G {") {
		t.Error("DOT artifact should start with digraph G {")
	}
	if !strings.Contains(dotData, `"aws_lambda_function.fn" -> "aws_dynamodb_table.tbl";`) {
		t.Error("DOT artifact missing the function→table edge")
	}
}

func TestRunnerExecuteCaches(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	runner := NewRunner(c, nil, discardLogger())
	defer runner.Close()

	opts := Options{
		SourceData: []byte(apiStackDOT),
		Formats:    []string{FormatSVG, FormatJSON},
	}
	ctx := context.Background()

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheInfo.GraphHit || first.CacheInfo.DiagramHit || first.CacheInfo.RenderHit {
		t.Errorf("cold cache should miss every stage: %+v", first.CacheInfo)
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheInfo.GraphHit || !second.CacheInfo.DiagramHit || !second.CacheInfo.RenderHit {
		t.Errorf("warm cache should hit every stage: %+v", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached SVG differs from the rendered SVG")
	}
	if second.Report.Classified != 0 {
		t.Error("a cached graph skips classification, Report should be empty")
	}
	if second.Stats.NodeCount != first.Stats.NodeCount {
		t.Errorf("cached NodeCount = %d, want %d", second.Stats.NodeCount, first.Stats.NodeCount)
	}

	// Refresh recomputes every stage but still writes the results back.
	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute() error: %v", err)
	}
	if third.CacheInfo.GraphHit || third.CacheInfo.DiagramHit || third.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass every stage: %+v", third.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], third.Artifacts[FormatSVG]) {
		t.Error("refresh output should be deterministic")
	}

	opts.Refresh = false
	fourth, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("fourth Execute() error: %v", err)
	}
	if !fourth.CacheInfo.GraphHit || !fourth.CacheInfo.DiagramHit || !fourth.CacheInfo.RenderHit {
		t.Errorf("refresh should leave the cache warm: %+v", fourth.CacheInfo)
	}
}

func TestRunnerExecuteEmptyGraph(t *testing.T) {
	runner := NewRunner(nil, nil, discardLogger())
	opts := Options{
		SourceData: []byte(`digraph G {
  "[root] data.aws_caller_identity.me (expand)" -> "[root] var.region (expand)"
}
`),
	}

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if result.Stats.NodeCount != 0 {
		t.Errorf("NodeCount = %d, want 0", result.Stats.NodeCount)
	}
	// An empty graph still renders a minimal canvas.
	if len(result.Artifacts[FormatSVG]) == 0 {
		t.Error("empty graph should still produce an SVG")
	}
}

func TestComputeDiagram(t *testing.T) {
	g := graph.New(graph.Metadata{graph.MetaTitle: "Checkout"})
	nodes := []graph.Node{
		{ID: "aws_lambda_function.fn", Type: "aws_lambda_function", Name: "fn", Flow: graph.FlowCompute, Position: 1},
		{ID: "aws_dynamodb_table.tbl", Type: "aws_dynamodb_table", Name: "tbl", Flow: graph.FlowCompute, Position: 3},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode() error: %v", err)
		}
	}
	if err := g.AddEdge(graph.Edge{From: "aws_lambda_function.fn", To: "aws_dynamodb_table.tbl", Kind: graph.KindReference}); err != nil {
		t.Fatalf("AddEdge() error: %v", err)
	}

	l, plan := ComputeDiagram(context.Background(), g, Options{})

	if l.Title != "Checkout" {
		t.Errorf("Title = %q, want Checkout", l.Title)
	}
	if len(l.Positions) != 2 {
		t.Errorf("Positions = %d, want 2", len(l.Positions))
	}
	if l.Width <= 0 || l.Height <= 0 {
		t.Errorf("canvas = %dx%d, want positive", l.Width, l.Height)
	}
	if plan.ConnectorCount() != 1 {
		t.Fatalf("ConnectorCount() = %d, want 1", plan.ConnectorCount())
	}

	// Same-row neighbors connect with a straight horizontal line.
	path := plan.Intra[0].Path
	if len(path) != 2 {
		t.Fatalf("path = %v, want 2 points", path)
	}
	if path[0].Y != path[1].Y {
		t.Errorf("path should be horizontal: %v", path)
	}
}

func TestRenderArtifactsInvalidFormat(t *testing.T) {
	g := graph.New(nil)
	l, plan := ComputeDiagram(context.Background(), g, Options{})

	_, err := RenderArtifacts(context.Background(), g, l, plan, Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestSourceFingerprintData(t *testing.T) {
	a, err := SourceFingerprint(Options{SourceData: []byte("digraph G {}")})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}
	b, _ := SourceFingerprint(Options{SourceData: []byte("digraph G {}")})
	if a != b {
		t.Error("same bytes should fingerprint equally")
	}
	c, _ := SourceFingerprint(Options{SourceData: []byte("digraph H {}")})
	if a == c {
		t.Error("different bytes should fingerprint differently")
	}
}

func TestSourceFingerprintFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.tf")
	if err := os.WriteFile(path, []byte(`resource "aws_s3_bucket" "site" {}`), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := SourceFingerprint(Options{Source: path})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}

	if err := os.WriteFile(path, []byte(`resource "aws_s3_bucket" "assets" {}`), 0o644); err != nil {
		t.Fatal(err)
	}
	second, err := SourceFingerprint(Options{Source: path})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}
	if first == second {
		t.Error("fingerprint should change with file content")
	}
}

func TestSourceFingerprintDir(t *testing.T) {
	write := func(dir, name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Same .tf content written in different order, plus a non-.tf file that
	// must not affect the fingerprint.
	dirA := t.TempDir()
	write(dirA, "storage.tf", `resource "aws_s3_bucket" "site" {}`)
	write(dirA, "compute.tf", `resource "aws_lambda_function" "fn" {}`)
	write(dirA, "README.md", "docs")

	dirB := t.TempDir()
	write(dirB, "compute.tf", `resource "aws_lambda_function" "fn" {}`)
	write(dirB, "storage.tf", `resource "aws_s3_bucket" "site" {}`)

	fa, err := SourceFingerprint(Options{Source: dirA})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}
	fb, err := SourceFingerprint(Options{Source: dirB})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}
	if fa != fb {
		t.Error("directory fingerprint should depend only on .tf content")
	}
}

func TestSourceFingerprintURL(t *testing.T) {
	a, err := SourceFingerprint(Options{Source: "https://example.com/graph.dot"})
	if err != nil {
		t.Fatalf("SourceFingerprint() error: %v", err)
	}
	b, _ := SourceFingerprint(Options{Source: "https://example.com/graph.dot"})
	if a != b {
		t.Error("URL fingerprint should be stable")
	}
}

func TestSourceFingerprintErrors(t *testing.T) {
	if _, err := SourceFingerprint(Options{}); err == nil {
		t.Error("empty source should fail")
	}
	if _, err := SourceFingerprint(Options{Source: "-"}); err == nil {
		t.Error("unbuffered stdin should fail")
	}
	_, err := SourceFingerprint(Options{Source: filepath.Join(t.TempDir(), "missing.tf")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}
