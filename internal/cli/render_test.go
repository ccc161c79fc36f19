package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwerkmann/stackflow/pkg/pipeline"
)

const orderStackDOT = `digraph {
	"aws_apigatewayv2_api.http" -> "aws_lambda_function.orders"
	"aws_lambda_function.orders" -> "aws_dynamodb_table.orders"
}`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty means unset", "", nil},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"pdf only", "pdf", []string{"pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		source string
		want   string
	}{
		{"output with format extension", "out.svg", "main.tf", "out"},
		{"output with other extension", "out.bak", "main.tf", "out.bak"},
		{"output without extension", "diagrams/prod", "main.tf", "diagrams/prod"},
		{"source file", "", "infra/main.tf", "infra/main"},
		{"source directory", "", "./infra/", "infra"},
		{"stdin", "", "-", "diagram"},
		{"empty source", "", "", "diagram"},
		{"url with format extension", "", "https://example.com/graphs/prod.dot", "prod"},
		{"bare url", "", "https://example.com/", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.source); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.source, got, tt.want)
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{
		"svg":  []byte("<svg/>"),
		"json": []byte("{}"),
	}

	t.Run("single format honors output verbatim", func(t *testing.T) {
		out := filepath.Join(dir, "exact.svg")
		paths, err := writeArtifacts(artifacts, []string{"svg"}, out, "main.tf")
		if err != nil {
			t.Fatalf("writeArtifacts: %v", err)
		}
		if len(paths) != 1 || paths[0] != out {
			t.Fatalf("paths = %v, want [%s]", paths, out)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read artifact: %v", err)
		}
		if string(data) != "<svg/>" {
			t.Errorf("artifact = %q, want %q", data, "<svg/>")
		}
	})

	t.Run("multiple formats share a base path", func(t *testing.T) {
		base := filepath.Join(dir, "multi")
		paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, base, "main.tf")
		if err != nil {
			t.Fatalf("writeArtifacts: %v", err)
		}
		want := []string{base + ".svg", base + ".json"}
		if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
			t.Fatalf("paths = %v, want %v", paths, want)
		}
		for _, p := range want {
			if _, err := os.Stat(p); err != nil {
				t.Errorf("artifact %s not written: %v", p, err)
			}
		}
	})

	t.Run("missing artifact is skipped", func(t *testing.T) {
		base := filepath.Join(dir, "partial")
		paths, err := writeArtifacts(artifacts, []string{"svg", "png"}, base, "main.tf")
		if err != nil {
			t.Fatalf("writeArtifacts: %v", err)
		}
		if len(paths) != 1 || paths[0] != base+".svg" {
			t.Errorf("paths = %v, want only the svg", paths)
		}
	})
}

func TestRenderCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "orders.dot")
	if err := os.WriteFile(src, []byte(orderStackDOT), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	out := filepath.Join(dir, "orders.svg")

	c := New(io.Discard, LogError)
	root := c.RootCommand()
	root.SetArgs([]string{"render", src, "-o", out, "--no-cache"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Errorf("output should start with an XML declaration, got %q", data[:min(len(data), 20)])
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("output should contain an <svg> element")
	}
}

func TestWriteRunReport(t *testing.T) {
	res := &pipeline.Result{
		RunID:     "run-1",
		GraphHash: "abc123",
		Stats: pipeline.Stats{
			NodeCount:  3,
			EdgeCount:  2,
			Crossings:  0,
			Fallbacks:  1,
			ParseTime:  12 * time.Millisecond,
			LayoutTime: 3 * time.Millisecond,
			RenderTime: 7 * time.Millisecond,
		},
		CacheInfo: pipeline.CacheInfo{RenderHit: true},
	}

	var buf bytes.Buffer
	if err := writeRunReport(&buf, res, []string{"orders.svg"}); err != nil {
		t.Fatalf("writeRunReport: %v", err)
	}

	var rep runReport
	if err := json.Unmarshal(buf.Bytes(), &rep); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if rep.RunID != "run-1" || rep.GraphHash != "abc123" {
		t.Errorf("identity fields = %q/%q, want run-1/abc123", rep.RunID, rep.GraphHash)
	}
	if rep.Nodes != 3 || rep.Edges != 2 || rep.Fallbacks != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", rep.Nodes, rep.Edges, rep.Fallbacks)
	}
	if rep.ParseMS != 12 || rep.LayoutMS != 3 || rep.RenderMS != 7 {
		t.Errorf("timings = %d/%d/%d, want 12/3/7", rep.ParseMS, rep.LayoutMS, rep.RenderMS)
	}
	if !rep.Cached {
		t.Error("Cached should carry the render hit")
	}
	if len(rep.Outputs) != 1 || rep.Outputs[0] != "orders.svg" {
		t.Errorf("Outputs = %v, want [orders.svg]", rep.Outputs)
	}
}
