package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwerkmann/stackflow/pkg/config"
	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/io"
)

func TestGraphExportEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "orders.dot")
	if err := os.WriteFile(src, []byte(orderStackDOT), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	out := filepath.Join(dir, "orders.json")

	c := New(&bytes.Buffer{}, LogError)
	root := c.RootCommand()
	root.SetArgs([]string{"graph", src, "-o", out, "--no-cache"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err != nil {
		t.Fatalf("graph export: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var doc io.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if doc.Version != io.FormatVersion {
		t.Errorf("Version = %d, want %d", doc.Version, io.FormatVersion)
	}
	if doc.HasGeometry() {
		t.Error("graph export should not carry geometry")
	}

	g, err := doc.BuildGraph()
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	// The API → compute hop is an entry arrow, not a flow arrow, so only
	// the lambda → dynamodb reference survives derivation.
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestOpenStoreUnconfigured(t *testing.T) {
	if _, err := openStore(context.Background(), nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("openStore(nil) error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}

	cfg := &config.Config{}
	if _, err := openStore(context.Background(), cfg); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("openStore(no uri) error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidConfig)
	}
}

func TestWriteDocumentFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "doc.json")

	doc := io.Document{Version: io.FormatVersion}
	if err := writeDocument(doc, out); err != nil {
		t.Fatalf("writeDocument: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var got io.Document
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("document is not valid JSON: %v", err)
	}
	if got.Version != io.FormatVersion {
		t.Errorf("Version = %d, want %d", got.Version, io.FormatVersion)
	}
	if !bytes.Contains(data, []byte("\n  ")) {
		t.Error("document should be indented")
	}
}
