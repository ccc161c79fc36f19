package store

import (
	"context"
	"testing"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/io"
)

func testDiagram(name string) *Diagram {
	return &Diagram{
		Name:      name,
		Title:     "Checkout",
		GraphHash: "deadbeef",
		Document:  io.Document{Version: io.FormatVersion},
		SVG:       []byte("<svg/>"),
		NodeCount: 3,
		EdgeCount: 2,
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	d := testDiagram("checkout")
	if err := st.Save(ctx, d); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if d.ID != "" {
		t.Errorf("Save() modified caller's diagram: ID = %q", d.ID)
	}

	got, err := st.Get(ctx, "checkout")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID == "" {
		t.Error("Get() ID is empty, want assigned")
	}
	if got.Name != "checkout" || got.Title != "Checkout" || got.GraphHash != "deadbeef" {
		t.Errorf("Get() = %+v, metadata mismatch", got)
	}
	if got.Document.Version != io.FormatVersion {
		t.Errorf("Get() Document.Version = %d, want %d", got.Document.Version, io.FormatVersion)
	}
	if string(got.SVG) != "<svg/>" {
		t.Errorf("Get() SVG = %q, want %q", got.SVG, "<svg/>")
	}
	if got.NodeCount != 3 || got.EdgeCount != 2 {
		t.Errorf("Get() counts = %d/%d, want 3/2", got.NodeCount, got.EdgeCount)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("Get() timestamps are zero, want assigned")
	}
}

func TestMemoryStoreSaveUpsert(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.Save(ctx, testDiagram("checkout")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first, err := st.Get(ctx, "checkout")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	update := testDiagram("checkout")
	update.Title = "Checkout v2"
	update.GraphHash = "cafebabe"
	if err := st.Save(ctx, update); err != nil {
		t.Fatalf("Save() update error = %v", err)
	}

	second, err := st.Get(ctx, "checkout")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// Identity and creation time survive the replacement.
	if second.ID != first.ID {
		t.Errorf("ID after upsert = %q, want %q", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt after upsert = %v, want %v", second.CreatedAt, first.CreatedAt)
	}
	if second.Title != "Checkout v2" || second.GraphHash != "cafebabe" {
		t.Errorf("upsert kept stale fields: %+v", second)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestMemoryStoreSaveEmptyName(t *testing.T) {
	st := NewMemoryStore()
	err := st.Save(context.Background(), &Diagram{Name: "  "})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save() error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	st := NewMemoryStore()
	_, err := st.Get(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("Get() error = %v, want %s", err, errors.ErrCodeDiagramNotFound)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.Save(ctx, testDiagram("checkout")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Delete(ctx, "checkout"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := st.Get(ctx, "checkout"); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("Get() after delete error = %v, want %s", err, errors.ErrCodeDiagramNotFound)
	}
	if err := st.Delete(ctx, "checkout"); !errors.Is(err, errors.ErrCodeDiagramNotFound) {
		t.Errorf("Delete() twice error = %v, want %s", err, errors.ErrCodeDiagramNotFound)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	if err := st.Save(ctx, testDiagram("alpha")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond) // distinct UpdatedAt
	if err := st.Save(ctx, testDiagram("beta")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(got))
	}
	// Most recently updated first.
	if got[0].Name != "beta" || got[1].Name != "alpha" {
		t.Errorf("List() order = [%s %s], want [beta alpha]", got[0].Name, got[1].Name)
	}
	if got[0].NodeCount != 3 || got[0].EdgeCount != 2 {
		t.Errorf("List() counts = %d/%d, want 3/2", got[0].NodeCount, got[0].EdgeCount)
	}
}

func TestMemoryStoreListEmpty(t *testing.T) {
	got, err := NewMemoryStore().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(got))
	}
}

func TestDiagramSummary(t *testing.T) {
	d := testDiagram("checkout")
	d.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d.UpdatedAt = d.CreatedAt.Add(time.Hour)

	s := d.Summary()
	if s.Name != d.Name || s.Title != d.Title {
		t.Errorf("Summary() = %+v, metadata mismatch", s)
	}
	if s.NodeCount != d.NodeCount || s.EdgeCount != d.EdgeCount {
		t.Errorf("Summary() counts = %d/%d, want %d/%d", s.NodeCount, s.EdgeCount, d.NodeCount, d.EdgeCount)
	}
	if !s.CreatedAt.Equal(d.CreatedAt) || !s.UpdatedAt.Equal(d.UpdatedAt) {
		t.Errorf("Summary() timestamps = %v/%v, want %v/%v", s.CreatedAt, s.UpdatedAt, d.CreatedAt, d.UpdatedAt)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	got := Config{URI: "mongodb://localhost:27017"}.withDefaults()
	if got.Database != DefaultDatabase {
		t.Errorf("Database = %q, want %q", got.Database, DefaultDatabase)
	}
	if got.Collection != DefaultCollection {
		t.Errorf("Collection = %q, want %q", got.Collection, DefaultCollection)
	}
	if got.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got.Timeout, DefaultTimeout)
	}

	// Explicit values are kept.
	got = Config{URI: "mongodb://localhost:27017", Database: "infra", Collection: "maps", Timeout: time.Second}.withDefaults()
	if got.Database != "infra" || got.Collection != "maps" || got.Timeout != time.Second {
		t.Errorf("withDefaults() overrode explicit values: %+v", got)
	}
}

func TestNewMongoStoreRequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), Config{})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("NewMongoStore() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}
