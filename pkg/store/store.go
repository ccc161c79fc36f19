// Package store persists named diagrams so rendered results can be shared
// between runs and between machines.
//
// A stored diagram is the full interchange [io.Document] plus the rendered
// SVG and enough metadata to list entries without loading either. Two
// backends are provided:
//   - memory: in-process storage for tests and single-instance previews
//   - mongo: MongoDB-backed storage for shared deployments
//
// # Architecture
//
// Diagrams are keyed by name. Save upserts: pushing the same name again
// replaces the document and SVG but keeps the original ID and creation
// time, so a name behaves like a stable handle to the latest render.
// GraphHash records which source graph produced the entry, letting callers
// skip a push when nothing changed.
//
// # Usage
//
// Create a store:
//
//	// Tests and local previews
//	st := store.NewMemoryStore()
//
//	// Shared deployments
//	st, err := store.NewMongoStore(ctx, store.Config{
//	    URI: "mongodb://localhost:27017",
//	})
//	if err != nil {
//	    return err
//	}
//	defer st.Close(ctx)
//
// Publish and fetch diagrams:
//
//	err = st.Save(ctx, &store.Diagram{Name: "checkout", Document: doc, SVG: svg})
//
//	d, err := st.Get(ctx, "checkout")
//	if errors.Is(err, errors.ErrCodeDiagramNotFound) {
//	    // Nothing published under that name.
//	}
package store

import (
	"context"
	"strings"
	"time"

	"github.com/fwerkmann/stackflow/pkg/errors"
	"github.com/fwerkmann/stackflow/pkg/io"
)

// Diagram is one stored entry: the interchange document, the rendered SVG
// and the metadata shown in listings.
type Diagram struct {
	ID        string      `bson:"_id" json:"id"`
	Name      string      `bson:"name" json:"name"`
	Title     string      `bson:"title,omitempty" json:"title,omitempty"`
	GraphHash string      `bson:"graph_hash,omitempty" json:"graph_hash,omitempty"`
	Document  io.Document `bson:"document" json:"document"`
	SVG       []byte      `bson:"svg,omitempty" json:"-"`
	NodeCount int         `bson:"node_count" json:"node_count"`
	EdgeCount int         `bson:"edge_count" json:"edge_count"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time   `bson:"updated_at" json:"updated_at"`
}

// Summary carries the listing fields of a diagram without the document or
// SVG payload.
type Summary struct {
	Name      string    `bson:"name" json:"name"`
	Title     string    `bson:"title,omitempty" json:"title,omitempty"`
	NodeCount int       `bson:"node_count" json:"node_count"`
	EdgeCount int       `bson:"edge_count" json:"edge_count"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Summary returns the listing view of the diagram.
func (d *Diagram) Summary() Summary {
	return Summary{
		Name:      d.Name,
		Title:     d.Title,
		NodeCount: d.NodeCount,
		EdgeCount: d.EdgeCount,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store is the interface diagram storage backends implement.
type Store interface {
	// Save inserts or replaces the diagram stored under d.Name. The first
	// save assigns the ID and creation time; later saves keep both and
	// only advance UpdatedAt. Save does not modify d.
	Save(ctx context.Context, d *Diagram) error

	// Get returns the diagram stored under name. Returns an
	// ErrCodeDiagramNotFound error if no diagram exists under that name.
	Get(ctx context.Context, name string) (*Diagram, error)

	// List returns a summary of every stored diagram, most recently
	// updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes the diagram stored under name. Returns an
	// ErrCodeDiagramNotFound error if no diagram exists under that name.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "diagram name is required")
	}
	return nil
}
