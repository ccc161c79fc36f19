package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fwerkmann/stackflow/pkg/errors"
)

// MemoryStore implements Store in process memory. It backs tests and
// preview servers running without a database; contents vanish on exit.
type MemoryStore struct {
	mu       sync.RWMutex
	diagrams map[string]Diagram
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{diagrams: make(map[string]Diagram)}
}

// Save inserts or replaces the diagram stored under d.Name.
func (s *MemoryStore) Save(ctx context.Context, d *Diagram) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	rec := *d
	rec.UpdatedAt = now
	if prev, ok := s.diagrams[d.Name]; ok {
		rec.ID = prev.ID
		rec.CreatedAt = prev.CreatedAt
	} else {
		rec.ID = uuid.NewString()
		rec.CreatedAt = now
	}
	s.diagrams[d.Name] = rec
	return nil
}

// Get returns the diagram stored under name.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.diagrams[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", name)
	}
	out := rec
	return &out, nil
}

// List returns a summary of every stored diagram, most recently updated
// first. Entries updated in the same instant sort by name.
func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.diagrams))
	for _, rec := range s.diagrams {
		out = append(out, rec.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes the diagram stored under name.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.diagrams[name]; !ok {
		return errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", name)
	}
	delete(s.diagrams, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
