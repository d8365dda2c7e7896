// Package store provides an in-memory document.Store.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/seat-engine/document"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var _ document.Store = (*Memory)(nil)

type Memory struct {
	mu        sync.RWMutex
	documents map[string]*document.Document
	runs      map[string][]document.Run
}

func NewMemory() *Memory {
	return &Memory{
		documents: make(map[string]*document.Document),
		runs:      make(map[string][]document.Run),
	}
}

// SaveDocument stores a copy; later changes to doc are not visible.
func (m *Memory) SaveDocument(_ context.Context, doc *document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc.Clone()
	return nil
}

func (m *Memory) GetDocument(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrDocumentNotFound, id)
	}
	return doc.Clone(), nil
}

func (m *Memory) ListDocuments(_ context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.documents))
	for _, doc := range m.documents {
		out = append(out, doc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return fmt.Errorf("%w: %s", document.ErrDocumentNotFound, id)
	}
	delete(m.documents, id)
	delete(m.runs, id)
	return nil
}

// SaveRun appends a copy of run. Append-only.
func (m *Memory) SaveRun(_ context.Context, run document.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[run.DocumentID]; !ok {
		return fmt.Errorf("%w: %s", document.ErrDocumentNotFound, run.DocumentID)
	}
	m.runs[run.DocumentID] = append(m.runs[run.DocumentID], run.Clone())
	return nil
}

func (m *Memory) ListRuns(_ context.Context, documentID string) ([]document.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := m.runs[documentID]
	out := make([]document.Run, len(runs))
	for i, run := range runs {
		out[i] = run.Clone()
	}
	return out, nil
}
