package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/graphmemco/graphmem/pkg/vector"
)

// MockVectorDriver is a test vector driver that stores documents in memory
// and answers queries with a configurable ranking.
type MockVectorDriver struct {
	mu   sync.Mutex
	Docs map[string]vector.Document

	// Ranking is the order of document IDs returned by Query. When empty,
	// Query returns stored documents in arbitrary order.
	Ranking []string

	// FailQuery causes Query to return an error.
	FailQuery error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Docs: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		m.Docs[doc.ID] = doc
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, groupIDs []string) ([]vector.QueryResult, error) {
	if m.FailQuery != nil {
		return nil, fmt.Errorf("mock query failure: %w", m.FailQuery)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}

	ids := m.Ranking
	if len(ids) == 0 {
		for id := range m.Docs {
			ids = append(ids, id)
		}
	}

	results := make([]vector.QueryResult, 0, len(ids))
	for i, id := range ids {
		doc, ok := m.Docs[id]
		if !ok {
			continue
		}
		if len(groups) > 0 && !groups[doc.GroupID] {
			continue
		}
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    1 - float32(i)*0.01,
		})
		if topK > 0 && len(results) == topK {
			break
		}
	}
	return results, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.Docs, id)
	}
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}
