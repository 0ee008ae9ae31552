package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/graphmemco/graphmem/pkg/graph"
)

// MockEngine is a test engine with canned data and per-method failure
// switches.
type MockEngine struct {
	mu sync.Mutex

	// Canned results.
	Nodes    []graph.Node
	Facts    []graph.Fact
	Episodes []graph.Episode

	// Recorded calls.
	Added           []graph.Episode
	DeletedEpisodes []string
	DeletedFacts    []string
	ClearedGroups   [][]string

	// FailOn causes the named method to return an error.
	FailOn map[string]error
}

func NewMockEngine() *MockEngine {
	return &MockEngine{
		FailOn: make(map[string]error),
	}
}

func (m *MockEngine) fail(method string) error {
	if err, ok := m.FailOn[method]; ok {
		return err
	}
	return nil
}

func (m *MockEngine) AddEpisode(_ context.Context, episode graph.Episode, _ []graph.EntityType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AddEpisode"); err != nil {
		return err
	}
	m.Added = append(m.Added, episode)
	return nil
}

func (m *MockEngine) SearchNodes(_ context.Context, _ string, groupIDs []string, limit int, labels []string) ([]graph.Node, error) {
	if err := m.fail("SearchNodes"); err != nil {
		return nil, err
	}

	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}

	result := make([]graph.Node, 0, len(m.Nodes))
	for _, node := range m.Nodes {
		if len(groups) > 0 && !groups[node.GroupID] {
			continue
		}
		if len(labels) > 0 && !hasAnyLabel(node.Labels, labels) {
			continue
		}
		result = append(result, node)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockEngine) SearchFacts(_ context.Context, _ string, groupIDs []string, limit int, centerNodeUUID string) ([]graph.Fact, error) {
	if err := m.fail("SearchFacts"); err != nil {
		return nil, err
	}

	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}

	result := make([]graph.Fact, 0, len(m.Facts))
	for _, fact := range m.Facts {
		if len(groups) > 0 && !groups[fact.GroupID] {
			continue
		}
		if centerNodeUUID != "" && fact.SourceNodeUUID != centerNodeUUID && fact.TargetNodeUUID != centerNodeUUID {
			continue
		}
		result = append(result, fact)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockEngine) GetEpisodes(_ context.Context, groupIDs []string, limit int) ([]graph.Episode, error) {
	if err := m.fail("GetEpisodes"); err != nil {
		return nil, err
	}

	groups := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		groups[g] = true
	}

	result := make([]graph.Episode, 0, len(m.Episodes))
	for _, episode := range m.Episodes {
		if len(groups) > 0 && !groups[episode.GroupID] {
			continue
		}
		result = append(result, episode)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockEngine) DeleteEpisode(_ context.Context, uuid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteEpisode"); err != nil {
		return err
	}
	m.DeletedEpisodes = append(m.DeletedEpisodes, uuid)
	return nil
}

func (m *MockEngine) GetFact(_ context.Context, uuid string) (graph.Fact, error) {
	if err := m.fail("GetFact"); err != nil {
		return graph.Fact{}, err
	}
	for _, fact := range m.Facts {
		if fact.UUID == uuid {
			return fact, nil
		}
	}
	return graph.Fact{}, fmt.Errorf("%w: fact %s", graph.ErrNotFound, uuid)
}

func (m *MockEngine) DeleteFact(_ context.Context, uuid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteFact"); err != nil {
		return err
	}
	for _, fact := range m.Facts {
		if fact.UUID == uuid {
			m.DeletedFacts = append(m.DeletedFacts, uuid)
			return nil
		}
	}
	return fmt.Errorf("%w: fact %s", graph.ErrNotFound, uuid)
}

func (m *MockEngine) ClearGroups(_ context.Context, groupIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ClearGroups"); err != nil {
		return err
	}
	m.ClearedGroups = append(m.ClearedGroups, groupIDs)
	return nil
}

func (m *MockEngine) Ping(_ context.Context) error {
	return m.fail("Ping")
}

func (m *MockEngine) Close() error {
	return m.fail("Close")
}

func hasAnyLabel(labels, wanted []string) bool {
	for _, label := range labels {
		for _, w := range wanted {
			if label == w {
				return true
			}
		}
	}
	return false
}
