// Package local provides an in-process implementation of the graph.Engine
// interface.
//
// Episodes are persisted through a pluggable episodestore.Driver; nodes and
// facts are derived in memory from episode content. Entity extraction uses
// the configured LLM client when present and falls back to a capitalization
// heuristic otherwise. When a vector driver and embedder are configured,
// node and fact search is ranked by embedding similarity; otherwise a
// token-overlap ranking is used.
package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/embeddings"
	"github.com/graphmemco/graphmem/pkg/episodestore"
	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/llm/provider"
	"github.com/graphmemco/graphmem/pkg/vector"
)

// Config holds configuration for the local engine.
type Config struct {
	// Store persists episodes. Required.
	Store episodestore.Driver

	// LLM extracts entities and relationships from episode content.
	// Optional; when nil a capitalization heuristic is used instead.
	LLM provider.Client

	// Embedder converts text to vectors for similarity search. Required
	// when Vector is set.
	Embedder embeddings.Embedder

	// Vector indexes node and fact embeddings. Optional; when nil search
	// falls back to token-overlap ranking.
	Vector vector.Driver

	// Logger is the logger to use. Required.
	Logger *zap.Logger
}

// Engine implements graph.Engine using in-process data structures.
type Engine struct {
	store    episodestore.Driver
	llm      provider.Client
	embedder embeddings.Embedder
	vector   vector.Driver
	logger   *zap.Logger

	mu sync.RWMutex

	// nodes maps node UUID -> node.
	nodes map[string]*graph.Node

	// nodeKeys maps group + lowercased name -> node UUID, for upserts.
	nodeKeys map[string]string

	// facts maps fact UUID -> fact.
	facts map[string]*graph.Fact

	// factKeys maps group + endpoint pair -> fact UUID, for upserts.
	factKeys map[string]string
}

// NewEngine creates a local engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("episode store is required")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Vector != nil && cfg.Embedder == nil {
		return nil, fmt.Errorf("embedder is required when a vector driver is configured")
	}

	return &Engine{
		store:    cfg.Store,
		llm:      cfg.LLM,
		embedder: cfg.Embedder,
		vector:   cfg.Vector,
		logger:   cfg.Logger,
		nodes:    make(map[string]*graph.Node),
		nodeKeys: make(map[string]string),
		facts:    make(map[string]*graph.Fact),
		factKeys: make(map[string]string),
	}, nil
}

// AddEpisode persists the episode, extracts entities, and derives
// co-occurrence facts between them.
func (e *Engine) AddEpisode(ctx context.Context, episode graph.Episode, entityTypes []graph.EntityType) error {
	if episode.UUID == "" {
		episode.UUID = uuid.NewString()
	}
	if episode.CreatedAt.IsZero() {
		episode.CreatedAt = time.Now().UTC()
	}

	if err := e.store.Put(ctx, &episode); err != nil {
		return fmt.Errorf("persisting episode %s: %w", episode.UUID, err)
	}

	entities := e.extractEntities(ctx, episode, entityTypes)
	if len(entities) == 0 {
		return nil
	}

	nodes, facts := e.upsert(episode, entities)

	if e.vector == nil {
		return nil
	}

	return e.index(ctx, nodes, facts)
}

// upsert merges extracted entities into the node and fact maps. It returns
// the touched nodes and facts so callers can index them.
func (e *Engine) upsert(episode graph.Episode, entities []extractedEntity) ([]graph.Node, []graph.Fact) {
	e.mu.Lock()
	defer e.mu.Unlock()

	touched := make([]graph.Node, 0, len(entities))
	for _, entity := range entities {
		key := episode.GroupID + "\x00" + strings.ToLower(entity.Name)

		id, ok := e.nodeKeys[key]
		if !ok {
			id = uuid.NewString()
			e.nodeKeys[key] = id
			e.nodes[id] = &graph.Node{
				UUID:      id,
				Name:      entity.Name,
				GroupID:   episode.GroupID,
				CreatedAt: episode.CreatedAt,
			}
		}

		node := e.nodes[id]
		if entity.Type != "" && !containsString(node.Labels, entity.Type) {
			node.Labels = append(node.Labels, entity.Type)
		}
		if entity.Summary != "" {
			node.Summary = entity.Summary
		}

		touched = append(touched, *node)
	}

	derived := make([]graph.Fact, 0)
	for i := range touched {
		for j := i + 1; j < len(touched); j++ {
			source, target := touched[i], touched[j]
			if source.UUID > target.UUID {
				source, target = target, source
			}

			key := episode.GroupID + "\x00" + source.UUID + "\x00" + target.UUID

			id, ok := e.factKeys[key]
			if !ok {
				id = uuid.NewString()
				e.factKeys[key] = id
				e.facts[id] = &graph.Fact{
					UUID:           id,
					Name:           "RELATES_TO",
					SourceNodeUUID: source.UUID,
					TargetNodeUUID: target.UUID,
					GroupID:        episode.GroupID,
					CreatedAt:      episode.CreatedAt,
				}
			}

			fact := e.facts[id]
			fact.Fact = fmt.Sprintf("%s relates to %s", source.Name, target.Name)
			if !episode.ReferenceTime.IsZero() {
				validAt := episode.ReferenceTime
				fact.ValidAt = &validAt
			}

			derived = append(derived, *fact)
		}
	}

	return touched, derived
}

// index embeds touched nodes and facts into the vector driver.
func (e *Engine) index(ctx context.Context, nodes []graph.Node, facts []graph.Fact) error {
	docs := make([]vector.Document, 0, len(nodes)+len(facts))

	for _, node := range nodes {
		embedding, err := e.embedder.Embed(ctx, node.Name+" "+node.Summary)
		if err != nil {
			return fmt.Errorf("embedding node %s: %w", node.UUID, err)
		}
		docs = append(docs, vector.Document{ID: node.UUID, GroupID: node.GroupID, Embedding: embedding})
	}

	for _, fact := range facts {
		embedding, err := e.embedder.Embed(ctx, fact.Fact)
		if err != nil {
			return fmt.Errorf("embedding fact %s: %w", fact.UUID, err)
		}
		docs = append(docs, vector.Document{ID: fact.UUID, GroupID: fact.GroupID, Embedding: embedding})
	}

	if len(docs) == 0 {
		return nil
	}

	if err := e.vector.Add(ctx, docs); err != nil {
		return fmt.Errorf("indexing embeddings: %w", err)
	}

	return nil
}

// GetEpisodes returns the most recent episodes for the given groups.
func (e *Engine) GetEpisodes(ctx context.Context, groupIDs []string, limit int) ([]graph.Episode, error) {
	stored, err := e.store.List(ctx, groupIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}

	episodes := make([]graph.Episode, 0, len(stored))
	for _, episode := range stored {
		episodes = append(episodes, *episode)
	}

	return episodes, nil
}

// DeleteEpisode removes an episode by UUID. Derived nodes and facts are
// kept: they may be supported by other episodes.
func (e *Engine) DeleteEpisode(ctx context.Context, uuid string) error {
	return e.store.Delete(ctx, uuid)
}

// GetFact retrieves a fact by UUID.
func (e *Engine) GetFact(_ context.Context, uuid string) (graph.Fact, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	fact, ok := e.facts[uuid]
	if !ok {
		return graph.Fact{}, fmt.Errorf("%w: fact %s", graph.ErrNotFound, uuid)
	}

	return *fact, nil
}

// DeleteFact removes a fact by UUID.
func (e *Engine) DeleteFact(ctx context.Context, uuid string) error {
	e.mu.Lock()

	fact, ok := e.facts[uuid]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: fact %s", graph.ErrNotFound, uuid)
	}

	key := fact.GroupID + "\x00" + fact.SourceNodeUUID + "\x00" + fact.TargetNodeUUID
	delete(e.factKeys, key)
	delete(e.facts, uuid)
	e.mu.Unlock()

	if e.vector != nil {
		if err := e.vector.Delete(ctx, []string{uuid}); err != nil {
			return fmt.Errorf("removing fact embedding: %w", err)
		}
	}

	return nil
}

// ClearGroups removes all episodes, nodes, and facts for the groups.
func (e *Engine) ClearGroups(ctx context.Context, groupIDs []string) error {
	if err := e.store.DeleteGroups(ctx, groupIDs); err != nil {
		return fmt.Errorf("clearing episodes: %w", err)
	}

	groups := make(map[string]bool, len(groupIDs))
	for _, groupID := range groupIDs {
		groups[groupID] = true
	}

	e.mu.Lock()
	removed := make([]string, 0)
	for id, node := range e.nodes {
		if groups[node.GroupID] {
			delete(e.nodeKeys, node.GroupID+"\x00"+strings.ToLower(node.Name))
			delete(e.nodes, id)
			removed = append(removed, id)
		}
	}
	for id, fact := range e.facts {
		if groups[fact.GroupID] {
			delete(e.factKeys, fact.GroupID+"\x00"+fact.SourceNodeUUID+"\x00"+fact.TargetNodeUUID)
			delete(e.facts, id)
			removed = append(removed, id)
		}
	}
	e.mu.Unlock()

	if e.vector != nil && len(removed) > 0 {
		if err := e.vector.Delete(ctx, removed); err != nil {
			return fmt.Errorf("removing group embeddings: %w", err)
		}
	}

	return nil
}

// Ping verifies the backing episode store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Close releases the engine's backing resources.
func (e *Engine) Close() error {
	errs := []error{e.store.Close()}

	if e.vector != nil {
		errs = append(errs, e.vector.Close())
	}
	if e.embedder != nil {
		errs = append(errs, e.embedder.Close())
	}
	if e.llm != nil {
		errs = append(errs, e.llm.Close())
	}

	return errors.Join(errs...)
}

// nodesForGroups returns copies of the nodes matching the group and label
// filters. Empty filters match everything.
func (e *Engine) nodesForGroups(groupIDs, labels []string) []graph.Node {
	groups := make(map[string]bool, len(groupIDs))
	for _, groupID := range groupIDs {
		groups[groupID] = true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]graph.Node, 0, len(e.nodes))
	for _, node := range e.nodes {
		if len(groups) > 0 && !groups[node.GroupID] {
			continue
		}
		if len(labels) > 0 && !matchesAnyLabel(node.Labels, labels) {
			continue
		}
		result = append(result, *node)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	return result
}

// factsForGroups returns copies of the facts matching the group filter and,
// when centerNodeUUID is set, touching that node.
func (e *Engine) factsForGroups(groupIDs []string, centerNodeUUID string) []graph.Fact {
	groups := make(map[string]bool, len(groupIDs))
	for _, groupID := range groupIDs {
		groups[groupID] = true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]graph.Fact, 0, len(e.facts))
	for _, fact := range e.facts {
		if len(groups) > 0 && !groups[fact.GroupID] {
			continue
		}
		if centerNodeUUID != "" && fact.SourceNodeUUID != centerNodeUUID && fact.TargetNodeUUID != centerNodeUUID {
			continue
		}
		result = append(result, *fact)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Fact < result[j].Fact })

	return result
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func matchesAnyLabel(nodeLabels, wanted []string) bool {
	for _, label := range nodeLabels {
		for _, w := range wanted {
			if strings.EqualFold(label, w) {
				return true
			}
		}
	}
	return false
}
