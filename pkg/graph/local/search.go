package local

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/graphmemco/graphmem/pkg/graph"
)

// DefaultSearchLimit caps result sets when the caller does not specify a
// limit.
const DefaultSearchLimit = 10

// overfetch widens vector queries so that group, label, and kind filtering
// still leaves enough candidates to fill the limit.
const overfetch = 4

// SearchNodes finds entities relevant to the query.
func (e *Engine) SearchNodes(ctx context.Context, query string, groupIDs []string, limit int, labels []string) ([]graph.Node, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	candidates := e.nodesForGroups(groupIDs, labels)

	if e.vector != nil {
		return e.searchNodesByVector(ctx, query, groupIDs, limit, candidates)
	}

	scored := make([]graph.Node, 0, len(candidates))
	scores := make(map[string]int, len(candidates))
	queryTokens := tokenize(query)

	for _, node := range candidates {
		score := overlap(queryTokens, tokenize(node.Name+" "+node.Summary+" "+strings.Join(node.Labels, " ")))
		if score == 0 {
			continue
		}
		scores[node.UUID] = score
		scored = append(scored, node)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scores[scored[i].UUID] > scores[scored[j].UUID]
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func (e *Engine) searchNodesByVector(ctx context.Context, query string, groupIDs []string, limit int, candidates []graph.Node) ([]graph.Node, error) {
	byUUID := make(map[string]graph.Node, len(candidates))
	for _, node := range candidates {
		byUUID[node.UUID] = node
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := e.vector.Query(ctx, embedding, limit*overfetch, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	nodes := make([]graph.Node, 0, limit)
	for _, result := range results {
		node, ok := byUUID[result.ID]
		if !ok {
			// Fact or filtered-out node embedding.
			continue
		}
		nodes = append(nodes, node)
		if len(nodes) == limit {
			break
		}
	}

	return nodes, nil
}

// SearchFacts finds relationships relevant to the query.
func (e *Engine) SearchFacts(ctx context.Context, query string, groupIDs []string, limit int, centerNodeUUID string) ([]graph.Fact, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	candidates := e.factsForGroups(groupIDs, centerNodeUUID)

	if e.vector != nil {
		return e.searchFactsByVector(ctx, query, groupIDs, limit, candidates)
	}

	scored := make([]graph.Fact, 0, len(candidates))
	scores := make(map[string]int, len(candidates))
	queryTokens := tokenize(query)

	for _, fact := range candidates {
		score := overlap(queryTokens, tokenize(fact.Name+" "+fact.Fact))
		if score == 0 {
			continue
		}
		scores[fact.UUID] = score
		scored = append(scored, fact)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scores[scored[i].UUID] > scores[scored[j].UUID]
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return scored, nil
}

func (e *Engine) searchFactsByVector(ctx context.Context, query string, groupIDs []string, limit int, candidates []graph.Fact) ([]graph.Fact, error) {
	byUUID := make(map[string]graph.Fact, len(candidates))
	for _, fact := range candidates {
		byUUID[fact.UUID] = fact
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := e.vector.Query(ctx, embedding, limit*overfetch, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("querying vector index: %w", err)
	}

	facts := make([]graph.Fact, 0, limit)
	for _, result := range results {
		fact, ok := byUUID[result.ID]
		if !ok {
			continue
		}
		facts = append(facts, fact)
		if len(facts) == limit {
			break
		}
	}

	return facts, nil
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]bool, len(words))
	for _, word := range words {
		tokens[word] = true
	}

	return tokens
}

// overlap counts tokens common to both sets.
func overlap(query, doc map[string]bool) int {
	count := 0
	for token := range query {
		if doc[token] {
			count++
		}
	}
	return count
}
