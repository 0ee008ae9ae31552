package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/graph"
)

// extractedEntity is one entity mention pulled out of an episode.
type extractedEntity struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// extractEntities pulls entity mentions out of the episode content. The LLM
// path is best effort: any failure falls back to the heuristic so ingestion
// keeps working without a reachable model.
func (e *Engine) extractEntities(ctx context.Context, episode graph.Episode, entityTypes []graph.EntityType) []extractedEntity {
	if e.llm != nil {
		entities, err := e.extractWithLLM(ctx, episode, entityTypes)
		if err == nil {
			return entities
		}

		e.logger.Warn("llm extraction failed, falling back to heuristic",
			zap.String("episode_uuid", episode.UUID),
			zap.Error(err),
		)
	}

	return extractHeuristic(episode.Content)
}

func (e *Engine) extractWithLLM(ctx context.Context, episode graph.Episode, entityTypes []graph.EntityType) ([]extractedEntity, error) {
	prompt := buildExtractionPrompt(episode, entityTypes)

	reply, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completing extraction prompt: %w", err)
	}

	entities, err := parseExtractionReply(reply)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction reply: %w", err)
	}

	return entities, nil
}

func buildExtractionPrompt(episode graph.Episode, entityTypes []graph.EntityType) string {
	var b strings.Builder

	b.WriteString("Extract the entities mentioned in the following content.\n")
	b.WriteString("Reply with only a JSON array of objects with keys \"name\", \"type\", and \"summary\".\n")

	if len(entityTypes) > 0 {
		b.WriteString("Use these entity types where they apply, otherwise leave \"type\" empty:\n")
		for _, t := range entityTypes {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		}
	}

	fmt.Fprintf(&b, "\nContent (%s):\n%s\n", episode.Source, episode.Content)

	return b.String()
}

// parseExtractionReply decodes the model's JSON array, tolerating markdown
// code fences around it.
func parseExtractionReply(reply string) ([]extractedEntity, error) {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var entities []extractedEntity
	if err := json.Unmarshal([]byte(trimmed), &entities); err != nil {
		return nil, err
	}

	result := make([]extractedEntity, 0, len(entities))
	for _, entity := range entities {
		entity.Name = strings.TrimSpace(entity.Name)
		if entity.Name == "" {
			continue
		}
		result = append(result, entity)
	}

	return result, nil
}

// stopwords are capitalized words that are usually sentence scaffolding
// rather than entity mentions.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "but": true, "for": true,
	"i": true, "if": true, "in": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "so": true, "the": true,
	"then": true, "they": true, "this": true, "that": true, "to": true,
	"we": true, "when": true, "with": true, "you": true,
}

// extractHeuristic finds runs of capitalized words and treats each run as an
// entity mention. Punctuation ends a run, so "Alice, Bob" is two mentions.
// Crude, but it keeps the local engine useful without a configured model.
func extractHeuristic(content string) []extractedEntity {
	seen := make(map[string]bool)
	entities := make([]extractedEntity, 0)

	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		name := strings.Join(run, " ")
		run = nil

		key := strings.ToLower(name)
		if stopwords[key] || seen[key] {
			return
		}
		seen[key] = true
		entities = append(entities, extractedEntity{Name: name})
	}

	isWordRune := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
	}

	for _, raw := range strings.Fields(content) {
		word := strings.TrimFunc(raw, func(r rune) bool { return !isWordRune(r) })
		if word == "" {
			flush()
			continue
		}

		trailing := len(strings.TrimRightFunc(raw, func(r rune) bool { return !isWordRune(r) })) != len(raw)

		if unicode.IsUpper([]rune(word)[0]) {
			run = append(run, word)
			if trailing {
				flush()
			}
			continue
		}

		flush()
	}
	flush()

	return entities
}
