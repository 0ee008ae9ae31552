// Package graph defines the knowledge-graph engine boundary for the graphmem
// system and the lifecycle manager that owns the shared engine handle.
//
// The Engine interface is the single downstream surface for entity
// extraction, storage, and search. Implementations are pluggable via
// configuration:
//
//	[database]
//	provider = "sqlite"   # or "postgres", "memory"
package graph

import "time"

// EpisodeSource describes what kind of content an episode carries.
type EpisodeSource string

const (
	// SourceText is plain prose content.
	SourceText EpisodeSource = "text"

	// SourceJSON is structured JSON content.
	SourceJSON EpisodeSource = "json"

	// SourceMessage is conversational content in "speaker: message" form.
	SourceMessage EpisodeSource = "message"
)

// ParseEpisodeSource maps a caller-supplied source string to an
// EpisodeSource. Unknown values fall back to SourceText.
func ParseEpisodeSource(s string) EpisodeSource {
	switch EpisodeSource(s) {
	case SourceText, SourceJSON, SourceMessage:
		return EpisodeSource(s)
	default:
		return SourceText
	}
}

// Episode is one unit of memory content ingested into the graph.
type Episode struct {
	UUID              string        `json:"uuid"`
	Name              string        `json:"name"`
	Content           string        `json:"content"`
	Source            EpisodeSource `json:"source"`
	SourceDescription string        `json:"source_description,omitempty"`
	GroupID           string        `json:"group_id"`
	ReferenceTime     time.Time     `json:"reference_time"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Node is an entity extracted from episodes.
type Node struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	GroupID   string    `json:"group_id"`
	Labels    []string  `json:"labels,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Fact is a relationship between two entities, with bitemporal validity.
type Fact struct {
	UUID           string     `json:"uuid"`
	Name           string     `json:"name"`
	Fact           string     `json:"fact"`
	SourceNodeUUID string     `json:"source_node_uuid"`
	TargetNodeUUID string     `json:"target_node_uuid"`
	GroupID        string     `json:"group_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ValidAt        *time.Time `json:"valid_at,omitempty"`
	InvalidAt      *time.Time `json:"invalid_at,omitempty"`
}

// EntityType is an extraction schema entry: entities matching the
// description are labeled with the type's name.
type EntityType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
