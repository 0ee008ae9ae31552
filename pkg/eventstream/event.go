// Package eventstream defines transport-neutral ingest outcome events and
// the publisher interface for emitting them to a stream backend.
package eventstream

import (
	"time"

	"github.com/graphmemco/graphmem/pkg/graph"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeEpisodeIngested is emitted after an episode ingestion task
	// finishes, whether it succeeded or failed.
	EventTypeEpisodeIngested = "graphmem.episode.ingested"
)

// Ingestion outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// EpisodeIngestedEvent is a transport-neutral event payload for a processed
// episode ingestion task.
type EpisodeIngestedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	GroupID       string      `json:"group_id"`
	Episode       EpisodeMeta `json:"episode"`
	Outcome       string      `json:"outcome"`
	Error         string      `json:"error,omitempty"`
	DurationMs    int64       `json:"duration_ms"`
}

// EpisodeMeta captures identifying episode metadata for the event. Content
// stays out of the stream: the episode store is the system of record.
type EpisodeMeta struct {
	UUID       string              `json:"uuid"`
	Name       string              `json:"name"`
	Source     graph.EpisodeSource `json:"source"`
	EnqueuedAt time.Time           `json:"enqueued_at"`
}
