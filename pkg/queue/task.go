// Package queue provides the group-sequenced ingestion queue for the
// graphmem system.
//
// Writes to the knowledge graph must be applied in submission order within a
// group, while unrelated groups proceed fully in parallel. The Manager keeps
// one FIFO per group and ensures at most one drain worker per group is ever
// live. Submitting never blocks on execution: callers get back the task's
// queue position and the work runs in the background.
package queue

import (
	"time"

	"github.com/graphmemco/graphmem/pkg/graph"
)

// Task is one deferred episode write. Tasks are immutable once submitted:
// the queue owns a task until its group's worker dequeues it, and the worker
// owns it for the duration of execution.
type Task struct {
	// GroupID is the logical partition the task belongs to. Ordering is
	// guaranteed only among tasks sharing a GroupID.
	GroupID string

	// UUID optionally pins the resulting episode's identifier. Empty means
	// the engine assigns one.
	UUID string

	// Name is the episode name.
	Name string

	// Content is the episode body.
	Content string

	// Source describes the content kind (text, json, message).
	Source graph.EpisodeSource

	// SourceDescription is a caller-supplied provenance note.
	SourceDescription string

	// EntityTypes is the extraction schema the engine applies.
	EntityTypes []graph.EntityType

	// ReferenceTime is the point in time the episode describes.
	ReferenceTime time.Time

	// EnqueuedAt is set by Submit.
	EnqueuedAt time.Time
}
