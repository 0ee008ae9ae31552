// Package episodestore
package episodestore

import (
	"context"

	"github.com/graphmemco/graphmem/pkg/graph"
)

// Driver defines the interface for persisting and retrieving episodes in a
// storage backend. Episodes are the durable record of everything ingested;
// graph state (nodes, facts) is derived from them by the engine.
type Driver interface {
	// Put stores an episode, keyed by UUID. Storing an existing UUID
	// replaces the episode.
	Put(ctx context.Context, episode *graph.Episode) error

	// Get retrieves an episode by its UUID.
	Get(ctx context.Context, uuid string) (*graph.Episode, error)

	// List returns episodes for the given groups, newest first, capped at
	// limit. An empty groupIDs slice means all groups.
	List(ctx context.Context, groupIDs []string, limit int) ([]*graph.Episode, error)

	// Delete removes an episode by its UUID.
	Delete(ctx context.Context, uuid string) error

	// DeleteGroups removes all episodes belonging to the given groups.
	DeleteGroups(ctx context.Context, groupIDs []string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and releases any resources.
	Close() error
}
