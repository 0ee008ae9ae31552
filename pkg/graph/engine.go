package graph

import "context"

// Engine is the downstream knowledge-graph client. All graphmem write and
// read paths go through this interface; implementations own entity
// extraction, persistence, and search ranking.
type Engine interface {
	// AddEpisode ingests one episode: persists it, extracts entities per
	// the given schema, and derives facts. This is the expensive operation
	// gated by the lifecycle manager's permit pool.
	AddEpisode(ctx context.Context, episode Episode, entityTypes []EntityType) error

	// SearchNodes finds entities relevant to the query, optionally
	// restricted to groups and labels.
	SearchNodes(ctx context.Context, query string, groupIDs []string, limit int, labels []string) ([]Node, error)

	// SearchFacts finds relationships relevant to the query, optionally
	// restricted to groups and centered on a node.
	SearchFacts(ctx context.Context, query string, groupIDs []string, limit int, centerNodeUUID string) ([]Fact, error)

	// GetEpisodes returns the most recent episodes for the given groups,
	// newest first.
	GetEpisodes(ctx context.Context, groupIDs []string, limit int) ([]Episode, error)

	// DeleteEpisode removes an episode by UUID.
	DeleteEpisode(ctx context.Context, uuid string) error

	// GetFact retrieves a fact by UUID.
	GetFact(ctx context.Context, uuid string) (Fact, error)

	// DeleteFact removes a fact by UUID.
	DeleteFact(ctx context.Context, uuid string) error

	// ClearGroups removes all episodes, nodes, and facts for the groups.
	ClearGroups(ctx context.Context, groupIDs []string) error

	// Ping verifies the engine's backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases engine resources.
	Close() error
}
