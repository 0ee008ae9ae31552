// Package inmemory provides a map-backed episodestore.Driver for tests and
// local development.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/graphmemco/graphmem/pkg/episodestore"
	"github.com/graphmemco/graphmem/pkg/graph"
)

// Driver implements episodestore.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of episodes
	mu sync.RWMutex

	// episodes is the in memory map of episodes keyed by UUID
	episodes map[string]*graph.Episode
}

// NewDriver creates a new in-memory episode store.
func NewDriver() *Driver {
	return &Driver{
		episodes: make(map[string]*graph.Episode),
	}
}

// Put stores an episode, replacing any existing episode with the same UUID.
func (d *Driver) Put(_ context.Context, episode *graph.Episode) error {
	if episode == nil {
		return errors.New("cannot store nil episode")
	}
	if episode.UUID == "" {
		return errors.New("cannot store episode without uuid")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	copied := *episode
	d.episodes[episode.UUID] = &copied
	return nil
}

// Get retrieves an episode by its UUID.
func (d *Driver) Get(_ context.Context, uuid string) (*graph.Episode, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	episode, ok := d.episodes[uuid]
	if !ok {
		return nil, episodestore.NotFoundError{UUID: uuid}
	}

	copied := *episode
	return &copied, nil
}

// List returns episodes for the given groups, newest first.
func (d *Driver) List(_ context.Context, groupIDs []string, limit int) ([]*graph.Episode, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	wanted := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		wanted[g] = true
	}

	var result []*graph.Episode
	for _, episode := range d.episodes {
		if len(wanted) > 0 && !wanted[episode.GroupID] {
			continue
		}
		copied := *episode
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// Delete removes an episode by its UUID.
func (d *Driver) Delete(_ context.Context, uuid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.episodes[uuid]; !ok {
		return episodestore.NotFoundError{UUID: uuid}
	}

	delete(d.episodes, uuid)
	return nil
}

// DeleteGroups removes all episodes belonging to the given groups.
func (d *Driver) DeleteGroups(_ context.Context, groupIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	wanted := make(map[string]bool, len(groupIDs))
	for _, g := range groupIDs {
		wanted[g] = true
	}

	for uuid, episode := range d.episodes {
		if wanted[episode.GroupID] {
			delete(d.episodes, uuid)
		}
	}

	return nil
}

// Ping is a no-op for the in-memory driver.
func (d *Driver) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
