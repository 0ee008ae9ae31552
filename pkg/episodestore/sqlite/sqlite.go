// Package sqlite provides a SQLite-backed episodestore.Driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/graphmemco/graphmem/pkg/episodestore"
	"github.com/graphmemco/graphmem/pkg/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	uuid               TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	content            TEXT NOT NULL,
	source             TEXT NOT NULL,
	source_description TEXT NOT NULL DEFAULT '',
	group_id           TEXT NOT NULL,
	reference_time     TIMESTAMP NOT NULL,
	created_at         TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_group_created ON episodes (group_id, created_at);
`

// Driver implements episodestore.Driver using SQLite.
type Driver struct {
	db *sql.DB
}

// NewDriver creates a new SQLite-backed episode store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Put stores an episode, replacing any existing row with the same UUID.
func (d *Driver) Put(ctx context.Context, episode *graph.Episode) error {
	if episode == nil {
		return errors.New("cannot store nil episode")
	}
	if episode.UUID == "" {
		return errors.New("cannot store episode without uuid")
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO episodes
			(uuid, name, content, source, source_description, group_id, reference_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.UUID,
		episode.Name,
		episode.Content,
		string(episode.Source),
		episode.SourceDescription,
		episode.GroupID,
		episode.ReferenceTime,
		episode.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storing episode %s: %w", episode.UUID, err)
	}

	return nil
}

// Get retrieves an episode by its UUID.
func (d *Driver) Get(ctx context.Context, uuid string) (*graph.Episode, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT uuid, name, content, source, source_description, group_id, reference_time, created_at
		FROM episodes WHERE uuid = ?`, uuid)

	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, episodestore.NotFoundError{UUID: uuid}
	}
	if err != nil {
		return nil, fmt.Errorf("getting episode %s: %w", uuid, err)
	}

	return episode, nil
}

// List returns episodes for the given groups, newest first.
func (d *Driver) List(ctx context.Context, groupIDs []string, limit int) ([]*graph.Episode, error) {
	query := `
		SELECT uuid, name, content, source, source_description, group_id, reference_time, created_at
		FROM episodes`
	args := make([]any, 0, len(groupIDs)+1)

	if len(groupIDs) > 0 {
		query += " WHERE group_id IN (?" + strings.Repeat(", ?", len(groupIDs)-1) + ")"
		for _, g := range groupIDs {
			args = append(args, g)
		}
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	defer rows.Close()

	var result []*graph.Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning episode: %w", err)
		}
		result = append(result, episode)
	}

	return result, rows.Err()
}

// Delete removes an episode by its UUID.
func (d *Driver) Delete(ctx context.Context, uuid string) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM episodes WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("deleting episode %s: %w", uuid, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting episode %s: %w", uuid, err)
	}
	if affected == 0 {
		return episodestore.NotFoundError{UUID: uuid}
	}

	return nil
}

// DeleteGroups removes all episodes belonging to the given groups.
func (d *Driver) DeleteGroups(ctx context.Context, groupIDs []string) error {
	if len(groupIDs) == 0 {
		return nil
	}

	query := "DELETE FROM episodes WHERE group_id IN (?" + strings.Repeat(", ?", len(groupIDs)-1) + ")"
	args := make([]any, 0, len(groupIDs))
	for _, g := range groupIDs {
		args = append(args, g)
	}

	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting episodes for groups: %w", err)
	}

	return nil
}

// Ping verifies the database connection.
func (d *Driver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEpisode(s scanner) (*graph.Episode, error) {
	var episode graph.Episode
	var source string

	err := s.Scan(
		&episode.UUID,
		&episode.Name,
		&episode.Content,
		&source,
		&episode.SourceDescription,
		&episode.GroupID,
		&episode.ReferenceTime,
		&episode.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	episode.Source = graph.EpisodeSource(source)
	return &episode, nil
}
