// Package ingest executes queued episode writes against the graph engine.
//
// The executor is the bridge between the group-sequenced queue and the
// engine lifecycle manager: each task acquires the shared engine (building
// it on first use), runs under a concurrency permit, and emits an outcome
// event when an event publisher is configured.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/eventstream"
	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/queue"
)

// Config holds executor configuration.
type Config struct {
	// Service is the engine lifecycle manager. Required.
	Service *graph.Service

	// Publisher receives episode outcome events. Optional; nil disables
	// event publishing.
	Publisher eventstream.Publisher

	// Logger is the logger to use. Required.
	Logger *zap.Logger
}

// Executor runs queue tasks against the shared graph engine.
type Executor struct {
	service   *graph.Service
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// NewExecutor creates an executor.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service is required")
	}

	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Executor{
		service:   cfg.Service,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
	}, nil
}

// Execute runs one episode write. It satisfies queue.ExecFunc.
func (e *Executor) Execute(ctx context.Context, task queue.Task) error {
	episode := graph.Episode{
		UUID:              task.UUID,
		Name:              task.Name,
		Content:           task.Content,
		Source:            task.Source,
		SourceDescription: task.SourceDescription,
		GroupID:           task.GroupID,
		ReferenceTime:     task.ReferenceTime,
		CreatedAt:         time.Now().UTC(),
	}
	if episode.UUID == "" {
		episode.UUID = uuid.NewString()
	}

	start := time.Now()
	err := e.service.WithClient(ctx, func(ctx context.Context, engine graph.Engine) error {
		return engine.AddEpisode(ctx, episode, task.EntityTypes)
	})

	e.publish(ctx, task, episode.UUID, err, time.Since(start))

	return err
}

// publish emits the outcome event. Publishing is best effort: a failed
// publish is logged and never fails the ingestion itself.
func (e *Executor) publish(ctx context.Context, task queue.Task, episodeUUID string, execErr error, elapsed time.Duration) {
	if e.publisher == nil {
		return
	}

	event := &eventstream.EpisodeIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeEpisodeIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		GroupID:       task.GroupID,
		Episode: eventstream.EpisodeMeta{
			UUID:       episodeUUID,
			Name:       task.Name,
			Source:     task.Source,
			EnqueuedAt: task.EnqueuedAt,
		},
		Outcome:    eventstream.OutcomeSucceeded,
		DurationMs: elapsed.Milliseconds(),
	}
	if execErr != nil {
		event.Outcome = eventstream.OutcomeFailed
		event.Error = execErr.Error()
	}

	if err := e.publisher.PublishEpisode(ctx, event); err != nil {
		e.logger.Warn("publishing episode event failed",
			zap.String("group_id", task.GroupID),
			zap.String("episode_uuid", episodeUUID),
			zap.Error(err),
		)
	}
}
