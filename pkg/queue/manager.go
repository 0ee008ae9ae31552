package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ExecFunc executes one task. Errors are logged by the worker and discarded;
// a task is consumed exactly once regardless of outcome.
type ExecFunc func(ctx context.Context, task Task) error

// Config is the configuration for the queue manager.
type Config struct {
	// Exec is invoked by group workers for each dequeued task.
	Exec ExecFunc

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// Manager owns one FIFO and one worker flag per group. A single mutex
// guards both maps so that "append and observe the flag" (Submit) and
// "observe empty and clear the flag" (worker exit) are atomic with respect
// to each other; that atomicity is what makes duplicate workers impossible
// without serializing unrelated groups' execution.
type Manager struct {
	exec   ExecFunc
	logger *zap.Logger

	mu      sync.Mutex
	queues  map[string][]Task
	workers map[string]bool
}

// NewManager creates a queue manager. Workers are spawned on demand by
// Submit; an idle Manager holds no goroutines.
func NewManager(c Config) (*Manager, error) {
	if c.Exec == nil {
		return nil, errors.New("exec func is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Manager{
		exec:    c.Exec,
		logger:  c.Logger,
		queues:  make(map[string][]Task),
		workers: make(map[string]bool),
	}, nil
}

// Submit appends the task to its group's FIFO, creating the FIFO if absent,
// and ensures exactly one worker is draining that group. It returns the
// task's position in the queue (1-based) and never blocks on execution:
// the contract is "accepted, will run eventually", not "ran".
func (m *Manager) Submit(task Task) int {
	task.EnqueuedAt = time.Now().UTC()

	m.mu.Lock()
	m.queues[task.GroupID] = append(m.queues[task.GroupID], task)
	depth := len(m.queues[task.GroupID])

	spawn := !m.workers[task.GroupID]
	if spawn {
		m.workers[task.GroupID] = true
	}
	m.mu.Unlock()

	m.logger.Debug("task queued",
		zap.String("group_id", task.GroupID),
		zap.String("name", task.Name),
		zap.Int("position", depth),
	)

	if spawn {
		go m.drain(task.GroupID)
	}

	return depth
}

// QueueDepth returns the current FIFO length for the group (0 if the group
// has no queue).
func (m *Manager) QueueDepth(groupID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[groupID])
}

// IsWorkerActive reports whether a worker is currently draining the group.
func (m *Manager) IsWorkerActive(groupID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workers[groupID]
}

// GroupStatus is a point-in-time snapshot of one group's queue.
type GroupStatus struct {
	GroupID      string `json:"group_id"`
	QueueDepth   int    `json:"queue_depth"`
	WorkerActive bool   `json:"worker_active"`
}

// Snapshot returns the status of every group that currently has a queue or
// a live worker.
func (m *Manager) Snapshot() []GroupStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(m.queues))
	statuses := make([]GroupStatus, 0, len(m.queues))

	for groupID, tasks := range m.queues {
		seen[groupID] = true
		statuses = append(statuses, GroupStatus{
			GroupID:      groupID,
			QueueDepth:   len(tasks),
			WorkerActive: m.workers[groupID],
		})
	}
	for groupID, active := range m.workers {
		if !active || seen[groupID] {
			continue
		}
		statuses = append(statuses, GroupStatus{
			GroupID:      groupID,
			WorkerActive: true,
		})
	}

	return statuses
}

// drain is the per-group worker loop. It pops tasks in strict insertion
// order until the queue is observed empty, then clears its flag and exits.
// The empty check and the flag clear happen under the same lock Submit
// uses, so a concurrent Submit either hands this worker the task or spawns
// a fresh worker; a task can never be left behind with no worker live.
func (m *Manager) drain(groupID string) {
	m.logger.Debug("worker started", zap.String("group_id", groupID))

	for {
		m.mu.Lock()
		tasks := m.queues[groupID]
		if len(tasks) == 0 {
			delete(m.workers, groupID)
			delete(m.queues, groupID)
			m.mu.Unlock()

			m.logger.Debug("worker stopped", zap.String("group_id", groupID))
			return
		}
		task := tasks[0]
		m.queues[groupID] = tasks[1:]
		m.mu.Unlock()

		m.run(task)
	}
}

// run executes a single task, isolating failures at the worker-loop
// boundary: errors and panics are logged with the task's identity and
// discarded, so one bad task never stalls its group or any other group.
func (m *Manager) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("task panicked",
				zap.String("group_id", task.GroupID),
				zap.String("name", task.Name),
				zap.Any("panic", r),
			)
		}
	}()

	start := time.Now()
	if err := m.exec(context.Background(), task); err != nil {
		m.logger.Error("task failed",
			zap.String("group_id", task.GroupID),
			zap.String("name", task.Name),
			zap.Error(err),
		)
		return
	}

	m.logger.Info("task processed",
		zap.String("group_id", task.GroupID),
		zap.String("name", task.Name),
		zap.Duration("duration", time.Since(start)),
	)
}
