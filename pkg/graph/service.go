package graph

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// DefaultSemaphoreLimit bounds concurrent engine calls across all groups
// when no limit is configured.
const DefaultSemaphoreLimit = 10

// BuildFunc constructs the Engine. It is invoked at most once for the life
// of the Service, by the first GetClient caller.
type BuildFunc func(ctx context.Context) (Engine, error)

// ServiceConfig is the configuration for the engine lifecycle manager.
type ServiceConfig struct {
	// Build constructs the engine on first demand.
	Build BuildFunc

	// SemaphoreLimit is the maximum number of concurrent engine calls
	// (defaults to DefaultSemaphoreLimit).
	SemaphoreLimit int

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// Service owns the single shared Engine handle. Construction is lazy and
// race-safe: the first GetClient caller builds, concurrent callers block
// until the build finishes, and the outcome (handle or error) is sticky for
// the process lifetime. All engine calls are gated by a counting permit
// pool bounding system-wide downstream concurrency.
type Service struct {
	build   BuildFunc
	limit   int
	permits chan struct{}
	logger  *zap.Logger

	once   sync.Once
	engine Engine
	err    error
}

// NewService creates the lifecycle manager. The engine is not constructed
// here; construction is deferred to the first GetClient call.
func NewService(c ServiceConfig) (*Service, error) {
	if c.Build == nil {
		return nil, errors.New("build func is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	limit := c.SemaphoreLimit
	if limit <= 0 {
		limit = DefaultSemaphoreLimit
	}

	return &Service{
		build:   c.Build,
		limit:   limit,
		permits: make(chan struct{}, limit),
		logger:  c.Logger,
	}, nil
}

// GetClient returns the shared engine handle, constructing it on first call.
// Concurrent callers during construction block until the winner finishes.
// A construction failure is returned to all current and future callers;
// it is never retried.
func (s *Service) GetClient(ctx context.Context) (Engine, error) {
	s.once.Do(func() {
		s.logger.Info("constructing graph engine")
		// The outcome is shared process-wide and sticky; it must reflect
		// the configuration, not the first caller's request lifetime.
		s.engine, s.err = s.build(context.WithoutCancel(ctx))
		if s.err != nil {
			s.logger.Error("graph engine construction failed", zap.Error(s.err))
			return
		}
		s.logger.Info("graph engine ready")
	})

	return s.engine, s.err
}

// AcquirePermit blocks until a slot in the permit pool is available or the
// context is cancelled. The returned release func must be called on every
// exit path; callers should defer it immediately.
func (s *Service) AcquirePermit(ctx context.Context) (func(), error) {
	select {
	case s.permits <- struct{}{}:
		return func() { <-s.permits }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WithClient runs fn against the shared engine under a held permit.
func (s *Service) WithClient(ctx context.Context, fn func(ctx context.Context, engine Engine) error) error {
	engine, err := s.GetClient(ctx)
	if err != nil {
		return err
	}

	release, err := s.AcquirePermit(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, engine)
}

// SemaphoreLimit returns the permit pool capacity.
func (s *Service) SemaphoreLimit() int {
	return s.limit
}

// InFlight returns the number of currently held permits.
func (s *Service) InFlight() int {
	return len(s.permits)
}

// Close releases the engine if it was ever constructed.
func (s *Service) Close() error {
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}
