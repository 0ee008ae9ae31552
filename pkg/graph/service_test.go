package graph_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/logger"
)

// stubEngine is a minimal Engine for lifecycle tests.
type stubEngine struct{}

func (stubEngine) AddEpisode(context.Context, graph.Episode, []graph.EntityType) error {
	return nil
}

func (stubEngine) SearchNodes(context.Context, string, []string, int, []string) ([]graph.Node, error) {
	return nil, nil
}

func (stubEngine) SearchFacts(context.Context, string, []string, int, string) ([]graph.Fact, error) {
	return nil, nil
}

func (stubEngine) GetEpisodes(context.Context, []string, int) ([]graph.Episode, error) {
	return nil, nil
}

func (stubEngine) DeleteEpisode(context.Context, string) error { return nil }

func (stubEngine) GetFact(context.Context, string) (graph.Fact, error) {
	return graph.Fact{}, nil
}

func (stubEngine) DeleteFact(context.Context, string) error { return nil }

func (stubEngine) ClearGroups(context.Context, []string) error { return nil }

func (stubEngine) Ping(context.Context) error { return nil }

func (stubEngine) Close() error { return nil }

var _ = Describe("Service", func() {
	Describe("NewService", func() {
		It("returns an error when build func is nil", func() {
			_, err := graph.NewService(graph.ServiceConfig{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("build func is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := graph.NewService(graph.ServiceConfig{
				Build: func(context.Context) (graph.Engine, error) { return stubEngine{}, nil },
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("defaults the semaphore limit", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build:  func(context.Context) (graph.Engine, error) { return stubEngine{}, nil },
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.SemaphoreLimit()).To(Equal(graph.DefaultSemaphoreLimit))
		})
	})

	Describe("GetClient", func() {
		It("does not construct the engine before first demand", func() {
			var built atomic.Int32
			_, err := graph.NewService(graph.ServiceConfig{
				Build: func(context.Context) (graph.Engine, error) {
					built.Add(1)
					return stubEngine{}, nil
				},
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(built.Load()).To(BeZero())
		})

		It("constructs exactly once under heavy concurrency", func() {
			var built atomic.Int32
			s, err := graph.NewService(graph.ServiceConfig{
				Build: func(context.Context) (graph.Engine, error) {
					built.Add(1)
					time.Sleep(100 * time.Millisecond)
					return stubEngine{}, nil
				},
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			var wg sync.WaitGroup
			errs := make([]error, 50)
			for i := range 50 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = s.GetClient(context.Background())
				}(i)
			}
			wg.Wait()

			Expect(built.Load()).To(Equal(int32(1)))
			for _, err := range errs {
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns the same handle on every call", func() {
			engine := stubEngine{}
			s, err := graph.NewService(graph.ServiceConfig{
				Build:  func(context.Context) (graph.Engine, error) { return engine, nil },
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			first, err := s.GetClient(context.Background())
			Expect(err).NotTo(HaveOccurred())
			second, err := s.GetClient(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(BeIdenticalTo(second))
		})

		It("treats construction failure as sticky", func() {
			var built atomic.Int32
			s, err := graph.NewService(graph.ServiceConfig{
				Build: func(context.Context) (graph.Engine, error) {
					built.Add(1)
					return nil, errors.New("database unreachable")
				},
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = s.GetClient(context.Background())
			Expect(err).To(MatchError(ContainSubstring("database unreachable")))

			_, err = s.GetClient(context.Background())
			Expect(err).To(MatchError(ContainSubstring("database unreachable")))

			Expect(built.Load()).To(Equal(int32(1)))
		})

		It("does not latch the first caller's cancellation as the sticky outcome", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build: func(ctx context.Context) (graph.Engine, error) {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(50 * time.Millisecond):
						return stubEngine{}, nil
					}
				},
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			cancelled, cancel := context.WithCancel(context.Background())
			cancel()

			engine, err := s.GetClient(cancelled)
			Expect(err).NotTo(HaveOccurred())
			Expect(engine).NotTo(BeNil())

			engine, err = s.GetClient(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(engine).NotTo(BeNil())
		})
	})

	Describe("AcquirePermit", func() {
		It("bounds concurrent holders to the configured limit", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build:          func(context.Context) (graph.Engine, error) { return stubEngine{}, nil },
				SemaphoreLimit: 2,
				Logger:         logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			var inFlight, peak atomic.Int32
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					release, err := s.AcquirePermit(context.Background())
					Expect(err).NotTo(HaveOccurred())
					defer release()

					n := inFlight.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(20 * time.Millisecond)
					inFlight.Add(-1)
				}()
			}
			wg.Wait()

			Expect(peak.Load()).To(BeNumerically("<=", 2))
			Expect(s.InFlight()).To(BeZero())
		})

		It("aborts on context cancellation when the pool is exhausted", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build:          func(context.Context) (graph.Engine, error) { return stubEngine{}, nil },
				SemaphoreLimit: 1,
				Logger:         logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			release, err := s.AcquirePermit(context.Background())
			Expect(err).NotTo(HaveOccurred())
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err = s.AcquirePermit(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("WithClient", func() {
		It("runs the callback under a held permit", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build:          func(context.Context) (graph.Engine, error) { return stubEngine{}, nil },
				SemaphoreLimit: 1,
				Logger:         logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = s.WithClient(context.Background(), func(_ context.Context, engine graph.Engine) error {
				Expect(engine).NotTo(BeNil())
				Expect(s.InFlight()).To(Equal(1))
				return engine.Ping(context.Background())
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.InFlight()).To(BeZero())
		})

		It("surfaces construction errors without touching the permit pool", func() {
			s, err := graph.NewService(graph.ServiceConfig{
				Build:  func(context.Context) (graph.Engine, error) { return nil, graph.ErrUnreachableBackend },
				Logger: logger.Nop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = s.WithClient(context.Background(), func(context.Context, graph.Engine) error { return nil })
			Expect(err).To(MatchError(graph.ErrUnreachableBackend))
			Expect(s.InFlight()).To(BeZero())
		})
	})
})
