package ingest_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/graphmemco/graphmem/pkg/eventstream"
	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/ingest"
	"github.com/graphmemco/graphmem/pkg/queue"
)

// recordingEngine captures AddEpisode calls and fails on demand.
type recordingEngine struct {
	mu       sync.Mutex
	episodes []graph.Episode
	schemas  [][]graph.EntityType
	fail     error
}

func (r *recordingEngine) AddEpisode(_ context.Context, episode graph.Episode, entityTypes []graph.EntityType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.episodes = append(r.episodes, episode)
	r.schemas = append(r.schemas, entityTypes)
	return r.fail
}

func (r *recordingEngine) SearchNodes(context.Context, string, []string, int, []string) ([]graph.Node, error) {
	return nil, nil
}

func (r *recordingEngine) SearchFacts(context.Context, string, []string, int, string) ([]graph.Fact, error) {
	return nil, nil
}

func (r *recordingEngine) GetEpisodes(context.Context, []string, int) ([]graph.Episode, error) {
	return nil, nil
}

func (r *recordingEngine) DeleteEpisode(context.Context, string) error { return nil }

func (r *recordingEngine) GetFact(context.Context, string) (graph.Fact, error) {
	return graph.Fact{}, nil
}

func (r *recordingEngine) DeleteFact(context.Context, string) error { return nil }

func (r *recordingEngine) ClearGroups(context.Context, []string) error { return nil }

func (r *recordingEngine) Ping(context.Context) error { return nil }

func (r *recordingEngine) Close() error { return nil }

// recordingPublisher captures published events and fails on demand.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.EpisodeIngestedEvent
	fail   error
}

func (r *recordingPublisher) PublishEpisode(_ context.Context, event *eventstream.EpisodeIngestedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.fail
}

func (r *recordingPublisher) Close() error { return nil }

func newService(engine graph.Engine, buildErr error) *graph.Service {
	service, err := graph.NewService(graph.ServiceConfig{
		Build: func(context.Context) (graph.Engine, error) {
			return engine, buildErr
		},
		Logger: zap.NewNop(),
	})
	Expect(err).NotTo(HaveOccurred())
	return service
}

var _ = Describe("Executor", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewExecutor", func() {
		It("requires a service", func() {
			_, err := ingest.NewExecutor(ingest.Config{Logger: zap.NewNop()})
			Expect(err).To(MatchError(ContainSubstring("service is required")))
		})

		It("requires a logger", func() {
			_, err := ingest.NewExecutor(ingest.Config{Service: newService(&recordingEngine{}, nil)})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})
	})

	Describe("Execute", func() {
		It("maps the task onto an episode write", func() {
			engine := &recordingEngine{}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service: newService(engine, nil),
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			refTime := time.Now().UTC().Add(-time.Hour)
			schema := []graph.EntityType{{Name: "Person", Description: "a human"}}
			err = executor.Execute(ctx, queue.Task{
				GroupID:           "group-a",
				Name:              "meeting notes",
				Content:           "Alice met Bob",
				Source:            graph.SourceMessage,
				SourceDescription: "standup transcript",
				EntityTypes:       schema,
				ReferenceTime:     refTime,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(engine.episodes).To(HaveLen(1))
			episode := engine.episodes[0]
			Expect(episode.UUID).NotTo(BeEmpty())
			Expect(episode.Name).To(Equal("meeting notes"))
			Expect(episode.Content).To(Equal("Alice met Bob"))
			Expect(episode.Source).To(Equal(graph.SourceMessage))
			Expect(episode.SourceDescription).To(Equal("standup transcript"))
			Expect(episode.GroupID).To(Equal("group-a"))
			Expect(episode.ReferenceTime).To(Equal(refTime))
			Expect(engine.schemas[0]).To(Equal(schema))
		})

		It("keeps a caller-pinned episode UUID", func() {
			engine := &recordingEngine{}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service: newService(engine, nil),
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = executor.Execute(ctx, queue.Task{GroupID: "group-a", UUID: "pinned"})
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.episodes[0].UUID).To(Equal("pinned"))
		})

		It("returns the engine's error", func() {
			engine := &recordingEngine{fail: fmt.Errorf("write rejected")}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service: newService(engine, nil),
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = executor.Execute(ctx, queue.Task{GroupID: "group-a"})
			Expect(err).To(MatchError(ContainSubstring("write rejected")))
		})

		It("returns the construction error when the engine cannot be built", func() {
			executor, err := ingest.NewExecutor(ingest.Config{
				Service: newService(nil, fmt.Errorf("bad credentials")),
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = executor.Execute(ctx, queue.Task{GroupID: "group-a"})
			Expect(err).To(MatchError(ContainSubstring("bad credentials")))
		})
	})

	Describe("event publishing", func() {
		It("emits a succeeded event after a successful write", func() {
			engine := &recordingEngine{}
			publisher := &recordingPublisher{}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service:   newService(engine, nil),
				Publisher: publisher,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			enqueued := time.Now().UTC()
			err = executor.Execute(ctx, queue.Task{
				GroupID:    "group-a",
				Name:       "meeting notes",
				Source:     graph.SourceText,
				EnqueuedAt: enqueued,
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0]
			Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
			Expect(event.EventType).To(Equal(eventstream.EventTypeEpisodeIngested))
			Expect(event.EventID).NotTo(BeEmpty())
			Expect(event.GroupID).To(Equal("group-a"))
			Expect(event.Episode.UUID).To(Equal(engine.episodes[0].UUID))
			Expect(event.Episode.Name).To(Equal("meeting notes"))
			Expect(event.Episode.EnqueuedAt).To(Equal(enqueued))
			Expect(event.Outcome).To(Equal(eventstream.OutcomeSucceeded))
			Expect(event.Error).To(BeEmpty())
		})

		It("emits a failed event carrying the error", func() {
			publisher := &recordingPublisher{}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service:   newService(&recordingEngine{fail: fmt.Errorf("write rejected")}, nil),
				Publisher: publisher,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = executor.Execute(ctx, queue.Task{GroupID: "group-a"})
			Expect(err).To(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Outcome).To(Equal(eventstream.OutcomeFailed))
			Expect(publisher.events[0].Error).To(ContainSubstring("write rejected"))
		})

		It("never fails ingestion on a publish failure", func() {
			publisher := &recordingPublisher{fail: fmt.Errorf("broker down")}
			executor, err := ingest.NewExecutor(ingest.Config{
				Service:   newService(&recordingEngine{}, nil),
				Publisher: publisher,
				Logger:    zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = executor.Execute(ctx, queue.Task{GroupID: "group-a"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("works without a publisher", func() {
			executor, err := ingest.NewExecutor(ingest.Config{
				Service: newService(&recordingEngine{}, nil),
				Logger:  zap.NewNop(),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(executor.Execute(ctx, queue.Task{GroupID: "group-a"})).To(Succeed())
		})
	})

	It("satisfies queue.ExecFunc", func() {
		executor, err := ingest.NewExecutor(ingest.Config{
			Service: newService(&recordingEngine{}, nil),
			Logger:  zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		var _ queue.ExecFunc = executor.Execute
	})
})
