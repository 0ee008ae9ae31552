package queue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/graphmemco/graphmem/pkg/logger"
	"github.com/graphmemco/graphmem/pkg/queue"
)

// recorder collects executed task names in call order, optionally delaying
// or failing per task.
type recorder struct {
	mu    sync.Mutex
	names []string

	delay time.Duration
	fail  map[string]error

	inFlight    int
	maxInFlight int
}

func newRecorder() *recorder {
	return &recorder{fail: make(map[string]error)}
}

func (r *recorder) exec(_ context.Context, task queue.Task) error {
	r.mu.Lock()
	r.inFlight++
	if r.inFlight > r.maxInFlight {
		r.maxInFlight = r.inFlight
	}
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	r.inFlight--
	r.names = append(r.names, task.Name)
	err := r.fail[task.Name]
	r.mu.Unlock()

	return err
}

func (r *recorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *recorder) peakConcurrency() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxInFlight
}

func task(group, name string) queue.Task {
	return queue.Task{GroupID: group, Name: name, Content: name}
}

var _ = Describe("Manager", func() {
	var (
		rec *recorder
		m   *queue.Manager
	)

	BeforeEach(func() {
		rec = newRecorder()

		var err error
		m, err = queue.NewManager(queue.Config{
			Exec:   rec.exec,
			Logger: logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewManager", func() {
		It("returns an error when exec func is nil", func() {
			_, err := queue.NewManager(queue.Config{Logger: logger.Nop()})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("exec func is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := queue.NewManager(queue.Config{Exec: rec.exec})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})
	})

	Describe("Submit", func() {
		It("returns the task's queue position", func() {
			rec.delay = 50 * time.Millisecond

			Expect(m.Submit(task("a", "first"))).To(Equal(1))
			Expect(m.Submit(task("a", "second"))).To(BeNumerically(">=", 1))
		})

		It("does not block on task execution", func() {
			rec.delay = 200 * time.Millisecond

			start := time.Now()
			m.Submit(task("a", "slow"))
			Expect(time.Since(start)).To(BeNumerically("<", 100*time.Millisecond))
		})
	})

	Describe("per-group ordering", func() {
		It("executes tasks of one group in strict submission order", func() {
			for i := range 20 {
				m.Submit(task("a", fmt.Sprintf("task-%02d", i)))
			}

			Eventually(func() int { return len(rec.recorded()) }).Should(Equal(20))

			names := rec.recorded()
			for i := range 20 {
				Expect(names[i]).To(Equal(fmt.Sprintf("task-%02d", i)))
			}
		})

		It("never overlaps executions within a group", func() {
			rec.delay = 10 * time.Millisecond

			for i := range 10 {
				m.Submit(task("a", fmt.Sprintf("task-%d", i)))
			}

			Eventually(func() int { return len(rec.recorded()) }, 2*time.Second).Should(Equal(10))
			Expect(rec.peakConcurrency()).To(Equal(1))
		})
	})

	Describe("cross-group concurrency", func() {
		It("runs workers for different groups in parallel", func() {
			rec.delay = 100 * time.Millisecond

			m.Submit(task("x", "x-1"))
			m.Submit(task("y", "y-1"))

			Eventually(rec.peakConcurrency, time.Second).Should(Equal(2))
		})
	})

	Describe("duplicate worker prevention", func() {
		It("spawns exactly one worker under a submission burst", func() {
			for i := range 100 {
				m.Submit(task("a", fmt.Sprintf("task-%03d", i)))
			}

			Eventually(func() int { return len(rec.recorded()) }, 5*time.Second).Should(Equal(100))

			// Strictly sequential execution implies a single live worker.
			Expect(rec.peakConcurrency()).To(Equal(1))

			names := rec.recorded()
			for i := range 100 {
				Expect(names[i]).To(Equal(fmt.Sprintf("task-%03d", i)))
			}
		})
	})

	Describe("drain to idle", func() {
		It("retires the worker and empties the queue after draining", func() {
			m.Submit(task("a", "only"))

			Eventually(func() bool { return m.IsWorkerActive("a") }).Should(BeFalse())
			Expect(m.QueueDepth("a")).To(Equal(0))
		})

		It("spawns a fresh worker for a group that drained earlier", func() {
			m.Submit(task("a", "first"))
			Eventually(func() bool { return m.IsWorkerActive("a") }).Should(BeFalse())

			m.Submit(task("a", "second"))
			Eventually(func() []string { return rec.recorded() }).Should(Equal([]string{"first", "second"}))
			Eventually(func() bool { return m.IsWorkerActive("a") }).Should(BeFalse())
		})
	})

	Describe("failure isolation", func() {
		It("continues the group after a failed task", func() {
			rec.fail["bad"] = errors.New("ingest blew up")

			m.Submit(task("a", "bad"))
			m.Submit(task("a", "good"))

			Eventually(func() []string { return rec.recorded() }).Should(Equal([]string{"bad", "good"}))
			Eventually(func() bool { return m.IsWorkerActive("a") }).Should(BeFalse())
		})

		It("does not let one group's failure touch another group", func() {
			rec.fail["bad"] = errors.New("ingest blew up")

			m.Submit(task("a", "bad"))
			m.Submit(task("b", "fine"))

			Eventually(func() []string { return rec.recorded() }).Should(ContainElements("bad", "fine"))
			Eventually(func() bool { return m.IsWorkerActive("b") }).Should(BeFalse())
		})

		It("survives a panicking task", func() {
			panicExec := func(_ context.Context, t queue.Task) error {
				if t.Name == "boom" {
					panic("exploded")
				}
				return rec.exec(context.Background(), t)
			}

			pm, err := queue.NewManager(queue.Config{Exec: panicExec, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())

			pm.Submit(task("a", "boom"))
			pm.Submit(task("a", "after"))

			Eventually(func() []string { return rec.recorded() }).Should(Equal([]string{"after"}))
			Eventually(func() bool { return pm.IsWorkerActive("a") }).Should(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("reports queued groups with depth and worker state", func() {
			rec.delay = 100 * time.Millisecond

			m.Submit(task("a", "one"))
			m.Submit(task("a", "two"))

			statuses := m.Snapshot()
			Expect(statuses).NotTo(BeEmpty())
			Expect(statuses[0].GroupID).To(Equal("a"))
			Expect(statuses[0].WorkerActive).To(BeTrue())

			Eventually(func() []queue.GroupStatus { return m.Snapshot() }, 2*time.Second).Should(BeEmpty())
		})
	})

	Describe("combined scenario", func() {
		It("orders within groups, overlaps across groups, and drains to idle", func() {
			rec.delay = 30 * time.Millisecond

			Expect(m.Submit(task("A", "a-1"))).To(Equal(1))
			Expect(m.Submit(task("A", "a-2"))).To(BeNumerically(">=", 1))
			m.Submit(task("B", "b-1"))

			Eventually(func() int { return len(rec.recorded()) }, 2*time.Second).Should(Equal(3))

			names := rec.recorded()
			aFirst := -1
			aSecond := -1
			for i, n := range names {
				switch n {
				case "a-1":
					aFirst = i
				case "a-2":
					aSecond = i
				}
			}
			Expect(aFirst).To(BeNumerically("<", aSecond))

			Eventually(func() bool { return m.IsWorkerActive("A") }).Should(BeFalse())
			Eventually(func() bool { return m.IsWorkerActive("B") }).Should(BeFalse())
			Expect(m.QueueDepth("A")).To(Equal(0))
			Expect(m.QueueDepth("B")).To(Equal(0))
		})
	})
})
