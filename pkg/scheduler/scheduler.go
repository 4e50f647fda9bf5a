package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/tucocasino/internal/logging"
)

// TaskFunc is one run of a periodic job
type TaskFunc func(context.Context) error

type job struct {
	name  string
	every time.Duration
	fn    TaskFunc
}

// Scheduler runs each registered job on its own ticker, once at start and
// then every interval until stopped
type Scheduler struct {
	mu   sync.Mutex
	jobs []job
	stop context.CancelFunc // nil while idle
	done sync.WaitGroup
	log  *logging.Logger
}

// NewScheduler creates an idle scheduler
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &Scheduler{log: logger.WithField("component", "scheduler")}
}

// AddTask registers fn to run every interval. Jobs added while running
// start with the next Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn TaskFunc) {
	s.mu.Lock()
	s.jobs = append(s.jobs, job{name: name, every: interval, fn: fn})
	s.mu.Unlock()
}

// Tasks lists the registered job names in registration order
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start launches every job. Calling it again while running does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}

	ctx, s.stop = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.done.Add(1)
		go s.loop(ctx, j)
	}
	s.log.Info("Scheduler started with %d tasks", len(s.jobs))
}

// Stop cancels the jobs and waits for in-flight runs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}

	stop()
	s.done.Wait()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.done.Done()

	tick := time.NewTicker(j.every)
	defer tick.Stop()

	for {
		s.log.Debug("Running task %s", j.name)
		if err := j.fn(ctx); err != nil {
			s.log.Error("Task %s failed: %v", j.name, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}
