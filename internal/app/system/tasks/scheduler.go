// internal/app/system/tasks/scheduler.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration // per run; defaults to Interval
	Run      func(ctx context.Context) error
}

// Scheduler runs each registered job on its own ticker until stopped.
// Runs of the same job never overlap.
type Scheduler struct {
	log    *zap.Logger
	jobs   []Job
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{log: logger, stopCh: make(chan struct{})}
}

// Add registers a job. Jobs with a non-positive interval are ignored. Add
// must be called before Start.
func (s *Scheduler) Add(job Job) {
	if job.Interval <= 0 {
		s.log.Info("scheduled job disabled", zap.String("job", job.Name))
		return
	}
	s.jobs = append(s.jobs, job)
}

// Start launches one goroutine per job.
func (s *Scheduler) Start() {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.run(job)
		s.log.Info("scheduled job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every job loop to exit and waits for in-flight runs.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(job)
		}
	}
}

func (s *Scheduler) runOnce(job Job) {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop cancels a long run instead of waiting out its timeout.
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := job.Run(ctx); err != nil {
		s.log.Error("scheduled job failed", zap.String("job", job.Name), zap.Error(err))
	}
}
