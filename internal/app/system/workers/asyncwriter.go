// internal/app/system/workers/asyncwriter.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrStopped is reported for jobs submitted after Stop.
	ErrStopped = errors.New("workers: async writer stopped")
	// ErrQueueFull is reported when the queue has no room for a job.
	ErrQueueFull = errors.New("workers: async writer queue full")
)

// Job is a unit of background write work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Ticket tracks one submitted job. Done is closed when the job finished,
// failed or was rejected; Err is valid after that.
type Ticket struct {
	ID   string
	Name string

	done chan struct{}
	err  error
}

func newTicket(name string) *Ticket {
	return &Ticket{ID: uuid.NewString(), Name: name, done: make(chan struct{})}
}

// Done returns a channel closed on completion.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Err returns the job's outcome. It returns nil until Done is closed.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the job completes or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Ticket) finish(err error) {
	t.err = err
	close(t.done)
}

// AsyncConfig tunes an AsyncWriter.
type AsyncConfig struct {
	Workers    int           // default 2
	QueueSize  int           // default 64
	JobTimeout time.Duration // default 30s
	// OnComplete, when set, is called from the worker goroutine after every
	// job that ran.
	OnComplete func(*Ticket)
}

type queued struct {
	job    Job
	ticket *Ticket
}

// AsyncWriter runs write jobs off the request path. Submit returns at once;
// the outcome arrives on the returned Ticket.
type AsyncWriter struct {
	log *zap.Logger
	cfg AsyncConfig

	mu      sync.RWMutex
	stopped bool
	queue   chan queued
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewAsyncWriter creates an async writer. Call Start before submitting.
func NewAsyncWriter(logger *zap.Logger, cfg AsyncConfig) *AsyncWriter {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	return &AsyncWriter{
		log:    logger,
		cfg:    cfg,
		queue:  make(chan queued, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (w *AsyncWriter) Start() {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	w.log.Info("async writer started",
		zap.Int("workers", w.cfg.Workers),
		zap.Int("queue_size", w.cfg.QueueSize))
}

// Stop rejects new jobs, lets the workers finish everything already queued
// and waits for them.
func (w *AsyncWriter) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("async writer stopped")
}

// Submit enqueues job without blocking.
func (w *AsyncWriter) Submit(job Job) *Ticket {
	t := newTicket(job.Name)

	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		t.finish(ErrStopped)
		return t
	}
	select {
	case w.queue <- queued{job: job, ticket: t}:
	default:
		w.log.Warn("async writer queue full, job dropped", zap.String("job", job.Name))
		t.finish(ErrQueueFull)
	}
	return t
}

func (w *AsyncWriter) run() {
	defer w.wg.Done()

	for {
		select {
		case q := <-w.queue:
			w.execute(q)
		case <-w.stopCh:
			for {
				select {
				case q := <-w.queue:
					w.execute(q)
				default:
					return
				}
			}
		}
	}
}

func (w *AsyncWriter) execute(q queued) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := runJob(ctx, q.job)
	q.ticket.finish(err)

	if err != nil {
		w.log.Error("async job failed",
			zap.String("job", q.job.Name),
			zap.String("ticket", q.ticket.ID),
			zap.Error(err))
	} else {
		w.log.Debug("async job completed",
			zap.String("job", q.job.Name),
			zap.String("ticket", q.ticket.ID),
			zap.Duration("elapsed", time.Since(start)))
	}
	if w.cfg.OnComplete != nil {
		w.cfg.OnComplete(q.ticket)
	}
}

func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workers: job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
