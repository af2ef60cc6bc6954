// Package async runs generations on a fixed pool of workers.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
)

// ErrClosed is returned by Enqueue once Shutdown has started.
var ErrClosed = errors.New("async: queue is shutting down")

// Job is one generation request.
type Job struct {
	ID          uuid.UUID
	Request     pipeline.Request
	SubmittedAt time.Time
}

// Outcome is delivered to the handler once a job finishes.
type Outcome struct {
	Job      Job
	Result   *pipeline.Result
	Err      error
	Duration time.Duration
}

// Generator is the part of the pipeline the workers drive.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Handler receives outcomes. It is called from worker goroutines and must be
// safe for concurrent use.
type Handler func(Outcome)

type Queue struct {
	gen     Generator
	handle  Handler
	logger  *slog.Logger
	parent  context.Context
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithContext sets the context every job derives from. Cancelling it aborts
// jobs in flight and fails the ones still queued.
func WithContext(ctx context.Context) Option {
	return func(q *Queue) {
		if ctx != nil {
			q.parent = ctx
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers immediately.
func NewQueue(gen Generator, handle Handler, logger *slog.Logger, opts ...Option) *Queue {
	q := &Queue{
		gen:     gen,
		handle:  handle,
		logger:  logger,
		parent:  context.Background(),
		workers: 2,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("async.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(q.parent, q.timeout)
	defer cancel()

	started := time.Now()
	res, err := q.gen.Generate(ctx, job.Request)
	out := Outcome{Job: job, Result: res, Err: err, Duration: time.Since(started)}

	if err != nil {
		q.logger.Error("async.job.failed", "worker_id", workerID, "job_id", job.ID,
			"report", job.Request.Report.Name, "err", err)
	} else {
		q.logger.Info("async.job.done", "worker_id", workerID, "job_id", job.ID,
			"report", job.Request.Report.Name, "variant", res.Variant,
			"duration_ms", out.Duration.Milliseconds())
	}

	if q.handle != nil {
		q.handle(out)
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("async.job.queued", "job_id", job.ID, "report", job.Request.Report.Name)
		return nil
	default:
	}

	q.logger.Warn("async.queue.full", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-done:
		q.logger.Debug("async.queue.drained")
	case <-ctx.Done():
		q.logger.Warn("async.queue.shutdown_timeout", "err", ctx.Err())
	}
}
