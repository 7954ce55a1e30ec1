package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler executes a job. A non-nil error schedules a retry until the
// attempt budget runs out.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c *QueueConfig) normalize() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Queue is an in-memory job dispatcher. Jobs live in a bounded channel
// consumed by a fixed set of worker goroutines; there is no persistence,
// a process restart drops anything still buffered.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	pending chan Job

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewQueue builds a stopped queue. Call Start before Enqueue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg.normalize()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		pending: make(chan Job, cfg.BufferSize),
	}
}

// Start spawns the workers. Calling Start on a running queue is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.consume(i + 1)
	}
	q.cfg.Logger.Info("job queue started",
		zap.String("queue", q.name),
		zap.Int("workers", q.cfg.Workers),
	)
}

// Stop signals the workers and blocks until they exit. Buffered jobs
// that have not been picked up yet are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("job queue stopped", zap.String("queue", q.name))
}

// Enqueue submits a job, blocking while the buffer is full. It fails
// when the queue is not running.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started, ctx := q.started, q.ctx
	q.mu.Unlock()
	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

func (q *Queue) consume(worker int) {
	defer q.wg.Done()
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.Int("worker", worker))
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.retry(job, err, log)
			}
		}
	}
}

func (q *Queue) retry(job Job, cause error, log *zap.Logger) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		log.Error("job dropped after exhausting retries",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Error(cause),
		)
		return
	}
	log.Warn("job failed, scheduling retry",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(cause),
	)
	go func() {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				log.Error("failed to requeue job", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}
