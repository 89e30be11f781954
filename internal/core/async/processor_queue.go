package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
)

// Runner is the slice of the pipeline the queue drives.
type Runner interface {
	ProcessDocument(ctx context.Context, docID uuid.UUID) error
	Reprocess(ctx context.Context, docID uuid.UUID) error
}

// ProcessorQueue fans jobs out to a fixed pool of workers. Enqueue blocks
// when the channel is full; Shutdown drains in-flight jobs.
type ProcessorQueue struct {
	proc    Runner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	senders sync.WaitGroup
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc Runner, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 1; i <= q.workers; i++ {
			q.wg.Add(1)
			go q.work(i)
		}
	})
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Info("queue.worker.started", "worker_id", workerID)
	for job := range q.ch {
		q.runJob(workerID, job)
	}
	q.logger.Info("queue.worker.stopped", "worker_id", workerID)
}

// runJob executes one job under the processing timeout. The parent
// context is never used: an HTTP request that enqueued the job may be
// long gone by the time a worker picks it up.
func (q *ProcessorQueue) runJob(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	var err error
	if job.Reprocess {
		err = q.proc.Reprocess(ctx, job.DocumentID)
	} else {
		err = q.proc.ProcessDocument(ctx, job.DocumentID)
	}

	attrs := []any{
		"worker_id", workerID,
		"document_id", job.DocumentID,
		"trace_id", job.TraceID,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if !job.SubmittedAt.IsZero() {
		attrs = append(attrs, "wait_ms", start.Sub(job.SubmittedAt).Milliseconds())
	}
	if err != nil {
		q.logger.Error("queue.job.failed", append(attrs, "error", err)...)
		return
	}
	q.logger.Info("queue.job.done", attrs...)
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.rejected_shutdown", "document_id", job.DocumentID)
		return nil
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	// A full channel blocks here, outside the mutex, so Shutdown is never
	// wedged behind a backpressured sender. Workers keep draining until
	// every registered sender has finished.
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.backpressure", "document_id", job.DocumentID)
		q.ch <- job
	}
	q.logger.Info("queue.enqueued", "document_id", job.DocumentID, "reprocess", job.Reprocess, "trace_id", job.TraceID)
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	// In-flight Enqueue calls must land before the channel closes.
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
