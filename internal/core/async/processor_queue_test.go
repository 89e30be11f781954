package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRunner struct {
	mu          sync.Mutex
	delay       time.Duration
	processed   []uuid.UUID
	reprocessed []uuid.UUID
}

func (s *stubRunner) ProcessDocument(_ context.Context, id uuid.UUID) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append(s.processed, id)
	return nil
}

func (s *stubRunner) Reprocess(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reprocessed = append(s.reprocessed, id)
	return nil
}

func TestQueue_ProcessesJobs(t *testing.T) {
	runner := &stubRunner{}
	q := NewProcessorQueue(runner, testLogger(), WithWorkers(2), WithQueueSize(8))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: id}))
	}
	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: ids[0], Reprocess: true}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Len(t, runner.processed, 3)
	assert.Len(t, runner.reprocessed, 1)
	assert.Equal(t, ids[0], runner.reprocessed[0])
}

func TestQueue_EnqueueAfterShutdownIsNoop(t *testing.T) {
	runner := &stubRunner{}
	q := NewProcessorQueue(runner, testLogger(), WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	require.NoError(t, q.Enqueue(context.Background(), Job{DocumentID: uuid.New()}))

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Empty(t, runner.processed)
}

func TestQueue_ShutdownCompletesUnderBackpressure(t *testing.T) {
	// A tiny channel with a slow worker keeps enqueuers blocked in their
	// send; Shutdown must still drain and return.
	runner := &stubRunner{delay: 5 * time.Millisecond}
	q := NewProcessorQueue(runner, testLogger(), WithWorkers(1), WithQueueSize(1))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Enqueue(context.Background(), Job{DocumentID: uuid.New()})
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	wg.Wait()

	require.NoError(t, ctx.Err())
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.NotEmpty(t, runner.processed)
}

func TestQueue_ShutdownIsIdempotent(t *testing.T) {
	q := NewProcessorQueue(&stubRunner{}, testLogger(), WithWorkers(1))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)
	q.Shutdown(ctx)
}
