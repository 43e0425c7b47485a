package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentientiq/pulse/internal/domain"
)

// AsyncSink decouples the pipeline from sink latency: saves enqueue onto a
// bounded channel consumed by one background writer. When the queue is
// full the event is dropped and logged; analytics rows are best-effort and
// must never stall session processing.
type AsyncSink struct {
	inner  Sink
	queue  chan func(context.Context)
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewAsyncSink wraps inner with a queue of the given size and starts the
// writer goroutine.
func NewAsyncSink(inner Sink, queueSize int, logger *slog.Logger) *AsyncSink {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &AsyncSink{
		inner:  inner,
		queue:  make(chan func(context.Context), queueSize),
		cancel: cancel,
		logger: logger,
	}
	a.wg.Add(1)
	go a.writeLoop(ctx)
	return a
}

// SaveEmotionEvent queues the write; it never blocks.
func (a *AsyncSink) SaveEmotionEvent(_ context.Context, ev *domain.EmotionEvent) error {
	copied := *ev
	a.submit(func(ctx context.Context) {
		if err := a.inner.SaveEmotionEvent(ctx, &copied); err != nil {
			a.logger.Warn("emotion event write failed", "session_id", copied.SessionID, "error", err)
		}
	})
	return nil
}

// SaveInterventionEvent queues the write; it never blocks.
func (a *AsyncSink) SaveInterventionEvent(_ context.Context, ev *domain.InterventionEvent) error {
	copied := *ev
	a.submit(func(ctx context.Context) {
		if err := a.inner.SaveInterventionEvent(ctx, &copied); err != nil {
			a.logger.Warn("intervention event write failed", "id", copied.ID, "error", err)
		}
	})
	return nil
}

// EventCounts passes through to the underlying sink.
func (a *AsyncSink) EventCounts(ctx context.Context) (int64, int64, error) {
	return a.inner.EventCounts(ctx)
}

// PurgeOlderThan passes through to the underlying sink.
func (a *AsyncSink) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return a.inner.PurgeOlderThan(ctx, cutoff)
}

// Ping passes through to the underlying sink.
func (a *AsyncSink) Ping(ctx context.Context) error {
	return a.inner.Ping(ctx)
}

// Close stops the writer after draining queued writes, then closes the
// underlying sink.
func (a *AsyncSink) Close() error {
	close(a.queue)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		a.logger.Warn("async sink shutdown timeout, abandoning queued writes")
		a.cancel()
		<-done
	}
	return a.inner.Close()
}

func (a *AsyncSink) submit(write func(context.Context)) {
	defer func() {
		// Close may race with a late save from an evicting worker;
		// dropping the write matches the fire-and-forget contract.
		if recover() != nil {
			a.logger.Debug("write submitted after sink close, dropped")
		}
	}()
	select {
	case a.queue <- write:
	default:
		a.logger.Warn("analytics queue full, event dropped")
	}
}

func (a *AsyncSink) writeLoop(ctx context.Context) {
	defer a.wg.Done()
	for write := range a.queue {
		if ctx.Err() != nil {
			continue
		}
		write(ctx)
	}
}
