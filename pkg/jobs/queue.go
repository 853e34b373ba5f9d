package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when the buffer has no room.
	ErrQueueFull = errors.New("jobs: queue full")
	// ErrQueueStopped is returned by Submit before Start or after Stop.
	ErrQueueStopped = errors.New("jobs: queue stopped")
)

// Handler processes one item.
type Handler[T any] func(context.Context, T) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue fans submitted items out to a fixed set of goroutines. Submit never
// blocks; Stop drains whatever is still buffered before returning.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     QueueConfig

	items   chan T
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewQueue builds a queue named for logging around handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		items:   make(chan T, cfg.BufferSize),
	}
}

// Start launches the workers. ctx is handed to the handler; cancelling it
// aborts in-progress retries but buffered items are still offered.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.started = true
	q.cfg.Logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.cfg.Workers)
}

// Submit buffers item for processing.
func (q *Queue[T]) Submit(item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.started || q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len reports how many items are waiting.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Stop refuses new items, lets the workers drain the buffer and waits for
// them to exit.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.items)
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Sugar().Infow("queue stopped", "queue", q.name)
}

func (q *Queue[T]) worker(ctx context.Context) {
	defer q.wg.Done()
	for item := range q.items {
		q.process(ctx, item)
	}
}

func (q *Queue[T]) process(ctx context.Context, item T) {
	for attempt := 0; ; attempt++ {
		err := q.handler(ctx, item)
		if err == nil {
			return
		}
		if attempt >= q.cfg.MaxRetries || ctx.Err() != nil {
			q.cfg.Logger.Sugar().Errorw("job dropped", "queue", q.name, "attempts", attempt+1, "error", err)
			return
		}
		q.cfg.Logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "attempt", attempt+1, "error", err)

		timer := time.NewTimer(q.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}
