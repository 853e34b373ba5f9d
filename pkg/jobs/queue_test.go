package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesAndDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	q := NewQueue("test", func(_ context.Context, n int) error {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 16})

	q.Start(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Submit(i))
	}
	q.Stop()

	assert.Len(t, seen, 10)
	assert.ErrorIs(t, q.Submit(11), ErrQueueStopped)
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, string) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Submit("x"), ErrQueueStopped)
	q.Stop()
}

func TestQueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("test", func(context.Context, int) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Submit(1))
	<-started
	require.NoError(t, q.Submit(2))
	assert.ErrorIs(t, q.Submit(3), ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueRetriesFailedItems(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(context.Context, int) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 5, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Submit(1))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(context.Context, int) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("permanent")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.Submit(1))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}
