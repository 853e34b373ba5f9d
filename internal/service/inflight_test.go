package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

func TestMemoryInFlightRejectsSecondAcquire(t *testing.T) {
	g := NewMemoryInFlight()
	key := EnrollKey("stud-1", "m1")

	release, err := g.Acquire(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, g.Held(key))

	_, err = g.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, appErrors.ErrInFlight)

	other, err := g.Acquire(context.Background(), UnenrollKey("stud-1", "m1"))
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, g.Held(key))

	again, err := g.Acquire(context.Background(), key)
	require.NoError(t, err)
	again()
}

func TestMemoryInFlightConcurrentAcquireHasOneWinner(t *testing.T) {
	g := NewMemoryInFlight()
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.Acquire(context.Background(), ActionKey("assignLecturer", "m1")); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestMemoryInFlightHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryInFlight().Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "enroll:s:m", EnrollKey("s", "m"))
	assert.Equal(t, "unenroll:s:m", UnenrollKey("s", "m"))
	assert.Equal(t, "createModule:d1", ActionKey("createModule", "d1"))
}
