package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

func TestNewerMountMakesOlderTicketStale(t *testing.T) {
	tracker := NewViewTracker()
	first := tracker.Mount(context.Background(), "admin:d1")
	assert.NoError(t, first.Check())

	second := tracker.Mount(context.Background(), "admin:d1")
	assert.ErrorIs(t, first.Check(), appErrors.ErrStaleView)
	assert.NoError(t, second.Check())

	other := tracker.Mount(context.Background(), "admin:d2")
	assert.NoError(t, second.Check())
	assert.NoError(t, other.Check())
}

func TestUnmountInvalidatesTicket(t *testing.T) {
	tracker := NewViewTracker()
	ticket := tracker.Mount(context.Background(), "student")
	tracker.Unmount("student")
	assert.False(t, ticket.Current())
}

func TestCancelledContextMakesTicketStale(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ticket := NewViewTracker().Mount(ctx, "lecturer")
	cancel()
	assert.ErrorIs(t, ticket.Check(), appErrors.ErrStaleView)
}

func TestZeroTicketIsAlwaysCurrent(t *testing.T) {
	assert.True(t, ViewTicket{}.Current())
}
