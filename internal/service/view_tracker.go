package service

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// ViewTracker tells a load whether the view that requested it still wants
// the result. Each Mount bumps a generation for its key; a ticket from an
// older generation is stale.
type ViewTracker struct {
	mu          sync.Mutex
	generations map[string]uint64
}

// NewViewTracker returns an empty tracker.
func NewViewTracker() *ViewTracker {
	return &ViewTracker{generations: make(map[string]uint64)}
}

// ViewTicket is issued by Mount and checked before applying a load.
type ViewTicket struct {
	tracker    *ViewTracker
	key        string
	generation uint64
	ctx        context.Context
}

// Mount starts a new load for viewKey, invalidating earlier tickets for it.
func (t *ViewTracker) Mount(ctx context.Context, viewKey string) ViewTicket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generations[viewKey]++
	return ViewTicket{tracker: t, key: viewKey, generation: t.generations[viewKey], ctx: ctx}
}

// Unmount invalidates every outstanding ticket for viewKey.
func (t *ViewTracker) Unmount(viewKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.generations[viewKey]++
}

// Current reports whether the ticket still belongs to the latest mount and
// its request is still alive.
func (v ViewTicket) Current() bool {
	if v.tracker == nil {
		return true
	}
	if v.ctx != nil && v.ctx.Err() != nil {
		return false
	}
	v.tracker.mu.Lock()
	defer v.tracker.mu.Unlock()
	return v.tracker.generations[v.key] == v.generation
}

// Check returns ErrStaleView when the ticket is no longer current.
func (v ViewTicket) Check() error {
	if !v.Current() {
		return appErrors.ErrStaleView
	}
	return nil
}
