package service

import (
	"context"
	"sync"

	appErrors "github.com/noah-isme/lms-portal/pkg/errors"
)

// InFlightGuard suppresses a second submission of an intent while the first
// is still waiting on the upstream API.
type InFlightGuard interface {
	// Acquire claims key. It returns ErrInFlight when the key is already held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// EnrollKey identifies an enroll intent.
func EnrollKey(studentID, moduleID string) string {
	return "enroll:" + studentID + ":" + moduleID
}

// UnenrollKey identifies an unenroll intent.
func UnenrollKey(studentID, moduleID string) string {
	return "unenroll:" + studentID + ":" + moduleID
}

// ActionKey identifies any other intent against a single entity.
func ActionKey(action, entityID string) string {
	return action + ":" + entityID
}

// MemoryInFlight is a process-local InFlightGuard.
type MemoryInFlight struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryInFlight returns an empty in-process guard.
func NewMemoryInFlight() *MemoryInFlight {
	return &MemoryInFlight{held: make(map[string]struct{})}
}

// Acquire implements InFlightGuard.
func (g *MemoryInFlight) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, appErrors.ErrInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently claimed.
func (g *MemoryInFlight) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
