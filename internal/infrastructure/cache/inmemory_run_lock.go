package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
)

// lockHolder is the current owner of an in-memory lock
type lockHolder struct {
	token     string
	expiresAt time.Time
}

// InMemoryRunLock implements RunLock with a process-local map.
// This is suitable for single-instance deployments and testing
type InMemoryRunLock struct {
	mu      sync.Mutex
	holders map[string]lockHolder
	clock   func() time.Time
}

// NewInMemoryRunLock creates a new in-memory run-lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		holders: make(map[string]lockHolder),
		clock:   time.Now,
	}
}

// TryAcquire takes the lock unless a live holder exists. An expired holder is replaced.
func (l *InMemoryRunLock) TryAcquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if h, ok := l.holders[key]; ok && now.Before(h.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.holders[key] = lockHolder{token: token, expiresAt: now.Add(ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() { l.release(key, token) })
	}
	return release, true, nil
}

// release deletes the key only if token still owns it
func (l *InMemoryRunLock) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.holders[key]; ok && h.token == token {
		delete(l.holders, key)
	}
}

// IsHeld reports whether key has a live holder
func (l *InMemoryRunLock) IsHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holders[key]
	return ok && l.clock().Before(h.expiresAt)
}

// Ensure InMemoryRunLock implements RunLock
var _ appinventory.RunLock = (*InMemoryRunLock)(nil)
