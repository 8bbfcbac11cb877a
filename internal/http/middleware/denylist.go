package middleware

import (
	"context"
	"sync"
	"time"
)

// TokenDenylist records revoked token ids until their natural expiry.
// JWTMiddleware consults it on every request, so logging out a token takes
// effect immediately.
type TokenDenylist interface {
	Deny(ctx context.Context, tokenID string, until time.Time) error
	IsDenied(ctx context.Context, tokenID string) (bool, error)
}

// memoryDenylist keeps revocations in process memory. It serves single-node
// deployments without redis; revocations do not survive a restart, but
// neither do they need to outlive the tokens' TTL by much.
type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDenylist() TokenDenylist {
	return &memoryDenylist{entries: make(map[string]time.Time)}
}

func (d *memoryDenylist) Deny(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tokenID] = until
	return nil
}

func (d *memoryDenylist) IsDenied(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	until, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}
