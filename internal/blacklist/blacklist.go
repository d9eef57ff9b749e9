// Package blacklist tracks peer bans. A peer with an unexpired ban is
// rejected at the POST /block entry stage.
package blacklist

import (
	"sync"
	"time"

	"github.com/meshchain/meshnode/internal/types"
)

// Blacklist is a concurrency-safe peer -> ban-expiry map.
type Blacklist struct {
	mu   sync.RWMutex
	bans map[types.Peer]time.Time
}

// New creates an empty Blacklist.
func New() *Blacklist {
	return &Blacklist{bans: make(map[types.Peer]time.Time)}
}

// IsBanned reports whether peer currently has an unexpired ban.
func (b *Blacklist) IsBanned(peer types.Peer, now time.Time) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	exp, ok := b.bans[peer]
	return ok && now.Before(exp)
}

// Ban bans peer for duration, starting at now. A later call extends (or
// shortens) the ban rather than stacking it.
func (b *Blacklist) Ban(peer types.Peer, now time.Time, duration time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bans[peer] = now.Add(duration)
}

// Sweep removes expired entries; callers may run this periodically to
// bound memory. It is never required for correctness since IsBanned
// already checks expiry.
func (b *Blacklist) Sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for p, exp := range b.bans {
		if !now.Before(exp) {
			delete(b.bans, p)
		}
	}
}
