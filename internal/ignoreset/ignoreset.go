// Package ignoreset implements the process-wide dedup cache used to
// break gossip loops and give POST /block and POST /tx idempotent
// semantics: transaction ids, block independent hashes, and block data
// segment hashes all share one set, keyed by their raw bytes.
package ignoreset

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCapacity bounds memory use; the set only needs to cover
// recently-seen ids, not the whole history of the chain.
const DefaultCapacity = 1 << 20

// Set is a bounded, concurrency-safe dedup cache with an atomic
// compare-and-insert primitive. The zero value is not usable; use New.
type Set struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// New creates a Set bounded to capacity entries.
func New(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New(capacity)
	if err != nil {
		// lru.New only errors on a non-positive size, which we just
		// guarded against.
		panic(err)
	}
	return &Set{cache: c}
}

// Contains reports whether id has already been seen.
func (s *Set) Contains(id [32]byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Contains(id)
}

// Insert unconditionally records id as seen.
func (s *Set) Insert(id [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(id, struct{}{})
}

// ContainsOrInsert is an atomic compare-and-insert: it reports whether id was already present and, if not,
// inserts it in the same critical section. Concurrent callers racing on
// the same id observe exactly one "false" (the winner) and any number of
// "true" (losers).
func (s *Set) ContainsOrInsert(id [32]byte) (alreadyPresent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Contains(id) {
		return true
	}
	s.cache.Add(id, struct{}{})
	return false
}
