// Package mempool holds pending transactions awaiting mining. Admission
// is serialized so that two concurrent tx posts can't both pass a
// near-limit size check.
package mempool

import (
	"errors"
	"sync"

	"github.com/meshchain/meshnode/internal/types"
)

// ErrFull is returned by TryAdd when inserting tx would push the total
// waiting-data size over the configured limit.
var ErrFull = errors.New("mempool: waiting txs exceed data size limit")

// Mempool is a concurrency-safe set of pending transactions keyed by id,
// with an associated running total of payload bytes.
type Mempool struct {
	mu         sync.RWMutex
	byID       map[[32]byte]*types.TX
	totalBytes int
}

// New creates an empty Mempool.
func New() *Mempool {
	return &Mempool{byID: make(map[[32]byte]*types.TX)}
}

// TryAdd inserts tx if doing so would keep the total payload size at or
// below limit. enforceLimit is false before fork height 1.8: the insert
// always succeeds in that case. The check and the insert happen under
// the same lock so two near-limit admissions cannot both pass.
func (m *Mempool) TryAdd(tx *types.TX, enforceLimit bool, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[tx.ID]; exists {
		return nil
	}
	if enforceLimit && m.totalBytes+tx.ByteSize() > limit {
		return ErrFull
	}
	m.byID[tx.ID] = tx
	m.totalBytes += tx.ByteSize()
	return nil
}

// Remove drops tx (e.g. once it has been mined) and adjusts the running
// byte total.
func (m *Mempool) Remove(id [32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[id]
	if !ok {
		return
	}
	m.totalBytes -= tx.ByteSize()
	delete(m.byID, id)
}

// Contains reports whether id is currently pending.
func (m *Mempool) Contains(id [32]byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byID[id]
	return ok
}

// Get returns the pending tx for id, if any.
func (m *Mempool) Get(id [32]byte) (*types.TX, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.byID[id]
	return tx, ok
}

// PendingIDs returns a snapshot of all pending tx ids. Order is
// unspecified; callers that need newest-first order should use the
// tx_search index instead (this is the in-memory admission set, not a
// time-ordered log).
func (m *Mempool) PendingIDs() [][32]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([][32]byte, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	return ids
}

// TotalBytes returns the current running payload-byte total.
func (m *Mempool) TotalBytes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalBytes
}

// All returns every pending transaction, used by the replay pool
// verifier when checking a new tx against the rest of the waiting set.
func (m *Mempool) All() []*types.TX {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.TX, 0, len(m.byID))
	for _, tx := range m.byID {
		out = append(out, tx)
	}
	return out
}
