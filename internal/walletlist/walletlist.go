// Package walletlist holds the wallet list: an ordered collection of
// wallet entries keyed by address, consulted for balance checks during
// mempool admission and for fee estimation.
package walletlist

import (
	"bytes"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/types"
)

// List is a concurrency-safe, address-ordered wallet table backed by a
// red-black tree (treemap), matching the "ordered collection keyed by
// address" invariant in the data model.
type List struct {
	mu   sync.RWMutex
	tree *treemap.Map
}

func byteSliceComparator(a, b interface{}) int {
	return bytes.Compare(a.([]byte), b.([]byte))
}

// New creates an empty wallet list.
func New() *List {
	return &List{tree: treemap.NewWith(byteSliceComparator)}
}

// Put inserts or replaces the entry for addr.
func (l *List) Put(addr [32]byte, entry types.WalletEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := append([]byte{}, addr[:]...)
	l.tree.Put(key, entry)
}

// Get returns the entry for addr, if any.
func (l *List) Get(addr [32]byte) (types.WalletEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.tree.Get(addr[:])
	if !ok {
		return types.WalletEntry{}, false
	}
	return v.(types.WalletEntry), true
}

// Balance returns the balance for addr, or zero with ok=false if the
// address is unknown (new wallets start at zero balance).
func (l *List) Balance(addr [32]byte) (*uint256.Int, bool) {
	e, ok := l.Get(addr)
	if !ok {
		return uint256.NewInt(0), false
	}
	return e.Balance, true
}

// Len returns the number of wallets tracked.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Size()
}

// Each calls fn for every entry in address order.
func (l *List) Each(fn func(addr [32]byte, entry types.WalletEntry)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.tree.Each(func(key, value interface{}) {
		var addr [32]byte
		copy(addr[:], key.([]byte))
		fn(addr, value.(types.WalletEntry))
	})
}
