package mempool

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/types"
)

func mkTX(id byte, dataLen int) *types.TX {
	var h [32]byte
	h[0] = id
	return &types.TX{
		ID:       h,
		Data:     make([]byte, dataLen),
		Quantity: uint256.NewInt(0),
		Reward:   uint256.NewInt(0),
	}
}

func TestTryAddWithinLimit(t *testing.T) {
	m := New()
	if err := m.TryAdd(mkTX(1, 100), true, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TotalBytes() != 100 {
		t.Fatalf("got %d, want 100", m.TotalBytes())
	}
}

// TestMempoolSizeCap: the first admission that would
// exceed the cumulative limit is rejected and not reflected in state.
func TestMempoolSizeCap(t *testing.T) {
	m := New()
	if err := m.TryAdd(mkTX(1, 900), true, 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.TryAdd(mkTX(2, 200), true, 1000); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	if m.Contains([32]byte{2}) {
		t.Fatal("rejected tx must not be reflected in mempool state")
	}
	if m.TotalBytes() != 900 {
		t.Fatalf("got %d, want 900 (unchanged)", m.TotalBytes())
	}
}

func TestTryAddWithoutLimitEnforcement(t *testing.T) {
	m := New()
	if err := m.TryAdd(mkTX(1, 900), false, 1000); err != nil {
		t.Fatal(err)
	}
	if err := m.TryAdd(mkTX(2, 900), false, 1000); err != nil {
		t.Fatalf("pre-fork admission should never hit the cap, got %v", err)
	}
}

func TestTryAddConcurrentNearLimitIsSerialized(t *testing.T) {
	m := New()
	const limit = 1000
	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.TryAdd(mkTX(byte(i+1), 150), true, limit)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		}
	}
	if m.TotalBytes() > limit {
		t.Fatalf("total bytes %d exceeded limit %d", m.TotalBytes(), limit)
	}
	if accepted*150 > limit {
		t.Fatalf("accepted %d admissions, which would exceed the limit", accepted)
	}
}

func TestRemove(t *testing.T) {
	m := New()
	tx := mkTX(1, 50)
	_ = m.TryAdd(tx, true, 1000)
	m.Remove(tx.ID)
	if m.Contains(tx.ID) {
		t.Fatal("expected tx to be removed")
	}
	if m.TotalBytes() != 0 {
		t.Fatalf("got %d, want 0", m.TotalBytes())
	}
}
