package blacklist

import (
	"testing"
	"time"

	"github.com/meshchain/meshnode/internal/types"
)

func TestBanThenExpire(t *testing.T) {
	b := New()
	peer := types.Peer{IP: [4]byte{1, 2, 3, 4}, P2PPort: 1984}
	now := time.Unix(1_700_000_000, 0)

	if b.IsBanned(peer, now) {
		t.Fatal("unbanned peer should not be reported as banned")
	}

	b.Ban(peer, now, time.Hour)
	if !b.IsBanned(peer, now) {
		t.Fatal("expected ban to be active immediately")
	}
	if !b.IsBanned(peer, now.Add(59*time.Minute)) {
		t.Fatal("expected ban to still be active within the window")
	}
	if b.IsBanned(peer, now.Add(2*time.Hour)) {
		t.Fatal("expected ban to have expired")
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	b := New()
	peer := types.Peer{IP: [4]byte{9, 9, 9, 9}}
	now := time.Unix(0, 0)
	b.Ban(peer, now, time.Minute)

	b.Sweep(now.Add(2 * time.Minute))
	b.mu.RLock()
	_, present := b.bans[peer]
	b.mu.RUnlock()
	if present {
		t.Fatal("expected expired entry to be swept")
	}
}
