package httpapi

import (
	"sync"
	"time"

	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/log"
	"github.com/meshchain/meshnode/internal/types"
)

// PeerAccounting records every originating peer seen
// for the first time and, when enabled, logs each handled request.
type PeerAccounting struct {
	mu     sync.Mutex
	seen   map[types.Peer]time.Time
	bridge collaborators.Bridge
	logger log.Logger
}

// NewPeerAccounting creates a PeerAccounting that reports newly-seen
// peers to bridge.
func NewPeerAccounting(bridge collaborators.Bridge, logger log.Logger) *PeerAccounting {
	return &PeerAccounting{seen: make(map[types.Peer]time.Time), bridge: bridge, logger: logger}
}

// Observe records peer's arrival time and, the first time a peer is
// seen, reports it to the bridge. When httpLogging is enabled it also
// emits the {http_request, method, path, peer} structured log line.
func (p *PeerAccounting) Observe(peer types.Peer, method, path string, httpLogging bool, now time.Time) {
	p.mu.Lock()
	_, known := p.seen[peer]
	p.seen[peer] = now
	p.mu.Unlock()

	if !known {
		p.bridge.AddRemotePeer(peer)
	}
	if httpLogging {
		p.logger.Info("http_request", "method", method, "path", path, "peer", peer.String())
	}
}

// Peers returns every peer seen, excluding exclude (the caller), along
// with the time it was last observed.
func (p *PeerAccounting) Peers(exclude types.Peer) []PeerSighting {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PeerSighting, 0, len(p.seen))
	for peer, lastSeen := range p.seen {
		if peer == exclude {
			continue
		}
		out = append(out, PeerSighting{Peer: peer, LastSeen: lastSeen})
	}
	return out
}

// PeerSighting pairs a peer with the last time it was observed.
type PeerSighting struct {
	Peer     types.Peer
	LastSeen time.Time
}
