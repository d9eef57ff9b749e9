// Package params collects the node-wide constants referenced by the
// request-handling core: timeouts, size limits, and the fork height at
// which the mempool size cap activates.
package params

import "time"

const (
	// HandlerTimeout is the hard wall-clock deadline the Deadline
	// Supervisor enforces on every handler.
	HandlerTimeout = 55 * time.Second

	// MaxBodySize bounds every request body; a POST exceeding it gets 413.
	MaxBodySize = 12 * 1024 * 1024 // 12 MiB

	// TotalWaitingTxsDataSizeLimit bounds the sum of mempool tx payload
	// bytes once the chain has passed ForkHeight18.
	TotalWaitingTxsDataSizeLimit = 250 * 1024 * 1024 // 250 MiB

	// ForkHeight18 is the height at which the mempool size cap begins
	// to apply.
	ForkHeight18 = 269_510

	// MaxTxAnchorDepth bounds how far back into the hash list a tx anchor
	// (last_tx) may point.
	MaxTxAnchorDepth = 50

	// StoreBlocksBehindCurrent bounds the accepted height window for an
	// incoming block shadow relative to the node's current height.
	StoreBlocksBehindCurrent = 50

	// BadPoWBanTime is how long a peer is banned after submitting a block
	// whose proof of work fails validation.
	BadPoWBanTime = 24 * time.Hour

	// DefaultP2PPort is used when a peer omits the x-p2p-port header.
	DefaultP2PPort = 1984

	// ARQLSemaphorePermits bounds concurrent ARQL evaluations.
	ARQLSemaphorePermits = 100

	// ARQLSemaphoreWait is how long a request waits for an ARQL permit
	// before giving up.
	ARQLSemaphoreWait = 5 * time.Second

	// InternalAPIJitterMin/Max bound the randomized sleep before a
	// rejected internal-API request gets its response.
	InternalAPIJitterMin = 1000 * time.Millisecond
	InternalAPIJitterMax = 2000 * time.Millisecond

	// TimestampSkewTolerance bounds how far a block's timestamp may drift
	// from the node's clock before it is rejected.
	TimestampSkewTolerance = 15 * time.Minute

	// LegacyFormatCacheSize bounds the cache of regenerated
	// x-block-format: 1 response bodies.
	LegacyFormatCacheSize = 32 * 1024 * 1024

	// NetworkName identifies the gossip network this build speaks;
	// surfaced in GET /info and checked on POST /peers announcements.
	NetworkName = "meshnode.N.1"

	// Version and ReleaseNumber are surfaced in GET /info.
	Version       = 5
	ReleaseNumber = 1
)
