package httpapi

import (
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/ignoreset"
	"github.com/meshchain/meshnode/internal/log"
	"github.com/meshchain/meshnode/internal/mempool"
	"github.com/meshchain/meshnode/internal/params"
	"github.com/meshchain/meshnode/internal/walletlist"
)

// Deps bundles every collaborator and piece of process-wide state the
// handlers need. One Deps is shared by every request.
type Deps struct {
	Node         collaborators.Node
	Storage      collaborators.Storage
	TxSearch     collaborators.TxSearch
	Bridge       collaborators.Bridge
	Blacklist    collaborators.Blacklist
	Miner        collaborators.Miner
	BlockBuilder collaborators.BlockBuilder
	ReplayPool   collaborators.ReplayPool
	Wallet       collaborators.Wallet
	MetaDB       collaborators.MetaDB

	Mempool    *mempool.Mempool
	WalletList *walletlist.List
	IgnoreSet  *ignoreset.Set
	ARQLGate   *ARQLGate
	Peers      *PeerAccounting
	Services   *ServiceRegistry

	// LegacyCache memoizes regenerated x-block-format: 1 bodies; the
	// regeneration re-reads and re-encodes the whole block, so repeat
	// requests from legacy clients would otherwise hit disk every time.
	LegacyCache *fastcache.Cache

	Logger log.Logger

	MaxBodySize       int64
	ForkHeight18      int64
	MaxTxAnchorDepth  int
	StoreBlocksBehind int64
	BadPoWBanTime     time.Duration
	MempoolDataLimit  int

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// NewDeps fills in defaults for the size/timing fields from package
// params, leaving the collaborator fields for the caller to set.
func NewDeps() *Deps {
	return &Deps{
		MaxBodySize:       params.MaxBodySize,
		ForkHeight18:      params.ForkHeight18,
		MaxTxAnchorDepth:  params.MaxTxAnchorDepth,
		StoreBlocksBehind: params.StoreBlocksBehindCurrent,
		BadPoWBanTime:     params.BadPoWBanTime,
		MempoolDataLimit:  params.TotalWaitingTxsDataSizeLimit,
		ARQLGate:          NewARQLGate(params.ARQLSemaphorePermits),
		Services:          NewServiceRegistry(),
		LegacyCache:       fastcache.New(params.LegacyFormatCacheSize),
	}
}
