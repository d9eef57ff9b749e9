// Package collaborators declares the small interfaces the request-handling
// core uses to reach each external subsystem: node state, storage, the
// tag-indexed tx search backend, the gossip bridge, the peer blacklist,
// the miner, the block builder, the replay pool verifier, the wallet
// keystore, and the meta_db configuration store. Hiding each behind its
// own interface keeps the handlers testable with fakes instead of a
// live node.
package collaborators

import (
	"context"
	"errors"
	"time"

	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/types"
)

// ErrNodeUnavailable is returned by Node methods that may time out
// against the live node state (e.g. balance lookups).
var ErrNodeUnavailable = errors.New("collaborators: node state unavailable")

// Node exposes the node's in-memory consensus cursors.
type Node interface {
	IsJoined() bool
	Height() (int64, error) // -1 when not joined
	CurrentBlockHash() ([32]byte, bool)
	HashList() (types.HashList, error)
	PendingTxs() [][32]byte
	Diff(height int64) (*uint256.Int, error)
	CurrentDiff() (*uint256.Int, error)
	Balance(ctx context.Context, addr [32]byte) (*uint256.Int, error)
	LastTx(ctx context.Context, addr [32]byte) ([32]byte, error)
	QueueLength() int

	// BlockTxPairs returns the recent (block hash, tx ids) pairs the
	// replay pool verifier checks anchors against.
	BlockTxPairs() []types.BlockTxPair
}

// Storage looks up and streams persisted tx/block files.
type Storage interface {
	LookupTxFilename(id [32]byte) (string, bool)
	LookupBlockFilename(hashOrHeight string) (string, bool)
	ReadTxFile(path string) ([]byte, error)
	ReadBlockFile(path string, hl types.HashList) ([]byte, error)
	BlocksOnDisk() int
}

// TxSearch is the tag-indexed transaction search backend ARQL and the
// wallet txs/deposits handlers query.
type TxSearch interface {
	GetEntries(tagName, value string) ([][32]byte, error)
	GetTagsByID(id [32]byte) ([]types.Tag, error)
	SortTxIDs(ids [][32]byte) [][32]byte // canonical (newest-first) order

	// BlockOfTx reports the height and independent hash of the block a
	// mined tx was included in, used to answer /tx/{hash}/status.
	BlockOfTx(id [32]byte) (height int64, indepHash [32]byte, ok bool)
}

// Bridge is the gossip/bridge subsystem: where accepted artifacts and
// newly-seen peers are handed off.
type Bridge interface {
	AddRemotePeer(peer types.Peer)
	AddTx(tx *types.TX)
	AddBlock(peer types.Peer, block *types.Block, bds []byte, recall types.RecallHint)
}

// Blacklist bans and checks peers.
type Blacklist interface {
	IsBanned(peer types.Peer, now time.Time) bool
	Ban(peer types.Peer, now time.Time, duration time.Duration)
}

// PoWResult is the outcome of Miner.Validate.
type PoWResult struct {
	Valid  bool
	Reason string
}

// Miner validates proof of work on a block data segment.
type Miner interface {
	Validate(bds []byte, nonce []byte, diff *uint256.Int, height int64) PoWResult
}

// BlockBuilder reconstructs a full block from a shadow and a recall hint.
type BlockBuilder interface {
	VerifyTimestamp(shadow *types.BlockShadow, now time.Time) bool
	GenerateBlockFromShadow(shadow *types.BlockShadow, recallSize uint64) (*types.Block, types.RecallHint, error)
}

// ReplayVerdict enumerates the outcomes of ReplayPool.VerifyTx.
type ReplayVerdict int

const (
	ReplayValid ReplayVerdict = iota
	ReplayTxVerificationFailed
	ReplayInvalidLastTx
	ReplayLastTxInMempool
	ReplayTxBadAnchor
	ReplayTxAlreadyInWeave
	ReplayTxAlreadyInMempool
)

// ReplayPool is the external replay-protection/consensus-rule verifier
// consulted after the local cheap checks in POST /tx.
type ReplayPool interface {
	VerifyTx(ctx context.Context, tx *types.TX, diff *uint256.Int, height int64,
		blockTxPairs []types.BlockTxPair, pendingTxs []*types.TX, wallets WalletView) ReplayVerdict
}

// WalletView is the read-only wallet-list surface ReplayPool needs.
type WalletView interface {
	Balance(addr [32]byte) (*uint256.Int, bool)
}

// Wallet issues keyfiles and signs transactions for the internal API.
type Wallet interface {
	NewKeyfile() (address [32]byte, mnemonic string, pubKey []byte, err error)
	Sign(tx *types.TX, pubKey []byte) error
	MinTxCost(dataSize int, target *[32]byte, quantity *uint256.Int, wallets WalletView) *uint256.Int
}

// MetaDB exposes the node's configuration flags: http_logging,
// api_compat, subfield_queries, internal_api_secret, and per-peer
// metadata.
type MetaDB interface {
	HTTPLogging() bool
	APICompat() bool
	SubfieldQueries() bool
	InternalAPISecret() string
}
