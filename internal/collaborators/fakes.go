package collaborators

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/mempool"
	"github.com/meshchain/meshnode/internal/types"
	"github.com/meshchain/meshnode/internal/walletlist"
)

// FakeNode is an in-memory Node used by tests and by the example wiring
// in cmd/meshnode for a from-genesis dev node.
type FakeNode struct {
	mu          sync.RWMutex
	joined      bool
	height      int64
	head        [32]byte
	hasHead     bool
	hashList    types.HashList
	diff        *uint256.Int
	mempool     *mempool.Mempool
	wallets     *walletlist.List
	unavailable bool
}

// NewFakeNode creates a fresh, unjoined node.
func NewFakeNode(mp *mempool.Mempool, wl *walletlist.List) *FakeNode {
	return &FakeNode{mempool: mp, wallets: wl, diff: uint256.NewInt(1)}
}

func (n *FakeNode) Join(height int64, head [32]byte, hl types.HashList) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joined = true
	n.height = height
	n.head = head
	n.hasHead = true
	n.hashList = hl
}

func (n *FakeNode) SetUnavailable(v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unavailable = v
}

func (n *FakeNode) IsJoined() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.joined
}

func (n *FakeNode) Height() (int64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.joined {
		return -1, nil
	}
	return n.height, nil
}

func (n *FakeNode) CurrentBlockHash() ([32]byte, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.head, n.hasHead
}

func (n *FakeNode) HashList() (types.HashList, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.hashList, nil
}

func (n *FakeNode) PendingTxs() [][32]byte {
	return n.mempool.PendingIDs()
}

func (n *FakeNode) Diff(height int64) (*uint256.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.diff, nil
}

func (n *FakeNode) CurrentDiff() (*uint256.Int, error) {
	return n.Diff(0)
}

func (n *FakeNode) Balance(ctx context.Context, addr [32]byte) (*uint256.Int, error) {
	n.mu.RLock()
	unavailable := n.unavailable
	n.mu.RUnlock()
	if unavailable {
		return nil, ErrNodeUnavailable
	}
	bal, _ := n.wallets.Balance(addr)
	return bal, nil
}

func (n *FakeNode) LastTx(ctx context.Context, addr [32]byte) ([32]byte, error) {
	e, _ := n.wallets.Get(addr)
	return e.LastTx, nil
}

func (n *FakeNode) QueueLength() int {
	return len(n.mempool.PendingIDs())
}

func (n *FakeNode) BlockTxPairs() []types.BlockTxPair {
	n.mu.RLock()
	defer n.mu.RUnlock()
	pairs := make([]types.BlockTxPair, 0, len(n.hashList))
	for _, h := range n.hashList {
		pairs = append(pairs, types.BlockTxPair{BlockHash: h})
	}
	return pairs
}

// FakeBridge records everything handed to it, for assertions in tests.
type FakeBridge struct {
	mu     sync.Mutex
	Peers  []types.Peer
	Txs    []*types.TX
	Blocks []*types.Block
}

func NewFakeBridge() *FakeBridge { return &FakeBridge{} }

func (b *FakeBridge) AddRemotePeer(peer types.Peer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Peers = append(b.Peers, peer)
}

func (b *FakeBridge) AddTx(tx *types.TX) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Txs = append(b.Txs, tx)
}

func (b *FakeBridge) AddBlock(peer types.Peer, block *types.Block, bds []byte, recall types.RecallHint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Blocks = append(b.Blocks, block)
}

func (b *FakeBridge) TxCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Txs)
}

func (b *FakeBridge) BlockCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Blocks)
}

// FakeMiner lets tests dictate PoW outcomes by nonce value.
type FakeMiner struct {
	ValidNonces map[string]bool
}

func NewFakeMiner() *FakeMiner { return &FakeMiner{ValidNonces: map[string]bool{}} }

func (m *FakeMiner) Validate(bds, nonce []byte, diff *uint256.Int, height int64) PoWResult {
	if m.ValidNonces[string(nonce)] {
		return PoWResult{Valid: true}
	}
	return PoWResult{Valid: false, Reason: "pow below target"}
}

// FakeBlockBuilder always accepts timestamps within a configurable skew
// and returns a trivial reconstruction.
type FakeBlockBuilder struct {
	Skew time.Duration
}

func (bb *FakeBlockBuilder) VerifyTimestamp(shadow *types.BlockShadow, now time.Time) bool {
	skew := bb.Skew
	if skew == 0 {
		skew = 15 * time.Minute
	}
	blockTime := time.Unix(shadow.Timestamp, 0)
	delta := now.Sub(blockTime)
	if delta < 0 {
		delta = -delta
	}
	return delta <= skew
}

func (bb *FakeBlockBuilder) GenerateBlockFromShadow(shadow *types.BlockShadow, recallSize uint64) (*types.Block, types.RecallHint, error) {
	return &types.Block{BlockShadow: *shadow}, types.RecallHint{RecallSize: recallSize}, nil
}

// FakeStorage is an in-memory Storage backed by maps from id to bytes.
type FakeStorage struct {
	mu     sync.RWMutex
	txs    map[[32]byte][]byte
	blocks map[string][]byte
}

// NewFakeStorage creates an empty FakeStorage.
func NewFakeStorage() *FakeStorage {
	return &FakeStorage{txs: map[[32]byte][]byte{}, blocks: map[string][]byte{}}
}

// PutTx records raw bytes for id, retrievable as if read from disk.
func (s *FakeStorage) PutTx(id [32]byte, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[id] = raw
}

// PutBlock records raw bytes under key (a hash or height string).
func (s *FakeStorage) PutBlock(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[key] = raw
}

func (s *FakeStorage) LookupTxFilename(id [32]byte) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.txs[id]
	if !ok {
		return "", false
	}
	return string(id[:]), true
}

func (s *FakeStorage) LookupBlockFilename(hashOrHeight string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[hashOrHeight]
	if !ok {
		return "", false
	}
	return hashOrHeight, true
}

func (s *FakeStorage) ReadTxFile(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var id [32]byte
	copy(id[:], path)
	return s.txs[id], nil
}

func (s *FakeStorage) ReadBlockFile(path string, hl types.HashList) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks[path], nil
}

func (s *FakeStorage) BlocksOnDisk() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

// FakeTxSearch is an in-memory tag index.
type FakeTxSearch struct {
	mu      sync.RWMutex
	entries map[string][][32]byte
	tags    map[[32]byte][]types.Tag
	blockOf map[[32]byte][2]int64 // height, and indep hash stored separately
	indepOf map[[32]byte][32]byte
	order   [][32]byte // canonical newest-first order of every known id
}

// NewFakeTxSearch creates an empty FakeTxSearch.
func NewFakeTxSearch() *FakeTxSearch {
	return &FakeTxSearch{
		entries: map[string][][32]byte{},
		tags:    map[[32]byte][]types.Tag{},
		blockOf: map[[32]byte][2]int64{},
		indepOf: map[[32]byte][32]byte{},
	}
}

func entryKey(name, value string) string { return name + "\x00" + value }

// Index records id under tag (name, value) and prepends it to the
// canonical order (newest-first).
func (s *FakeTxSearch) Index(id [32]byte, tags []types.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags[id] = tags
	for _, t := range tags {
		key := entryKey(string(t.Name), string(t.Value))
		s.entries[key] = append(s.entries[key], id)
	}
	s.order = append([][32]byte{id}, s.order...)
}

// SetBlockOfTx records that id was mined into the block at height with
// the given independent hash.
func (s *FakeTxSearch) SetBlockOfTx(id [32]byte, height int64, indepHash [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockOf[id] = [2]int64{height, 0}
	s.indepOf[id] = indepHash
}

func (s *FakeTxSearch) GetEntries(tagName, value string) ([][32]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([][32]byte{}, s.entries[entryKey(tagName, value)]...), nil
}

func (s *FakeTxSearch) GetTagsByID(id [32]byte) ([]types.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tags[id], nil
}

func (s *FakeTxSearch) SortTxIDs(ids [][32]byte) [][32]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos := make(map[[32]byte]int, len(s.order))
	for i, id := range s.order {
		pos[id] = i
	}
	out := append([][32]byte{}, ids...)
	sort.Slice(out, func(i, j int) bool { return pos[out[i]] < pos[out[j]] })
	return out
}

func (s *FakeTxSearch) BlockOfTx(id [32]byte) (int64, [32]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.blockOf[id]
	if !ok {
		return 0, [32]byte{}, false
	}
	return h[0], s.indepOf[id], true
}

// FakeReplayPool lets tests script the verdict returned for each tx id.
type FakeReplayPool struct {
	mu       sync.Mutex
	Verdicts map[[32]byte]ReplayVerdict
	Default  ReplayVerdict
	Calls    []([32]byte)
}

// NewFakeReplayPool creates a FakeReplayPool defaulting to ReplayValid.
func NewFakeReplayPool() *FakeReplayPool {
	return &FakeReplayPool{Verdicts: map[[32]byte]ReplayVerdict{}, Default: ReplayValid}
}

func (p *FakeReplayPool) VerifyTx(ctx context.Context, tx *types.TX, diff *uint256.Int, height int64,
	blockTxPairs []types.BlockTxPair, pendingTxs []*types.TX, wallets WalletView) ReplayVerdict {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, tx.ID)
	if v, ok := p.Verdicts[tx.ID]; ok {
		return v
	}
	return p.Default
}

func (p *FakeReplayPool) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// FakeWallet is an in-memory Wallet that mints deterministic-looking
// keyfiles for tests without touching real entropy sources.
type FakeWallet struct {
	mu      sync.Mutex
	nextKey byte
}

func NewFakeWallet() *FakeWallet { return &FakeWallet{} }

func (w *FakeWallet) NewKeyfile() ([32]byte, string, []byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextKey++
	var addr [32]byte
	addr[0] = w.nextKey
	pub := bytes.Repeat([]byte{w.nextKey}, 33)
	return addr, "fake mnemonic seed phrase", pub, nil
}

func (w *FakeWallet) Sign(tx *types.TX, pubKey []byte) error {
	tx.Signature = append([]byte{}, pubKey...)
	return nil
}

func (w *FakeWallet) MinTxCost(dataSize int, target *[32]byte, quantity *uint256.Int, wallets WalletView) *uint256.Int {
	return uint256.NewInt(uint64(dataSize) + 1)
}

// FakeMetaDB is a simple in-memory MetaDB.
type FakeMetaDB struct {
	HTTPLoggingEnabled     bool
	APICompatEnabled       bool
	SubfieldQueriesEnabled bool
	Secret                 string
}

func (m *FakeMetaDB) HTTPLogging() bool         { return m.HTTPLoggingEnabled }
func (m *FakeMetaDB) APICompat() bool           { return m.APICompatEnabled }
func (m *FakeMetaDB) SubfieldQueries() bool     { return m.SubfieldQueriesEnabled }
func (m *FakeMetaDB) InternalAPISecret() string { return m.Secret }
