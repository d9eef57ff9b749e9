package types

import "github.com/holiman/uint256"

// BlockShadow is the subset of a block a peer gossips. A full block is
// reconstructed from a shadow plus a recall-size hint by an external
// builder (see collaborators.BlockBuilder).
type BlockShadow struct {
	IndepHash      [32]byte     `json:"indep_hash"`
	PreviousBlock  [32]byte     `json:"previous_block"`
	Height         uint64       `json:"height"`
	Diff           *uint256.Int `json:"diff"`
	Nonce          []byte       `json:"nonce"`
	Timestamp      int64        `json:"timestamp"`
	LastRetarget   int64        `json:"last_retarget"`
	RewardAddr     []byte       `json:"reward_addr"`
	TXIDs          [][32]byte   `json:"txs"`
	WalletListRoot [32]byte     `json:"wallet_list"`
	HashListRoot   [32]byte     `json:"hash_list"`

	// BlockDataSegment is the hash of the portion of the block covered by
	// its proof of work; used as a dedup key prior to full validation.
	BlockDataSegment []byte `json:"block_data_segment"`
}

// Block is a fully reconstructed block: the gossiped shadow with its
// transactions resolved from the shadow's tx ids.
type Block struct {
	BlockShadow
	TXs []*TX
}

// BlockTxPair pairs a block's independent hash with the ids of the
// transactions mined into it; the replay pool verifier walks these when
// checking a new tx's anchor.
type BlockTxPair struct {
	BlockHash [32]byte
	TXIDs     [][32]byte
}

// RecallHint is the information the BlockBuilder collaborator needs to
// reconstruct a full block from a shadow.
type RecallHint struct {
	RecallIndepHash [32]byte
	RecallSize      uint64
	Key             []byte
	Nonce           []byte
}
