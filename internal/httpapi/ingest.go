package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/julienschmidt/httprouter"

	"github.com/meshchain/meshnode/internal/types"
)

// blockPostJSON is the wire shape of a gossiped block: the shadow fields
// with hashes as base64url text and diff as a decimal string, plus the
// recall-size hint the builder needs to reconstruct the full block.
type blockPostJSON struct {
	IndepHash        string   `json:"indep_hash"`
	PreviousBlock    string   `json:"previous_block"`
	Height           int64    `json:"height"`
	Diff             string   `json:"diff"`
	Nonce            string   `json:"nonce"`
	Timestamp        int64    `json:"timestamp"`
	LastRetarget     int64    `json:"last_retarget"`
	RewardAddr       string   `json:"reward_addr"`
	TXs              []string `json:"txs"`
	WalletListRoot   string   `json:"wallet_list"`
	HashListRoot     string   `json:"hash_list"`
	BlockDataSegment string   `json:"block_data_segment"`
	RecallSize       uint64   `json:"recall_size"`
}

func decodeBlockPost(body []byte) (*types.BlockShadow, uint64, error) {
	var in blockPostJSON
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, 0, err
	}
	shadow := &types.BlockShadow{
		Height:       uint64(in.Height),
		Timestamp:    in.Timestamp,
		LastRetarget: in.LastRetarget,
	}
	var err error
	if shadow.IndepHash, err = decode32(in.IndepHash, "indep_hash"); err != nil {
		return nil, 0, err
	}
	if shadow.PreviousBlock, err = decode32(in.PreviousBlock, "previous_block"); err != nil {
		return nil, 0, err
	}
	if shadow.Diff, err = parseUint256(in.Diff); err != nil {
		return nil, 0, err
	}
	if shadow.Nonce, err = b64.DecodeString(in.Nonce); err != nil {
		return nil, 0, err
	}
	if in.RewardAddr != "" {
		if shadow.RewardAddr, err = b64.DecodeString(in.RewardAddr); err != nil {
			return nil, 0, err
		}
	}
	for _, t := range in.TXs {
		id, err := decode32(t, "tx id")
		if err != nil {
			return nil, 0, err
		}
		shadow.TXIDs = append(shadow.TXIDs, id)
	}
	if in.WalletListRoot != "" {
		if shadow.WalletListRoot, err = decode32(in.WalletListRoot, "wallet_list"); err != nil {
			return nil, 0, err
		}
	}
	if in.HashListRoot != "" {
		if shadow.HashListRoot, err = decode32(in.HashListRoot, "hash_list"); err != nil {
			return nil, 0, err
		}
	}
	if in.BlockDataSegment != "" {
		if shadow.BlockDataSegment, err = b64.DecodeString(in.BlockDataSegment); err != nil {
			return nil, 0, err
		}
	}
	return shadow, in.RecallSize, nil
}

// minDifficulty is the floor an incoming block's difficulty must clear
// at any height; shadows below it are almost always traffic from the
// wrong network, so the rejection stays silent.
func minDifficulty(height int64) *uint256.Int {
	return uint256.NewInt(1)
}

// handleBlockIngest implements the POST /block pipeline: an
// ordered sequence of stages, each either short-circuiting with a reply
// or passing on to the next. Cheap lookups and anti-DoS gates run before
// the first cryptographic cost (PoW), and PoW runs before any block
// reconstruction. The BDS only enters the ignore set after PoW passes,
// so a bogus shadow sharing a real block's BDS cannot inoculate the node
// against the real one.
func handleBlockIngest(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	now := d.now()

	// Stage 1: peer blacklist.
	if d.Blacklist.IsBanned(env.Peer, now) {
		return NewReply(http.StatusForbidden, "Banned.")
	}

	// Stage 2: parse body.
	body, err := env.ReadBody(d.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	shadow, recallSize, err := decodeBlockPost(body)
	if err != nil {
		d.Logger.Warn("malformed block post", "peer", env.Peer.String(), "err", err)
		return NewReply(http.StatusBadRequest, "Invalid block.")
	}

	// Stage 3: data-segment dedup.
	if len(shadow.BlockDataSegment) == 0 {
		d.Logger.Warn("block post without data segment", "peer", env.Peer.String(), "indep_hash", encode32(shadow.IndepHash))
		return NewReply(http.StatusBadRequest, "block_data_segment missing.")
	}
	bdsHash := sha256.Sum256(shadow.BlockDataSegment)
	if d.IgnoreSet.Contains(bdsHash) {
		return NewReply(http.StatusAlreadyReported, "Block Data Segment already processed.")
	}

	// Stage 4: indep-hash dedup.
	if d.IgnoreSet.ContainsOrInsert(shadow.IndepHash) {
		return NewReply(http.StatusAlreadyReported, "Block already processed.")
	}

	// Stage 5: joined check.
	if !d.Node.IsJoined() {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}

	// Stage 6: height window.
	current, err := d.Node.Height()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	h := int64(shadow.Height)
	if h < current-d.StoreBlocksBehind {
		return NewReply(http.StatusBadRequest, "Height is too far behind")
	}
	if h > current+d.StoreBlocksBehind {
		return NewReply(http.StatusBadRequest, "Height is too far ahead")
	}

	// Stage 7: minimum difficulty.
	if shadow.Diff == nil || shadow.Diff.Cmp(minDifficulty(h)) < 0 {
		return NewReply(http.StatusBadRequest, "Difficulty too low")
	}

	// Stage 8: proof of work.
	if res := d.Miner.Validate(shadow.BlockDataSegment, shadow.Nonce, shadow.Diff, h); !res.Valid {
		d.Logger.Warn("invalid block pow", "peer", env.Peer.String(), "indep_hash", encode32(shadow.IndepHash), "reason", res.Reason)
		d.Blacklist.Ban(env.Peer, now, d.BadPoWBanTime)
		return NewReply(http.StatusBadRequest, "Invalid Block Proof of Work")
	}
	d.IgnoreSet.Insert(bdsHash)

	// Stage 9: timestamp.
	if !d.BlockBuilder.VerifyTimestamp(shadow, now) {
		d.Logger.Warn("invalid block timestamp", "peer", env.Peer.String(),
			"block_time", shadow.Timestamp, "current_time", now.Unix())
		return NewReply(http.StatusBadRequest, "Invalid timestamp.")
	}

	// Stage 10: async hand-off. The reply goes out now; reconstruction
	// runs detached so a slow recall read can't hold the request open.
	peer := env.Peer
	bds := shadow.BlockDataSegment
	go func() {
		block, recall, err := d.BlockBuilder.GenerateBlockFromShadow(shadow, recallSize)
		if err != nil {
			d.Logger.Warn("block reconstruction failed", "indep_hash", encode32(shadow.IndepHash), "err", err)
			return
		}
		d.Bridge.AddBlock(peer, block, bds, recall)
	}()
	return NewReply(http.StatusOK, "OK")
}
