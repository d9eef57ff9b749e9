package httpapi

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/types"
)

// handleTxAdmission admits a posted transaction into the mempool.
func handleTxAdmission(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	body, err := env.ReadBody(d.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	tx, err := decodeTX(body)
	if err != nil {
		d.Logger.Warn("malformed tx post", "peer", env.Peer.String(), "err", err)
		return NewReply(http.StatusBadRequest, "Invalid transaction.")
	}
	return admitSignedTx(ctx, env, tx)
}

// admitSignedTx is the shared tail of POST /tx and POST /unsigned_tx:
// everything after body parsing in the admission state machine. The stage
// order matters: cheap local checks run before the replay lookup, and
// the ignore-set insert happens before the verifier call so two
// concurrent posts of the same id admit exactly one.
func admitSignedTx(ctx context.Context, env *Envelope, tx *types.TX) Reply {
	d := currentDeps

	height, enforceCap := mempoolCapHeight(d)
	if enforceCap && d.Mempool.TotalBytes()+tx.ByteSize() > d.MempoolDataLimit {
		d.Logger.Debug("tx rejected", "id", encode32(tx.ID), "reason", "mempool full")
		return NewReply(http.StatusBadRequest, "Mempool is full.")
	}

	if d.IgnoreSet.ContainsOrInsert(tx.ID) {
		return NewReply(http.StatusAlreadyReported, "Transaction already processed.")
	}

	owner := types.OwnerAddress(tx.Owner)
	bal, _ := d.WalletList.Balance(owner)
	cost := tx.Cost()
	if bal.Cmp(cost) < 0 {
		d.Logger.Debug("tx rejected", "id", encode32(tx.ID), "reason", "insufficient balance", "balance", bal.Dec(), "cost", cost.Dec())
		return NewReply(http.StatusBadRequest, "Waiting TXs exceed balance for wallet.")
	}

	diff, err := d.Node.CurrentDiff()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	verdict := d.ReplayPool.VerifyTx(ctx, tx, diff, height, d.Node.BlockTxPairs(), d.Mempool.All(), d.WalletList)
	if verdict != collaborators.ReplayValid {
		d.Logger.Debug("tx rejected", "id", encode32(tx.ID), "reason", replayReason(verdict))
		return replayReply(verdict)
	}

	// The verifier race window: another admission may have filled the
	// mempool since the check above, so TryAdd re-checks under its lock.
	if err := d.Mempool.TryAdd(tx, enforceCap, d.MempoolDataLimit); err != nil {
		return NewReply(http.StatusBadRequest, "Mempool is full.")
	}
	d.Bridge.AddTx(tx)
	d.Logger.Info("tx accepted", "id", encode32(tx.ID), "peer", env.Peer.String())
	return NewReply(http.StatusOK, "OK")
}

// mempoolCapHeight reports the current height and whether the fork-1.8
// total-waiting-data cap applies at it. An unjoined node has no height
// to compare against the fork, so it is treated as pre-fork (no cap).
func mempoolCapHeight(d *Deps) (int64, bool) {
	if !d.Node.IsJoined() {
		return -1, false
	}
	height, err := d.Node.Height()
	if err != nil {
		return -1, false
	}
	return height, height >= d.ForkHeight18
}

func replayReason(v collaborators.ReplayVerdict) string {
	switch v {
	case collaborators.ReplayTxVerificationFailed:
		return "tx verification failed"
	case collaborators.ReplayInvalidLastTx:
		return "invalid last_tx"
	case collaborators.ReplayLastTxInMempool:
		return "last_tx in mempool"
	case collaborators.ReplayTxBadAnchor:
		return "bad anchor"
	case collaborators.ReplayTxAlreadyInWeave:
		return "already in weave"
	case collaborators.ReplayTxAlreadyInMempool:
		return "already in mempool"
	}
	return "valid"
}

func replayReply(v collaborators.ReplayVerdict) Reply {
	switch v {
	case collaborators.ReplayTxVerificationFailed, collaborators.ReplayInvalidLastTx:
		return NewReply(http.StatusBadRequest, "Transaction verification failed.")
	case collaborators.ReplayLastTxInMempool:
		return NewReply(http.StatusBadRequest, "Invalid anchor (last_tx from mempool).")
	case collaborators.ReplayTxBadAnchor:
		return NewReply(http.StatusBadRequest, "Invalid anchor (last_tx).")
	case collaborators.ReplayTxAlreadyInWeave:
		return NewReply(http.StatusBadRequest, "Transaction is already on the weave.")
	case collaborators.ReplayTxAlreadyInMempool:
		return NewReply(http.StatusBadRequest, "Transaction is already in the mempool.")
	}
	return NewReply(http.StatusOK, "OK")
}
