package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/types"
)

// admissionEnv joins the node past the fork height so the mempool data
// cap is live, and funds the default owner.
func admissionEnv(t *testing.T) (*testEnv, []byte) {
	te := newTestEnv(t)
	te.deps.ForkHeight18 = 0
	te.join(hash32(2), hash32(1))
	owner := []byte{0xcc, 0xcd}
	te.fund(types.OwnerAddress(owner), 1_000_000)
	return te, owner
}

func TestTxAdmissionAccepted(t *testing.T) {
	te, owner := admissionEnv(t)
	tx := mkSignedTx(1, owner, 10, 5, 64)

	rec := te.post("/tx", encodeTxBody(t, tx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
	require.True(t, te.mp.Contains(tx.ID))
	require.Equal(t, 1, te.bridge.TxCount())
}

func TestTxAdmissionDuplicateSkipsVerifier(t *testing.T) {
	te, owner := admissionEnv(t)
	tx := mkSignedTx(2, owner, 0, 1, 8)
	body := encodeTxBody(t, tx)

	rec := te.post("/tx", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, te.replay.CallCount())

	// The duplicate is cut off by the ignore set before the replay pool
	// is ever consulted.
	rec = te.post("/tx", body)
	require.Equal(t, http.StatusAlreadyReported, rec.Code)
	require.Equal(t, "Transaction already processed.", rec.Body.String())
	require.Equal(t, 1, te.replay.CallCount())
}

func TestTxAdmissionBalanceEnforced(t *testing.T) {
	te, owner := admissionEnv(t)
	tx := mkSignedTx(3, owner, 999_999, 2, 8) // quantity+reward > funded balance

	rec := te.post("/tx", encodeTxBody(t, tx))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Waiting TXs exceed balance for wallet.", rec.Body.String())
	require.False(t, te.mp.Contains(tx.ID))
}

func TestTxAdmissionMempoolCap(t *testing.T) {
	te, owner := admissionEnv(t)
	te.deps.MempoolDataLimit = 100

	first := mkSignedTx(4, owner, 0, 1, 90)
	rec := te.post("/tx", encodeTxBody(t, first))
	require.Equal(t, http.StatusOK, rec.Code)

	second := mkSignedTx(5, owner, 0, 1, 20)
	rec = te.post("/tx", encodeTxBody(t, second))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Mempool is full.", rec.Body.String())
	require.False(t, te.mp.Contains(second.ID))
}

func TestTxAdmissionCapInactiveBeforeFork(t *testing.T) {
	te, owner := admissionEnv(t)
	te.deps.ForkHeight18 = 1_000_000 // current height is far below
	te.deps.MempoolDataLimit = 10

	tx := mkSignedTx(6, owner, 0, 1, 500)
	rec := te.post("/tx", encodeTxBody(t, tx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTxAdmissionReplayVerdicts(t *testing.T) {
	te, owner := admissionEnv(t)

	cases := []struct {
		verdict collaborators.ReplayVerdict
		status  int
		body    string
	}{
		{collaborators.ReplayTxVerificationFailed, http.StatusBadRequest, "Transaction verification failed."},
		{collaborators.ReplayInvalidLastTx, http.StatusBadRequest, "Transaction verification failed."},
		{collaborators.ReplayLastTxInMempool, http.StatusBadRequest, "Invalid anchor (last_tx from mempool)."},
		{collaborators.ReplayTxBadAnchor, http.StatusBadRequest, "Invalid anchor (last_tx)."},
		{collaborators.ReplayTxAlreadyInWeave, http.StatusBadRequest, "Transaction is already on the weave."},
		{collaborators.ReplayTxAlreadyInMempool, http.StatusBadRequest, "Transaction is already in the mempool."},
	}
	for i, tc := range cases {
		tx := mkSignedTx(byte(0x10+i), owner, 0, 1, 8)
		te.replay.Verdicts[tx.ID] = tc.verdict
		rec := te.post("/tx", encodeTxBody(t, tx))
		require.Equal(t, tc.status, rec.Code, tc.body)
		require.Equal(t, tc.body, rec.Body.String())
		require.False(t, te.mp.Contains(tx.ID))
	}
}

func TestTxAdmissionMalformedBody(t *testing.T) {
	te, _ := admissionEnv(t)

	rec := te.post("/tx", []byte(`{"id": 42}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid transaction.", rec.Body.String())

	rec = te.post("/tx", []byte(`not json at all`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTxAdmissionOversizeBody(t *testing.T) {
	te, _ := admissionEnv(t)
	te.deps.MaxBodySize = 64

	rec := te.post("/tx", make([]byte, 200))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
