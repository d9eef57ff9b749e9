package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meshchain/meshnode/internal/types"
)

func TestUnsignedTxSignedAndAdmitted(t *testing.T) {
	te := newTestEnv(t)
	te.metaDB.Secret = "s3cret"
	te.join(hash32(2), hash32(1))
	owner := []byte{0xee, 0xef}
	te.fund(types.OwnerAddress(owner), 1_000_000)

	body := []byte(`{"owner":"` + b64.EncodeToString(owner) + `","quantity":"5","reward":"1","data":"` + b64.EncodeToString([]byte("payload")) + `"}`)
	rec := te.do(http.MethodPost, "/unsigned_tx", body, map[string]string{"x-internal-api-secret": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["id"])

	id, err := decodeHash(resp["id"])
	require.NoError(t, err)
	require.True(t, te.mp.Contains(id))
	require.Equal(t, 1, te.bridge.TxCount())
}

func TestUnsignedTxRejectedWithoutSecret(t *testing.T) {
	te := newTestEnv(t)
	rec := te.post("/unsigned_tx", []byte(`{}`))
	require.Equal(t, http.StatusMisdirectedRequest, rec.Code)
	require.Zero(t, te.replay.CallCount())
}
