package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"
)

const validNonce = "good-nonce"

// ingestEnv returns a joined env with a fixed clock and a miner that
// accepts validNonce.
func ingestEnv(t *testing.T) (*testEnv, time.Time) {
	te := newTestEnv(t)
	now := time.Unix(1700000000, 0)
	te.deps.Now = func() time.Time { return now }
	te.join(hash32(2), hash32(1))
	te.miner.ValidNonces[validNonce] = true
	return te, now
}

func mkBlockPost(indep byte, height int64, ts int64, nonce, bds string) []byte {
	post := blockPostJSON{
		IndepHash:        encode32(hash32(indep)),
		PreviousBlock:    encode32(hash32(indep - 1)),
		Height:           height,
		Diff:             "5",
		Nonce:            b64.EncodeToString([]byte(nonce)),
		Timestamp:        ts,
		BlockDataSegment: b64.EncodeToString([]byte(bds)),
		RecallSize:       64,
	}
	body, _ := json.Marshal(post)
	return body
}

func TestBlockIngestAccepted(t *testing.T) {
	te, now := ingestEnv(t)

	rec := te.post("/block", mkBlockPost(0x80, 2, now.Unix(), validNonce, "bds-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())

	// The bridge hand-off is asynchronous.
	require.Eventually(t, func() bool { return te.bridge.BlockCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBlockIngestIdempotent(t *testing.T) {
	te, now := ingestEnv(t)
	body := mkBlockPost(0x81, 2, now.Unix(), validNonce, "bds-2")

	rec := te.post("/block", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = te.post("/block", body)
	require.Equal(t, http.StatusAlreadyReported, rec.Code)

	// A different shadow reusing the same data segment is also cut off.
	rec = te.post("/block", mkBlockPost(0x82, 2, now.Unix(), validNonce, "bds-2"))
	require.Equal(t, http.StatusAlreadyReported, rec.Code)
	require.Equal(t, "Block Data Segment already processed.", rec.Body.String())
}

func TestBlockIngestBadPoWBansPeer(t *testing.T) {
	te, now := ingestEnv(t)

	rec := te.post("/block", mkBlockPost(0x83, 2, now.Unix(), "wrong-nonce", "bds-3"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid Block Proof of Work", rec.Body.String())

	// The same peer is turned away at the door from now on.
	rec = te.post("/block", mkBlockPost(0x84, 2, now.Unix(), validNonce, "bds-4"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBlockIngestMissingDataSegment(t *testing.T) {
	te, now := ingestEnv(t)

	post := blockPostJSON{
		IndepHash:     encode32(hash32(0x85)),
		PreviousBlock: encode32(hash32(0x84)),
		Height:        2,
		Diff:          "5",
		Nonce:         b64.EncodeToString([]byte(validNonce)),
		Timestamp:     now.Unix(),
	}
	body, _ := json.Marshal(post)
	rec := te.post("/block", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "block_data_segment missing.", rec.Body.String())
}

func TestBlockIngestNotJoined(t *testing.T) {
	te := newTestEnv(t)
	now := time.Unix(1700000000, 0)
	te.deps.Now = func() time.Time { return now }
	te.miner.ValidNonces[validNonce] = true

	rec := te.post("/block", mkBlockPost(0x86, 2, now.Unix(), validNonce, "bds-5"))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Not joined.", rec.Body.String())
}

func TestBlockIngestHeightWindow(t *testing.T) {
	te, now := ingestEnv(t)
	te.deps.StoreBlocksBehind = 10

	rec := te.post("/block", mkBlockPost(0x87, 100, now.Unix(), validNonce, "bds-6"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Height is too far ahead", rec.Body.String())

	// Drive the node's height far ahead of the shadow instead.
	hashes := make([][32]byte, 50)
	for i := range hashes {
		hashes[i] = hash32(byte(i))
	}
	te.join(hashes...)
	rec = te.post("/block", mkBlockPost(0x88, 2, now.Unix(), validNonce, "bds-7"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Height is too far behind", rec.Body.String())
}

func TestBlockIngestBadTimestamp(t *testing.T) {
	te, now := ingestEnv(t)

	rec := te.post("/block", mkBlockPost(0x89, 2, now.Add(-24*time.Hour).Unix(), validNonce, "bds-8"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid timestamp.", rec.Body.String())
}

func TestBlockIngestDifficultyTooLow(t *testing.T) {
	te, now := ingestEnv(t)

	post := blockPostJSON{
		IndepHash:        encode32(hash32(0x8a)),
		PreviousBlock:    encode32(hash32(0x89)),
		Height:           2,
		Diff:             "0",
		Nonce:            b64.EncodeToString([]byte(validNonce)),
		Timestamp:        now.Unix(),
		BlockDataSegment: b64.EncodeToString([]byte("bds-9")),
	}
	body, _ := json.Marshal(post)
	rec := te.post("/block", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Difficulty too low", rec.Body.String())
}

func TestBlockIngestMalformedBodies(t *testing.T) {
	te, _ := ingestEnv(t)

	rec := te.post("/block", []byte(`{"indep_hash": 7}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid block.", rec.Body.String())

	// Random garbage must be rejected, never panic the pipeline.
	f := fuzz.NewWithSeed(42)
	for i := 0; i < 50; i++ {
		var junk string
		f.Fuzz(&junk)
		rec := te.post("/block", []byte(junk))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
