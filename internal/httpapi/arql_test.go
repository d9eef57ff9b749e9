package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshchain/meshnode/internal/types"
)

func indexTagged(te *testEnv, id [32]byte, name, value string) {
	te.search.Index(id, []types.Tag{{Name: []byte(name), Value: []byte(value)}})
}

func TestARQLEquals(t *testing.T) {
	te := newTestEnv(t)
	t1, t2 := hash32(1), hash32(2)
	indexTagged(te, t1, "name", "v")
	indexTagged(te, t2, "name", "v")

	rec := te.post("/arql", []byte(`{"op":"equals","expr1":"name","expr2":"v"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	// Canonical order is newest first: t2 was indexed after t1.
	require.Equal(t, `["`+encode32(t2)+`","`+encode32(t1)+`"]`, rec.Body.String())
}

func TestARQLAndOr(t *testing.T) {
	te := newTestEnv(t)
	t1, t2, t3 := hash32(1), hash32(2), hash32(3)
	te.search.Index(t1, []types.Tag{{Name: []byte("app"), Value: []byte("chat")}})
	te.search.Index(t2, []types.Tag{
		{Name: []byte("app"), Value: []byte("chat")},
		{Name: []byte("kind"), Value: []byte("post")},
	})
	te.search.Index(t3, []types.Tag{{Name: []byte("kind"), Value: []byte("post")}})

	and := `{"op":"and","expr1":{"op":"equals","expr1":"app","expr2":"chat"},"expr2":{"op":"equals","expr1":"kind","expr2":"post"}}`
	rec := te.post("/arql", []byte(and))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `["`+encode32(t2)+`"]`, rec.Body.String())

	or := `{"op":"or","expr1":{"op":"equals","expr1":"app","expr2":"chat"},"expr2":{"op":"equals","expr1":"kind","expr2":"post"}}`
	rec = te.post("/arql", []byte(or))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `["`+encode32(t3)+`","`+encode32(t2)+`","`+encode32(t1)+`"]`, rec.Body.String())
}

func TestARQLInvalidQuery(t *testing.T) {
	te := newTestEnv(t)
	for _, body := range []string{
		`{"op":"nand","expr1":"a","expr2":"b"}`,
		`{"op":"equals","expr1":42,"expr2":"b"}`,
		`not even json`,
	} {
		rec := te.post("/arql", []byte(body))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Equal(t, "Invalid ARQL query.", rec.Body.String())
	}
}

func TestARQLGate(t *testing.T) {
	gate := NewARQLGate(1)
	ctx := context.Background()

	require.NoError(t, gate.Acquire(ctx, time.Second))

	// No permit free: a short wait budget runs out.
	err := gate.Acquire(ctx, 20*time.Millisecond)
	require.ErrorIs(t, err, ErrARQLBusy)

	gate.Release()
	require.NoError(t, gate.Acquire(ctx, time.Second))
	gate.Release()
}
