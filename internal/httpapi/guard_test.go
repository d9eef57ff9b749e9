package httpapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCheckInternalAPISecret(t *testing.T) {
	var slept time.Duration
	sleep := func(d time.Duration) { slept = d }

	// Matching secret passes with no delay.
	slept = 0
	require.True(t, CheckInternalAPISecret("s3cret", "s3cret", sleep))
	require.Zero(t, slept)

	// Mismatch and unset secret both reject after a jittered sleep in
	// [1s, 2s).
	for _, configured := range []string{"s3cret", ""} {
		for i := 0; i < 50; i++ {
			slept = 0
			require.False(t, CheckInternalAPISecret(configured, "wrong", sleep))
			require.GreaterOrEqual(t, slept, time.Second)
			require.Less(t, slept, 2*time.Second)
		}
	}
}

func TestRequireInternalAPI(t *testing.T) {
	called := false
	handler := RequireInternalAPI(func() string { return "s3cret" }, func(ctx context.Context, env *Envelope) Reply {
		called = true
		return NewReply(http.StatusOK, "OK")
	})

	env := &Envelope{Header: http.Header{}}
	env.Header.Set("x-internal-api-secret", "s3cret")
	reply := handler(context.Background(), env)
	require.True(t, called)
	require.Equal(t, http.StatusOK, reply.Status)

	called = false
	env.Header.Set("x-internal-api-secret", "nope")
	reply = handler(context.Background(), env)
	require.False(t, called)
	require.Equal(t, http.StatusMisdirectedRequest, reply.Status)
	require.Equal(t, "Internal API disabled or invalid internal API secret in request.", string(reply.Body))
}

func TestInternalAPIEndToEnd(t *testing.T) {
	te := newTestEnv(t)
	te.metaDB.Secret = "s3cret"

	rec := te.do(http.MethodPost, "/wallet", nil, map[string]string{"x-internal-api-secret": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mnemonic")
}
