package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/meshchain/meshnode/internal/log"
)

func discardLogger() log.Logger {
	return log.NewLogger(log.JSONHandler(io.Discard))
}

func TestRunWithDeadlineCompletes(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := httptest.NewRecorder()
	env := &Envelope{Method: "GET", RawPath: "/x", Header: http.Header{}}
	RunWithDeadline(rec, env, time.Second, func(ctx context.Context, env *Envelope) Reply {
		return NewReply(http.StatusOK, "done")
	}, discardLogger())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "done", rec.Body.String())
}

func TestRunWithDeadlineTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer func() {
		close(release)
		goleak.VerifyNone(t)
	}()

	rec := httptest.NewRecorder()
	env := &Envelope{Method: "POST", RawPath: "/slow", Header: http.Header{}}
	RunWithDeadline(rec, env, 20*time.Millisecond, func(ctx context.Context, env *Envelope) Reply {
		<-release
		return NewReply(http.StatusOK, "too late")
	}, discardLogger())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Handler timeout", rec.Body.String())
}

func TestStatusReasonOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	writeReply(rec, Reply{Status: http.StatusAlreadyReported, Header: http.Header{}})
	require.Equal(t, http.StatusAlreadyReported, rec.Code)
	require.Equal(t, "208 Already Reported", rec.Body.String())
}
