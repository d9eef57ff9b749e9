package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/meshchain/meshnode/internal/log"
)

// HandlerFunc is what every route dispatches to: given a context and the
// parsed envelope, it produces the terminal reply.
type HandlerFunc func(ctx context.Context, env *Envelope) Reply

// statusReasonOverride covers status codes some HTTP client/server
// libraries in the wild don't recognize; when a handler returns one of
// these with an empty body we fill in the reason phrase as the body so
// such clients still see something legible. net/http itself knows 208
// ("Already Reported") natively, so in practice this is a no-op safety
// net rather than a required workaround here.
var statusReasonOverride = map[int]string{
	http.StatusAlreadyReported: "208 Already Reported",
}

// RunWithDeadline executes handler(ctx, env) under timeout. If the
// handler finishes first, its reply is written to w. If timeout elapses
// first, the handler is abandoned (its goroutine keeps running to
// completion in the background, but its result is discarded) and a 500
// "Handler timeout" is written instead, with a handler_timeout line
// logged at warn level.
//
// Handlers own the envelope and may read the body directly, so this is
// a plain context-based timeout wrapper rather than the body-brokering
// supervisor a borrowed-body HTTP stack would need.
func RunWithDeadline(w http.ResponseWriter, env *Envelope, timeout time.Duration, handler HandlerFunc, logger log.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resultCh := make(chan Reply, 1)
	go func() {
		resultCh <- handler(ctx, env)
	}()

	select {
	case reply := <-resultCh:
		writeReply(w, reply)
	case <-ctx.Done():
		logger.Warn("handler_timeout", "method", env.Method, "path", env.RawPath, "request_id", env.RequestID)
		writeReply(w, NewReply(http.StatusInternalServerError, "Handler timeout"))
	}
}

func writeReply(w http.ResponseWriter, reply Reply) {
	for k, vs := range reply.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	body := reply.Body
	if len(body) == 0 {
		if text, ok := statusReasonOverride[reply.Status]; ok {
			body = []byte(text)
		}
	}
	w.WriteHeader(reply.Status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}
