package httpapi

import (
	"context"
	"crypto/subtle"
	"math/rand"
	"net/http"
	"time"
)

// CheckInternalAPISecret is the privileged-endpoint guard.
// configuredSecret is whatever meta_db currently holds for
// internal_api_secret; an empty value always rejects. On a match it
// returns true immediately. On a mismatch (or unset secret) it sleeps a
// random duration in [1000ms, 2000ms) before returning false, to limit
// timing-side-channel inference on the secret comparison.
func CheckInternalAPISecret(configuredSecret, headerSecret string, sleep func(time.Duration)) bool {
	if configuredSecret == "" {
		jitterSleep(sleep)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(configuredSecret), []byte(headerSecret)) == 1 {
		return true
	}
	jitterSleep(sleep)
	return false
}

func jitterSleep(sleep func(time.Duration)) {
	const minMS, maxMS = 1000, 2000
	d := time.Duration(minMS+rand.Intn(maxMS-minMS)) * time.Millisecond
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(d)
}

// RequireInternalAPI wraps handler so it only runs when the request
// carries the correct x-internal-api-secret header, otherwise replying
// 421.
func RequireInternalAPI(secretSource func() string, handler HandlerFunc) HandlerFunc {
	return func(ctx context.Context, env *Envelope) Reply {
		if !CheckInternalAPISecret(secretSource(), env.Header.Get("x-internal-api-secret"), nil) {
			return NewReply(http.StatusMisdirectedRequest, "Internal API disabled or invalid internal API secret in request.")
		}
		return handler(ctx, env)
	}
}
