package httpapi

import (
	"net/http"

	"github.com/rs/cors"
)

// corsWhitelist are the paths that get a GET,POST preflight response;
// everything else gets GET only.
var corsWhitelist = map[string]bool{
	"block": true,
	"tx":    true,
	"arql":  true,
	"peers": true,
}

// isPermissivePath reports whether the first path segment is one of the
// paths that allow POST in its CORS preflight (this also covers
// /peer/*, matched by prefix below).
func isPermissivePath(segments []string) bool {
	if len(segments) == 0 {
		return false
	}
	if corsWhitelist[segments[0]] {
		return true
	}
	return segments[0] == "peer"
}

// HandleOptions answers preflights directly: permissive with GET,POST
// for the whitelisted paths, GET only everywhere else.
func HandleOptions(env *Envelope) Reply {
	methods := "GET"
	if isPermissivePath(env.Segments) {
		methods = "GET,POST"
	}
	h := http.Header{}
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", methods)
	h.Set("Access-Control-Allow-Headers", "*")
	return Reply{Status: http.StatusOK, Header: h}
}

// newCORSMiddleware wires github.com/rs/cors as the mechanism that
// merges the default cross-origin headers into the underlying
// http.ResponseWriter for every request, regardless of which handler
// served it.
func newCORSMiddleware() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
}
