package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/meshchain/meshnode/internal/params"
)

// Server wires the Router, Deadline Supervisor, CORS middleware and Peer
// Accounting into a single http.Handler.
type Server struct {
	deps   *Deps
	router *httprouter.Router
	cors   http.Handler
}

// NewServer builds the full request-handling pipeline.
func NewServer(deps *Deps) *Server {
	bind(deps)
	s := &Server{deps: deps}
	s.router = buildRouter(deps)
	s.cors = newCORSMiddleware().Handler(http.HandlerFunc(s.serveRouted))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.cors.ServeHTTP(w, r)
}

func (s *Server) serveRouted(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		s.serveOptions(w, r)
		return
	}
	s.router.ServeHTTP(w, r)
}

func (s *Server) serveOptions(w http.ResponseWriter, r *http.Request) {
	env, err := NewEnvelope(r, uint16(params.DefaultP2PPort))
	if err != nil {
		writeReply(w, NewReply(http.StatusBadRequest, "Invalid peer address."))
		return
	}
	s.deps.Peers.Observe(env.Peer, env.Method, env.RawPath, s.deps.MetaDB.HTTPLogging(), s.deps.now())
	writeReply(w, HandleOptions(env))
}

// routeHandler is a HandlerFunc with httprouter's parsed path parameters
// attached; wrap turns one into the http.Handler httprouter dispatches
// to, threading the request through envelope construction, peer
// accounting and the deadline supervisor exactly the same way for every
// route.
type routeHandler func(ctx context.Context, env *Envelope, ps httprouter.Params) Reply

func wrap(deps *Deps, h routeHandler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		env, err := NewEnvelope(r, uint16(params.DefaultP2PPort))
		if err != nil {
			writeReply(w, NewReply(http.StatusBadRequest, "Invalid peer address."))
			return
		}
		deps.Peers.Observe(env.Peer, env.Method, env.RawPath, deps.MetaDB.HTTPLogging(), deps.now())
		w.Header().Set("x-request-id", env.RequestID)

		RunWithDeadline(w, env, params.HandlerTimeout, func(ctx context.Context, env *Envelope) Reply {
			return h(ctx, env, ps)
		}, deps.Logger)
	}
}

// buildRouter registers the routing table. httprouter keeps one tree per
// method and rejects a static segment alongside a parameter at the same
// position, so the route families whose second segment is dynamic AND
// has reserved words (tx: "pending", block: "current"/"hash"/"height")
// are registered as a single catch-all each and dispatched on the parsed
// segments inside the handler. The root-level "/{hash}{.ext}" shorthand
// and the delegated /api/ipfs/* prefix live in the NotFound fallback for
// the same reason.
func buildRouter(deps *Deps) *httprouter.Router {
	r := httprouter.New()
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.HandleMethodNotAllowed = false

	reg := func(method, path string, h routeHandler) {
		r.Handle(method, path, wrap(deps, h))
	}

	reg(http.MethodGet, "/", handleInfo)
	reg(http.MethodHead, "/", handleInfo)
	reg(http.MethodGet, "/info", handleInfo)
	reg(http.MethodHead, "/info", handleInfo)

	reg(http.MethodGet, "/time", handleTime)
	reg(http.MethodGet, "/height", handleHeight)
	reg(http.MethodGet, "/peers", handlePeers)
	reg(http.MethodPost, "/peers", handlePeerAnnounce)
	reg(http.MethodGet, "/hash_list", handleHashList)
	reg(http.MethodGet, "/wallet_list", handleWalletList)
	reg(http.MethodGet, "/tx_anchor", handleTxAnchor)

	reg(http.MethodGet, "/price/:bytes", handlePrice)
	reg(http.MethodGet, "/price/:bytes/:addr", handlePrice)

	reg(http.MethodGet, "/tx/*rest", handleTxFamily)
	reg(http.MethodPost, "/tx", handleTxAdmission)
	reg(http.MethodPost, "/arql", handleARQL)

	reg(http.MethodGet, "/wallet/:addr/balance", handleWalletBalance)
	reg(http.MethodGet, "/wallet/:addr/last_tx", handleWalletLastTx)
	reg(http.MethodGet, "/wallet/:addr/txs", handleWalletTxs)
	reg(http.MethodGet, "/wallet/:addr/txs/:earliest", handleWalletTxs)
	reg(http.MethodGet, "/wallet/:addr/deposits", handleWalletDeposits)
	reg(http.MethodGet, "/wallet/:addr/deposits/:earliest", handleWalletDeposits)

	reg(http.MethodGet, "/block/*rest", handleBlockFamily)
	reg(http.MethodPost, "/block", handleBlockIngest)

	reg(http.MethodGet, "/services", handleServicesGet)
	reg(http.MethodPost, "/services", handleServicesPost)

	reg(http.MethodPost, "/wallet", RequireInternalRoute(handleWalletIssue))
	reg(http.MethodPost, "/unsigned_tx", RequireInternalRoute(handleUnsignedTx))

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/ipfs/") {
			writeReply(w, handleIPFSDelegate(req))
			return
		}
		env, err := NewEnvelope(req, uint16(params.DefaultP2PPort))
		if err != nil {
			writeReply(w, NewReply(http.StatusBadRequest, "Invalid peer address."))
			return
		}
		if req.Method == http.MethodGet && len(env.Segments) == 1 {
			deps.Peers.Observe(env.Peer, env.Method, env.RawPath, deps.MetaDB.HTTPLogging(), deps.now())
			RunWithDeadline(w, env, params.HandlerTimeout, handleHashShorthand, deps.Logger)
			return
		}
		writeReply(w, NewReply(http.StatusBadRequest, "Request type not found."))
	})
	return r
}

// RequireInternalRoute adapts RequireInternalAPI (which wraps a plain
// HandlerFunc) to a routeHandler, so the internal-API endpoints share
// the same guard.
func RequireInternalRoute(h routeHandler) routeHandler {
	return func(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
		guarded := RequireInternalAPI(func() string { return currentDeps.MetaDB.InternalAPISecret() }, func(ctx context.Context, env *Envelope) Reply {
			return h(ctx, env, ps)
		})
		return guarded(ctx, env)
	}
}

func handleIPFSDelegate(r *http.Request) Reply {
	// The IPFS adapter is an external collaborator; the router's
	// contract is only to recognize and delegate the path.
	return NewReply(http.StatusNotImplemented, "IPFS delegation not configured.")
}
