// Package httpapi implements the request-handling core: the Request
// Envelope, Deadline Supervisor, Body Reader, Router, and the read,
// mempool-admission, block-ingestion, ARQL and internal-API handlers
// built on top of them.
package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/meshchain/meshnode/internal/types"
)

// Reply is the terminal tuple every handler produces: status, headers,
// body. Every handler path ends in one; no error escapes a handler.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewReply builds a Reply with a plain-text body, the common case for
// short status messages.
func NewReply(status int, body string) Reply {
	return Reply{Status: status, Header: http.Header{}, Body: []byte(body)}
}

// JSONReply builds a Reply carrying a pre-encoded JSON body and the
// matching content type.
func JSONReply(status int, body []byte) Reply {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Reply{Status: status, Header: h, Body: body}
}

// Envelope represents one parsed HTTP request: its method, its path
// split into segments, its headers, the peer that sent it, and a handle
// back to the body for handlers that need to read it. The body may be
// read at most once.
type Envelope struct {
	Method    string
	Segments  []string
	RawPath   string
	Header    http.Header
	Peer      types.Peer
	RequestID string

	request  *http.Request
	bodyRead bool
}

// NewEnvelope parses r into an Envelope. defaultP2PPort is used when the
// x-p2p-port header is absent or invalid.
func NewEnvelope(r *http.Request, defaultP2PPort uint16) (*Envelope, error) {
	peer, err := types.PeerFromRemoteAddr(r.RemoteAddr, r.Header.Get("x-p2p-port"), defaultP2PPort)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Method:    r.Method,
		Segments:  splitPath(r.URL.Path),
		RawPath:   r.URL.Path,
		Header:    r.Header,
		Peer:      peer,
		RequestID: uuid.NewString(),
		request:   r,
	}, nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// ReadBody reads the full request body, subject to the maximum size
// limit. It may be called at most once; a second call returns an error.
func (e *Envelope) ReadBody(maxSize int64) ([]byte, error) {
	if e.bodyRead {
		return nil, ErrBodyAlreadyRead
	}
	e.bodyRead = true
	return ReadCompleteBody(e.request, maxSize)
}
