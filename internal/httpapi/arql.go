package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/semaphore"

	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/params"
)

// ARQLGate bounds concurrent ARQL evaluations: a
// non-negative integer permit count with a bounded wait.
type ARQLGate struct {
	sem *semaphore.Weighted
}

// NewARQLGate creates a gate allowing permits concurrent evaluations.
func NewARQLGate(permits int64) *ARQLGate {
	return &ARQLGate{sem: semaphore.NewWeighted(permits)}
}

// ErrARQLBusy is returned when no permit becomes available within the
// wait budget.
var ErrARQLBusy = errors.New("httpapi: arql concurrency gate exhausted")

// Acquire blocks for up to wait for a permit.
func (g *ARQLGate) Acquire(ctx context.Context, wait time.Duration) error {
	acquireCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := g.sem.Acquire(acquireCtx, 1); err != nil {
		return ErrARQLBusy
	}
	return nil
}

// Release returns the permit.
func (g *ARQLGate) Release() { g.sem.Release(1) }

// handleARQL serializes and throttles tag-search queries against the
// external index: acquire a permit, parse, evaluate, reply with
// the deduplicated id set in canonical order.
func handleARQL(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	if err := d.ARQLGate.Acquire(ctx, params.ARQLSemaphoreWait); err != nil {
		return NewReply(http.StatusServiceUnavailable, "ARQL unavailable.")
	}
	defer d.ARQLGate.Release()

	body, err := env.ReadBody(d.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	ids, err := EvaluateARQL(body, d.TxSearch)
	if err != nil {
		if errors.Is(err, ErrInvalidARQLQuery) {
			return NewReply(http.StatusBadRequest, "Invalid ARQL query.")
		}
		return NewReply(http.StatusServiceUnavailable, "Search backend unavailable.")
	}
	return JSONReply(http.StatusOK, encodeIDs(ids))
}

// arqlQuery is the query grammar: {op, expr1, expr2} where op
// is and/or/equals and leaves are name/value string pairs, or, for
// and/or, nested queries.
type arqlQuery struct {
	Op    string          `json:"op"`
	Expr1 json.RawMessage `json:"expr1"`
	Expr2 json.RawMessage `json:"expr2"`
}

// ErrInvalidARQLQuery is returned for malformed or unrecognized queries.
var ErrInvalidARQLQuery = errors.New("httpapi: invalid arql query")

// EvaluateARQL parses and evaluates body against search, returning the
// matching tx ids deduplicated and ordered by the index's canonical
// order.
func EvaluateARQL(body []byte, search collaborators.TxSearch) ([][32]byte, error) {
	var q arqlQuery
	if err := json.Unmarshal(body, &q); err != nil {
		return nil, ErrInvalidARQLQuery
	}
	ids, err := evalQuery(q, search)
	if err != nil {
		return nil, err
	}
	deduped := ids.ToSlice()
	return search.SortTxIDs(deduped), nil
}

func evalQuery(q arqlQuery, search collaborators.TxSearch) (mapset.Set[[32]byte], error) {
	switch q.Op {
	case "equals":
		var name, value string
		if err := json.Unmarshal(q.Expr1, &name); err != nil {
			return nil, ErrInvalidARQLQuery
		}
		if err := json.Unmarshal(q.Expr2, &value); err != nil {
			return nil, ErrInvalidARQLQuery
		}
		ids, err := search.GetEntries(name, value)
		if err != nil {
			return nil, fmt.Errorf("arql: equals lookup: %w", err)
		}
		set := mapset.NewThreadUnsafeSet[[32]byte]()
		for _, id := range ids {
			set.Add(id)
		}
		return set, nil

	case "and", "or":
		var sub1, sub2 arqlQuery
		if err := json.Unmarshal(q.Expr1, &sub1); err != nil {
			return nil, ErrInvalidARQLQuery
		}
		if err := json.Unmarshal(q.Expr2, &sub2); err != nil {
			return nil, ErrInvalidARQLQuery
		}
		set1, err := evalQuery(sub1, search)
		if err != nil {
			return nil, err
		}
		set2, err := evalQuery(sub2, search)
		if err != nil {
			return nil, err
		}
		if q.Op == "and" {
			return set1.Intersect(set2), nil
		}
		return set1.Union(set2), nil

	default:
		return nil, ErrInvalidARQLQuery
	}
}
