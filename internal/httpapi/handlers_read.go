package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/meshchain/meshnode/internal/params"
	"github.com/meshchain/meshnode/internal/types"
)

// currentDeps is the Deps bundle the handlers run against, bound once at
// NewServer time. Keeping it package-level keeps the registration table
// in router.go free of per-route closures; a process runs one Server.
var currentDeps *Deps

func bind(deps *Deps) { currentDeps = deps }

type infoResponse struct {
	Network          string `json:"network"`
	Version          int    `json:"version"`
	Release          int    `json:"release"`
	Height           int64  `json:"height"`
	Current          string `json:"current"`
	Blocks           int    `json:"blocks"`
	Peers            int    `json:"peers"`
	QueueLength      int    `json:"queue_length"`
	NodeStateLatency int64  `json:"node_state_latency"`
}

func handleInfo(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	t0 := time.Now()
	height, _ := d.Node.Height()
	t1 := time.Now()
	hash, hasHash := d.Node.CurrentBlockHash()
	t2 := time.Now()
	latency := (t1.Sub(t0).Microseconds() + t2.Sub(t1).Microseconds()) / 2

	current := "not_joined"
	if hasHash {
		current = encode32(hash)
	}

	resp := infoResponse{
		Network:          params.NetworkName,
		Version:          params.Version,
		Release:          params.ReleaseNumber,
		Height:           height,
		Current:          current,
		Blocks:           d.Storage.BlocksOnDisk(),
		Peers:            len(d.Peers.Peers(env.Peer)),
		QueueLength:      d.Node.QueueLength(),
		NodeStateLatency: latency,
	}
	body, _ := json.Marshal(resp)
	return JSONReply(http.StatusOK, body)
}

func handleTime(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	return NewReply(http.StatusOK, strconv.FormatInt(currentDeps.now().Unix(), 10))
}

func handleHeight(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	if !d.Node.IsJoined() {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	height, _ := d.Node.Height()
	return NewReply(http.StatusOK, strconv.FormatInt(height, 10))
}

func handlePeers(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	sightings := currentDeps.Peers.Peers(env.Peer)
	strs := make([]string, len(sightings))
	for i, s := range sightings {
		strs[i] = s.Peer.String()
	}
	body, _ := json.Marshal(strs)
	return JSONReply(http.StatusOK, body)
}

type peerAnnounceBody struct {
	Network string `json:"network"`
}

func handlePeerAnnounce(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	body, err := env.ReadBody(currentDeps.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	var in peerAnnounceBody
	if err := json.Unmarshal(body, &in); err != nil || in.Network != params.NetworkName {
		return NewReply(http.StatusBadRequest, "Wrong network.")
	}
	currentDeps.Bridge.AddRemotePeer(env.Peer)
	return NewReply(http.StatusOK, "OK")
}

func handleHashList(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	hl, err := currentDeps.Node.HashList()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	strs := make([]string, len(hl))
	for i, h := range hl {
		strs[i] = encode32(h)
	}
	body, _ := json.Marshal(strs)
	return JSONReply(http.StatusOK, body)
}

type walletListEntry struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	LastTx  string `json:"last_tx"`
}

func handleWalletList(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	var out []walletListEntry
	currentDeps.WalletList.Each(func(addr [32]byte, e types.WalletEntry) {
		out = append(out, walletListEntry{
			Address: encode32(addr),
			Balance: e.Balance.Dec(),
			LastTx:  encode32(e.LastTx),
		})
	})
	body, _ := json.Marshal(out)
	return JSONReply(http.StatusOK, body)
}

func handleTxAnchor(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	hl, err := currentDeps.Node.HashList()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	anchor, err := hl.TxAnchor(currentDeps.MaxTxAnchorDepth)
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid hash list.")
	}
	return NewReply(http.StatusOK, encode32(anchor))
}

func handlePrice(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	sizeBytes, err := strconv.ParseInt(ps.ByName("bytes"), 10, 64)
	if err != nil || sizeBytes < 0 {
		return NewReply(http.StatusBadRequest, "Invalid size.")
	}
	var addr *[32]byte
	if a := ps.ByName("addr"); a != "" {
		decoded, err := decodeAddr(a)
		if err != nil {
			return NewReply(http.StatusBadRequest, "Invalid address.")
		}
		addr = &decoded
	}

	d := currentDeps
	height, err := d.Node.Height()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	diffNow, err := d.Node.CurrentDiff()
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}
	diffNext, err := d.Node.Diff(height + 1)
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Not joined.")
	}

	price := EstimateTxPrice(sizeBytes, diffNow, diffNext, addr, d.WalletList)
	return NewReply(http.StatusOK, price.Dec())
}

// handleTxFamily dispatches GET /tx/pending, /tx/{hash},
// /tx/{hash}/status, /tx/{hash}/data.{ext} and /tx/{hash}/{field} on the
// parsed segments. The family shares one catch-all route because
// "pending" occupies the same path position as a tx hash.
func handleTxFamily(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	segs := splitPath(ps.ByName("rest"))
	if len(segs) == 0 {
		return NewReply(http.StatusBadRequest, "Request type not found.")
	}
	if segs[0] == "pending" {
		return JSONReply(http.StatusOK, encodeIDs(d.Mempool.PendingIDs()))
	}
	hash, err := decodeHash(segs[0])
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid hash.")
	}
	switch {
	case len(segs) == 1:
		return txStream(d, hash)
	case len(segs) == 2 && segs[1] == "status":
		return txStatus(d, hash)
	case len(segs) == 2 && strings.HasPrefix(segs[1], "data."):
		return txData(d, hash, strings.TrimPrefix(segs[1], "data."))
	case len(segs) == 2:
		return txField(d, hash, segs[1])
	}
	return NewReply(http.StatusBadRequest, "Request type not found.")
}

func txStream(d *Deps, hash [32]byte) Reply {
	path, ok := d.Storage.LookupTxFilename(hash)
	if !ok {
		if d.Mempool.Contains(hash) {
			return NewReply(http.StatusAccepted, "Pending")
		}
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	raw, err := d.Storage.ReadTxFile(path)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Reply{Status: http.StatusOK, Header: h, Body: raw}
}

type txStatusResponse struct {
	BlockHeight           int64  `json:"block_height"`
	BlockIndepHash        string `json:"block_indep_hash"`
	NumberOfConfirmations int64  `json:"number_of_confirmations"`
}

func txStatus(d *Deps, hash [32]byte) Reply {
	height, indepHash, ok := d.TxSearch.BlockOfTx(hash)
	if !ok {
		if d.Mempool.Contains(hash) {
			return NewReply(http.StatusAccepted, "Pending")
		}
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	current, err := d.Node.Height()
	if err != nil {
		current = height
	}
	resp := txStatusResponse{
		BlockHeight:           height,
		BlockIndepHash:        encode32(indepHash),
		NumberOfConfirmations: current - height + 1,
	}
	body, _ := json.Marshal(resp)
	return JSONReply(http.StatusOK, body)
}

func txData(d *Deps, hash [32]byte, ext string) Reply {
	path, ok := d.Storage.LookupTxFilename(hash)
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	raw, err := d.Storage.ReadTxFile(path)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	tx, err := decodeTX(raw)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	h := http.Header{}
	h.Set("Content-Type", contentTypeForTag(tx.Tags, ext))
	return Reply{Status: http.StatusOK, Header: h, Body: tx.Data}
}

// contentTypeForTag returns the value of the Content-Type tag (a tag
// named "Content-Type", matched case-insensitively), falling back to
// application/octet-stream. The requested extension is not consulted.
func contentTypeForTag(tags []types.Tag, ext string) string {
	for _, t := range tags {
		if strings.EqualFold(string(t.Name), "content-type") {
			return string(t.Value)
		}
	}
	return "application/octet-stream"
}

func txField(d *Deps, hash [32]byte, field string) Reply {
	if field == "tags" {
		tags, err := d.TxSearch.GetTagsByID(hash)
		if err != nil {
			return NewReply(http.StatusNotFound, "Not Found.")
		}
		body, _ := json.Marshal(tags)
		return JSONReply(http.StatusOK, body)
	}
	path, ok := d.Storage.LookupTxFilename(hash)
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	raw, err := d.Storage.ReadTxFile(path)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	v, ok := m[field]
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	return JSONReply(http.StatusOK, v)
}

func handleWalletBalance(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	addr, err := decodeAddr(ps.ByName("addr"))
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid address.")
	}
	bal, err := d.Node.Balance(ctx, addr)
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Balance lookup timed out.")
	}
	return NewReply(http.StatusOK, bal.Dec())
}

func handleWalletLastTx(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	addr, err := decodeAddr(ps.ByName("addr"))
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid address.")
	}
	last, err := d.Node.LastTx(ctx, addr)
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Lookup timed out.")
	}
	return NewReply(http.StatusOK, encode32(last))
}

func handleWalletTxs(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	return walletIndexHandler(ctx, env, ps, "from")
}

func handleWalletDeposits(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	return walletIndexHandler(ctx, env, ps, "to")
}

func walletIndexHandler(ctx context.Context, env *Envelope, ps httprouter.Params, tagName string) Reply {
	d := currentDeps
	addr, err := decodeAddr(ps.ByName("addr"))
	if err != nil {
		return NewReply(http.StatusBadRequest, "Invalid address.")
	}
	ids, err := d.TxSearch.GetEntries(tagName, encode32(addr))
	if err != nil {
		return NewReply(http.StatusServiceUnavailable, "Search backend unavailable.")
	}
	ids = d.TxSearch.SortTxIDs(ids)

	if earliest := ps.ByName("earliest"); earliest != "" {
		earliestID, err := decodeHash(earliest)
		if err != nil {
			return NewReply(http.StatusBadRequest, "Invalid hash.")
		}
		for i, id := range ids {
			if id == earliestID {
				ids = ids[:i+1]
				break
			}
		}
	}
	return JSONReply(http.StatusOK, encodeIDs(ids))
}

// handleBlockFamily dispatches GET /block/current,
// /block/{hash|height}/{id} and /block/{hash|height}/{id}/{field} on the
// parsed segments. "current" resolves to /block/hash/{head} before
// taking the same lookup path.
func handleBlockFamily(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	d := currentDeps
	segs := splitPath(ps.ByName("rest"))
	if len(segs) > 0 && segs[0] == "current" {
		hash, ok := d.Node.CurrentBlockHash()
		if !ok {
			return NewReply(http.StatusServiceUnavailable, "Not joined.")
		}
		segs = append([]string{"hash", encode32(hash)}, segs[1:]...)
	}
	switch len(segs) {
	case 2:
		return blockByKey(env, segs[0], segs[1])
	case 3:
		return blockSubfield(segs[0], segs[1], segs[2])
	}
	return NewReply(http.StatusBadRequest, "Request type not found.")
}

// validateBlockKey checks the id against its kind: base64url for
// "hash", base-10 for "height".
func validateBlockKey(kind, id string) Reply {
	switch kind {
	case "hash":
		if _, err := decodeHash(id); err != nil {
			return NewReply(http.StatusBadRequest, "Invalid hash.")
		}
	case "height":
		if _, err := decodeHeight(id); err != nil {
			return NewReply(http.StatusBadRequest, "Invalid height.")
		}
	default:
		return NewReply(http.StatusBadRequest, "Request type not found.")
	}
	return Reply{}
}

func blockByKey(env *Envelope, kind, id string) Reply {
	d := currentDeps
	if r := validateBlockKey(kind, id); r.Status != 0 {
		return r
	}

	path, ok := d.Storage.LookupBlockFilename(id)
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}

	if env.Header.Get("x-block-format") == "1" {
		if !d.MetaDB.APICompat() {
			return NewReply(http.StatusUpgradeRequired, "Request type no longer served.")
		}
		if cached := d.LegacyCache.Get(nil, []byte(path)); len(cached) > 0 {
			return JSONReply(http.StatusOK, cached)
		}
		hl, _ := d.Node.HashList()
		raw, err := d.Storage.ReadBlockFile(path, hl)
		if err != nil {
			return NewReply(http.StatusNotFound, "Not Found.")
		}
		reply := legacyBlockFormat(raw, hl)
		if reply.Status == http.StatusOK {
			d.LegacyCache.Set([]byte(path), reply.Body)
		}
		return reply
	}

	hl, _ := d.Node.HashList()
	raw, err := d.Storage.ReadBlockFile(path, hl)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Reply{Status: http.StatusOK, Header: h, Body: raw}
}

// legacyBlockFormat regenerates the block with tx ids inlined and the
// hash list attached, for clients still negotiating x-block-format: 1.
func legacyBlockFormat(raw []byte, hl types.HashList) Reply {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return NewReply(http.StatusInternalServerError, "Invalid stored block.")
	}
	hashStrs := make([]string, len(hl))
	for i, h := range hl {
		hashStrs[i] = encode32(h)
	}
	hashListJSON, _ := json.Marshal(hashStrs)
	m["hash_list"] = hashListJSON
	body, _ := json.Marshal(m)
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return Reply{Status: http.StatusOK, Header: h, Body: body}
}

func blockSubfield(kind, id, field string) Reply {
	d := currentDeps
	if !d.MetaDB.SubfieldQueries() {
		return NewReply(http.StatusMisdirectedRequest, "Subfield queries are disabled on this node.")
	}
	if r := validateBlockKey(kind, id); r.Status != 0 {
		return r
	}

	path, ok := d.Storage.LookupBlockFilename(id)
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	hl, _ := d.Node.HashList()
	raw, err := d.Storage.ReadBlockFile(path, hl)
	if err != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return NewReply(http.StatusNotFound, "Not Found.")
	}
	v, ok := m[field]
	if !ok {
		return NewReply(http.StatusNotFound, "Not Found.")
	}

	// Raw fields are unwrapped from their JSON string form (already
	// base64url text in storage); decimal fields from their JSON number
	// form; txs/hash_list/wallet_list stay JSON.
	switch field {
	case "nonce", "hash", "indep_hash":
		var s string
		if json.Unmarshal(v, &s) == nil {
			return NewReply(http.StatusOK, s)
		}
	case "timestamp", "last_retarget", "diff", "height":
		var n json.Number
		if json.Unmarshal(v, &n) == nil {
			return NewReply(http.StatusOK, n.String())
		}
	}
	return JSONReply(http.StatusOK, v)
}

// handleHashShorthand serves GET /{hash}{.ext} as shorthand for
// /tx/{hash}/data.{ext}; it runs from the router's NotFound fallback, so
// anything that fails to parse as a hash is an unrecognized route.
func handleHashShorthand(ctx context.Context, env *Envelope) Reply {
	raw := env.Segments[0]
	hashPart := raw
	ext := ""
	if i := strings.Index(raw, "."); i >= 0 {
		hashPart, ext = raw[:i], raw[i+1:]
	}
	hash, err := decodeHash(hashPart)
	if err != nil {
		return NewReply(http.StatusBadRequest, "Request type not found.")
	}
	return txData(currentDeps, hash, ext)
}

func handleServicesGet(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	body, _ := json.Marshal(currentDeps.Services.List())
	return JSONReply(http.StatusOK, body)
}

func handleServicesPost(ctx context.Context, env *Envelope, ps httprouter.Params) Reply {
	body, err := env.ReadBody(currentDeps.MaxBodySize)
	if err != nil {
		return NewReply(http.StatusRequestEntityTooLarge, "Request body too large.")
	}
	var svc ServiceEntry
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) || json.Unmarshal(body, &svc) != nil {
		return NewReply(http.StatusBadRequest, "Invalid service.")
	}
	currentDeps.Services.Add(svc)
	return NewReply(http.StatusOK, "OK")
}
