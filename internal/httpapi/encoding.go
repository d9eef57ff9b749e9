package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/types"
)

func parseUint256(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errInvalidEncoding{"integer field"}
	}
	return v, nil
}

// b64 is the unpadded base64url alphabet used throughout the HTTP
// surface for hashes and addresses.
var b64 = base64.URLEncoding.WithPadding(base64.NoPadding)

// errInvalidEncoding is returned by decodeHash/decodeAddr on malformed
// base64url input or unexpected decoded length.
type errInvalidEncoding struct{ what string }

func (e errInvalidEncoding) Error() string { return "httpapi: invalid " + e.what }

func decode32(s, what string) ([32]byte, error) {
	var out [32]byte
	raw, err := b64.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, errInvalidEncoding{what}
	}
	copy(out[:], raw)
	return out, nil
}

func decodeHash(s string) ([32]byte, error) { return decode32(s, "hash") }
func decodeAddr(s string) ([32]byte, error) { return decode32(s, "address") }

func encode32(b [32]byte) string { return b64.EncodeToString(b[:]) }

func encodeIDs(ids [][32]byte) []byte {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = encode32(id)
	}
	out, _ := json.Marshal(strs)
	return out
}

func decodeHeight(s string) (int64, error) {
	h, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errInvalidEncoding{"height"}
	}
	return h, nil
}

// txJSON is the wire representation of types.TX: addresses, ids and
// the anchor are base64url text rather than raw bytes, and quantity /
// reward are decimal strings (both are how the real node's JSON
// encodes a TX, and how https://pkg.go.dev/github.com/holiman/uint256
// round-trips through encoding/json without a custom MarshalJSON).
type txJSON struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Target    string    `json:"target"`
	Quantity  string    `json:"quantity"`
	Data      string    `json:"data"`
	Reward    string    `json:"reward"`
	Signature string    `json:"signature"`
	LastTx    string    `json:"last_tx"`
	Tags      []tagJSON `json:"tags"`
}

type tagJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func decodeTX(body []byte) (*types.TX, error) {
	var in txJSON
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, err
	}
	tx := &types.TX{}
	var err error
	if tx.ID, err = decode32(in.ID, "id"); err != nil {
		return nil, err
	}
	if tx.Owner, err = b64.DecodeString(in.Owner); err != nil {
		return nil, err
	}
	if in.Target != "" {
		if tx.Target, err = b64.DecodeString(in.Target); err != nil {
			return nil, err
		}
	}
	if tx.Data, err = b64.DecodeString(in.Data); err != nil {
		return nil, err
	}
	if tx.Signature, err = b64.DecodeString(in.Signature); err != nil {
		return nil, err
	}
	if tx.LastTx, err = decode32(in.LastTx, "last_tx"); err != nil {
		return nil, err
	}
	tx.Quantity, err = parseUint256(in.Quantity)
	if err != nil {
		return nil, err
	}
	tx.Reward, err = parseUint256(in.Reward)
	if err != nil {
		return nil, err
	}
	for _, t := range in.Tags {
		name, err := b64.DecodeString(t.Name)
		if err != nil {
			return nil, err
		}
		value, err := b64.DecodeString(t.Value)
		if err != nil {
			return nil, err
		}
		tx.Tags = append(tx.Tags, types.Tag{Name: name, Value: value})
	}
	return tx, nil
}
