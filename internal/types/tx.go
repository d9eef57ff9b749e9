package types

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidSignature is returned when a TX's signature does not verify
// under its claimed owner key.
var ErrInvalidSignature = errors.New("types: invalid transaction signature")

// Tag is a single name/value pair attached to a transaction, indexed by
// the external tx_search backend.
type Tag struct {
	Name  []byte `json:"name"`
	Value []byte `json:"value"`
}

// TX is a posted or mined transaction.
type TX struct {
	ID        [32]byte     `json:"id"`
	Owner     []byte       `json:"owner"`  // public key
	Target    []byte       `json:"target"` // recipient address, may be empty
	Quantity  *uint256.Int `json:"quantity"`
	Data      []byte       `json:"data"`
	Reward    *uint256.Int `json:"reward"`
	Signature []byte       `json:"signature"`
	LastTx    [32]byte     `json:"last_tx"` // anchor
	Tags      []Tag        `json:"tags"`
}

// ByteSize is the payload size counted against the mempool's total
// waiting-data cap: the tx's data field.
func (t *TX) ByteSize() int { return len(t.Data) }

// Cost is the total the owner's wallet must cover for this tx to be
// admitted: reward plus quantity.
func (t *TX) Cost() *uint256.Int {
	cost := new(uint256.Int)
	if t.Reward != nil {
		cost.Add(cost, t.Reward)
	}
	if t.Quantity != nil {
		cost.Add(cost, t.Quantity)
	}
	return cost
}

// OwnerAddress derives the wallet address a public key controls.
func OwnerAddress(ownerPubKey []byte) [32]byte {
	return sha256.Sum256(ownerPubKey)
}

// SignedFields returns the sha-256 digest of the canonical signed fields.
// The signature covers this digest, and the TX id is its sha3-256 hash
// (see ComputeID).
func (t *TX) SignedFields() []byte {
	h := sha256.New()
	h.Write(t.Owner)
	h.Write(t.Target)
	writeUint256(h, t.Quantity)
	h.Write(t.Data)
	writeUint256(h, t.Reward)
	h.Write(t.LastTx[:])
	for _, tag := range t.Tags {
		h.Write(tag.Name)
		h.Write(tag.Value)
	}
	return h.Sum(nil)
}

func writeUint256(h interface{ Write([]byte) (int, error) }, v *uint256.Int) {
	if v == nil {
		return
	}
	b := v.Bytes32()
	h.Write(b[:])
}

// ComputeID hashes the signed fields the same way the id is expected to
// be derived.
func ComputeID(signedFields []byte) [32]byte {
	return sha3.Sum256(signedFields)
}

// VerifySignature checks that sig is a valid signature over hash under
// the secp256k1 public key encoded in ownerPubKey.
func VerifySignature(ownerPubKey, hash, sig []byte) error {
	pub, err := btcec.ParsePubKey(ownerPubKey)
	if err != nil {
		return ErrInvalidSignature
	}
	s, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !s.Verify(hash, pub) {
		return ErrInvalidSignature
	}
	return nil
}
