// Package keystore implements the wallet keystore behind the internal
// API: keyfile generation with a BIP-39 mnemonic, tx signing with the
// node's key, and the minimum-cost formula used when building unsigned
// transactions.
package keystore

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/holiman/uint256"
	"github.com/tyler-smith/go-bip39"

	"github.com/meshchain/meshnode/internal/collaborators"
	"github.com/meshchain/meshnode/internal/types"
)

// ErrNoNodeKey is returned by Sign when the keystore has no node key
// loaded to sign with.
var ErrNoNodeKey = errors.New("keystore: no node key loaded")

// Keystore holds the node's own signing key and mints new keyfiles.
type Keystore struct {
	mu      sync.Mutex
	nodeKey *btcec.PrivateKey
}

// New creates a Keystore with a freshly generated node key.
func New() (*Keystore, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keystore: generating node key: %w", err)
	}
	return &Keystore{nodeKey: key}, nil
}

// NewKeyfile generates a fresh key pair with a BIP-39 mnemonic backup
// phrase and returns the derived address, the mnemonic, and the
// compressed public key.
func (k *Keystore) NewKeyfile() ([32]byte, string, []byte, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return [32]byte{}, "", nil, fmt.Errorf("keystore: entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return [32]byte{}, "", nil, fmt.Errorf("keystore: mnemonic: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, "")
	keySeed := sha256.Sum256(seed)
	_, pub := btcec.PrivKeyFromBytes(keySeed[:])
	pubBytes := pub.SerializeCompressed()
	return types.OwnerAddress(pubBytes), mnemonic, pubBytes, nil
}

// Sign signs tx with the node's key, setting Owner to the node's public
// key and Signature to the DER-encoded signature over the canonical
// signed fields. The ownerHint argument is ignored; unsigned txs are
// always signed by the node itself.
func (k *Keystore) Sign(tx *types.TX, ownerHint []byte) error {
	k.mu.Lock()
	key := k.nodeKey
	k.mu.Unlock()
	if key == nil {
		return ErrNoNodeKey
	}
	tx.Owner = key.PubKey().SerializeCompressed()
	sig := ecdsa.Sign(key, tx.SignedFields())
	tx.Signature = sig.Serialize()
	return nil
}

// MinTxCost mirrors the fee estimator's base formula: a per-byte price
// on the payload plus the new-wallet surcharge when the target wallet is
// unknown to the chain.
func (k *Keystore) MinTxCost(dataSize int, target *[32]byte, quantity *uint256.Int, wallets collaborators.WalletView) *uint256.Int {
	cost := uint256.NewInt(uint64(dataSize))
	if target != nil && wallets != nil {
		if _, known := wallets.Balance(*target); !known {
			cost.Add(cost, uint256.NewInt(1000))
		}
	}
	return cost
}
