package types

import "github.com/holiman/uint256"

// WalletEntry is one row of the wallet list: an address, its balance,
// and the id of the last transaction it sent (its own anchor for the
// next tx it sends).
type WalletEntry struct {
	Address [32]byte
	Balance *uint256.Int
	LastTx  [32]byte
}
