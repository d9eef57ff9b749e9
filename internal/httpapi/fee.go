package httpapi

import (
	"github.com/holiman/uint256"
	"github.com/meshchain/meshnode/internal/collaborators"
)

// basePricePerByte anchors the simplified fee formula. The chain's full
// pricing lives in the node; the estimator only has to preserve its
// shape: price against two difficulties, take the pessimistic maximum,
// surcharge wallets the chain has not seen.
var basePricePerByte = uint256.NewInt(1)

// EstimateTxPrice returns the larger of the price at
// the current difficulty/height and the price at the next
// difficulty/height, optionally consulting the wallet list for a
// new-wallet surcharge when wallet is non-nil.
func EstimateTxPrice(sizeBytes int64, diffNow, diffNext *uint256.Int, wallet *[32]byte, wallets collaborators.WalletView) *uint256.Int {
	priceNow := priceFor(sizeBytes, diffNow, wallet, wallets)
	priceNext := priceFor(sizeBytes, diffNext, wallet, wallets)
	if priceNow.Cmp(priceNext) >= 0 {
		return priceNow
	}
	return priceNext
}

func priceFor(sizeBytes int64, diff *uint256.Int, wallet *[32]byte, wallets collaborators.WalletView) *uint256.Int {
	size := uint256.NewInt(uint64(sizeBytes))
	price := new(uint256.Int).Mul(size, basePricePerByte)
	if diff != nil && !diff.IsZero() {
		price = new(uint256.Int).Add(price, diff)
	}
	if wallet != nil && wallets != nil {
		if bal, ok := wallets.Balance(*wallet); !ok || bal.IsZero() {
			// Surcharge new/empty wallets, mirroring the real formula's
			// extra cost for wallets the chain has not seen fund a tx
			// from before.
			price = new(uint256.Int).Add(price, uint256.NewInt(1000))
		}
	}
	return price
}
