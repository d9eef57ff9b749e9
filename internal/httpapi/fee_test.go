package httpapi

import (
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"github.com/meshchain/meshnode/internal/types"
	"github.com/meshchain/meshnode/internal/walletlist"
)

// The estimate is pessimistic: for any size and pair of difficulties it
// equals the larger of the two single-difficulty prices.
func TestEstimateTxPricePessimism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.Int64Range(0, 1<<40).Draw(t, "size").(int64)
		dNow := uint256.NewInt(rapid.Uint64().Draw(t, "diffNow").(uint64))
		dNext := uint256.NewInt(rapid.Uint64().Draw(t, "diffNext").(uint64))

		got := EstimateTxPrice(size, dNow, dNext, nil, nil)
		pNow := priceFor(size, dNow, nil, nil)
		pNext := priceFor(size, dNext, nil, nil)

		if got.Cmp(pNow) < 0 || got.Cmp(pNext) < 0 {
			t.Fatalf("estimate %s below one of the single prices %s / %s", got.Dec(), pNow.Dec(), pNext.Dec())
		}
		if got.Cmp(pNow) != 0 && got.Cmp(pNext) != 0 {
			t.Fatalf("estimate %s equals neither price", got.Dec())
		}
	})
}

func TestEstimateTxPriceNewWalletSurcharge(t *testing.T) {
	wl := walletlist.New()
	known := hash32(1)
	wl.Put(known, types.WalletEntry{Address: known, Balance: uint256.NewInt(500)})
	unknown := hash32(2)

	diff := uint256.NewInt(10)
	base := EstimateTxPrice(100, diff, diff, &known, wl)
	charged := EstimateTxPrice(100, diff, diff, &unknown, wl)
	if charged.Cmp(base) <= 0 {
		t.Fatalf("unknown wallet price %s not above known wallet price %s", charged.Dec(), base.Dec())
	}
}
