package log

import (
	"math/big"
	"strconv"
)

// FormatLogfmtInt64 formats n with thousands separators, the way large
// counters (heights, byte sizes) read better in terminal log output.
func FormatLogfmtInt64(n int64) string {
	if n < 0 {
		return "-" + FormatLogfmtUint64(uint64(-n))
	}
	return FormatLogfmtUint64(uint64(n))
}

// FormatLogfmtUint64 formats n with thousands separators beyond 99999.
func FormatLogfmtUint64(n uint64) string {
	if n < 100000 {
		return strconv.FormatUint(n, 10)
	}
	return formatLogfmtBigInt(new(big.Int).SetUint64(n))
}

func formatLogfmtBigInt(n *big.Int) string {
	neg := n.Sign() < 0
	s := new(big.Int).Abs(n).String()

	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
