package types

import "errors"

// ErrEmptyHashList is returned by TxAnchor when the hash list has no
// entries (the node has not joined the network).
var ErrEmptyHashList = errors.New("types: hash list is empty")

// HashList is the newest-first block independent hash list (BHL). Its
// length always equals the current height plus one.
type HashList [][32]byte

// TxAnchor returns the anchor hash used for tx_anchor / new tx
// construction: the element at index min(len, MAX_TX_ANCHOR_DEPTH)/2 of
// the (0-indexed) list.
func (hl HashList) TxAnchor(maxDepth int) ([32]byte, error) {
	if len(hl) == 0 {
		return [32]byte{}, ErrEmptyHashList
	}
	depth := len(hl)
	if depth > maxDepth {
		depth = maxDepth
	}
	idx := depth / 2
	if idx >= len(hl) {
		idx = len(hl) - 1
	}
	return hl[idx], nil
}

// Contains reports whether hash is a member of the list. Linear scan;
// the list is short-lived per lookup and never sorted.
func (hl HashList) Contains(hash [32]byte) bool {
	for _, h := range hl {
		if h == hash {
			return true
		}
	}
	return false
}
