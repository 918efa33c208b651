package fixedpoint

import "math/big"

// PositionInfo is the unpacked form of the position manager's packed info
// word: bits 0-7 the subscriber flag, bits 8-31 tickLower, bits 32-55
// tickUpper, the remainder reserved. Reserved bits survive a re-pack.
type PositionInfo struct {
	TickLower     int32
	TickUpper     int32
	HasSubscriber bool
	Reserved      *big.Int
}

// UnpackPositionInfo bit-unpacks a raw info word. Tick fields are 24-bit
// two's-complement: values at or above 2^23 are negative.
func UnpackPositionInfo(raw *big.Int) PositionInfo {
	if raw == nil {
		raw = new(big.Int)
	}
	word := new(big.Int).Set(raw)

	flag := new(big.Int).And(word, big.NewInt(0xff))
	lower := new(big.Int).Rsh(word, 8)
	lower.And(lower, big.NewInt(0xffffff))
	upper := new(big.Int).Rsh(word, 32)
	upper.And(upper, big.NewInt(0xffffff))
	reserved := new(big.Int).Rsh(word, 56)

	return PositionInfo{
		TickLower:     signExtend24(lower.Int64()),
		TickUpper:     signExtend24(upper.Int64()),
		HasSubscriber: flag.Sign() != 0,
		Reserved:      reserved,
	}
}

// PackPositionInfo is the inverse of UnpackPositionInfo.
func PackPositionInfo(info PositionInfo) *big.Int {
	word := new(big.Int)
	if info.Reserved != nil {
		word.Set(info.Reserved)
	}
	word.Lsh(word, 24)
	word.Or(word, big.NewInt(int64(uint32(info.TickUpper))&0xffffff))
	word.Lsh(word, 24)
	word.Or(word, big.NewInt(int64(uint32(info.TickLower))&0xffffff))
	word.Lsh(word, 8)
	if info.HasSubscriber {
		word.Or(word, big.NewInt(1))
	}
	return word
}

func signExtend24(v int64) int32 {
	if v >= 1<<23 {
		v -= 1 << 24
	}
	return int32(v)
}
