package fixedpoint

import "math/big"

// Q-notation fixed-point scales used by the pool contracts.
var (
	Q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	Q128 = new(big.Int).Lsh(big.NewInt(1), 128)
	Q192 = new(big.Int).Lsh(big.NewInt(1), 192)
	Q256 = new(big.Int).Lsh(big.NewInt(1), 256)
)

// Minimum and maximum usable ticks.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

// tierSpacing maps each allowed fee tier (parts per million) to its canonical
// tick spacing.
var tierSpacing = map[uint32]int32{
	100:   1,
	500:   10,
	3000:  60,
	10000: 200,
}

// StandardFees lists the allowed fee tiers in probing order, lowest first.
var StandardFees = []uint32{100, 500, 3000, 10000}

// SpacingForFee returns the canonical tick spacing for a fee tier.
func SpacingForFee(fee uint32) (int32, bool) {
	spacing, ok := tierSpacing[fee]
	return spacing, ok
}
