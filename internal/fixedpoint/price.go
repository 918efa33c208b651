package fixedpoint

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"

	"poolLens/internal/model"
)

// floatPrec is the mantissa precision for price arithmetic. 1.0001^tick spans
// roughly e^±88 over the usable range; 256 bits keeps the log-based inverse
// well inside half a tick of the true value.
const floatPrec = 256

var tickBase = big.NewFloat(1.0001).SetPrec(floatPrec)

// TickToPrice computes 1.0001^tick scaled by 10^(decimals0-decimals1), the
// human-readable token1-per-token0 price at a tick.
func TickToPrice(tick int32, decimals0, decimals1 uint8) (*big.Float, error) {
	if err := ValidateTick(tick); err != nil {
		return nil, err
	}
	price := bigfloat.Pow(tickBase, new(big.Float).SetPrec(floatPrec).SetInt64(int64(tick)))
	return adjustDecimals(price, decimals0, decimals1), nil
}

// PriceToTick inverts TickToPrice, rounding to the nearest tick.
func PriceToTick(price *big.Float, decimals0, decimals1 uint8) (int32, error) {
	if price == nil || price.Sign() <= 0 {
		return 0, model.Validationf("price", "must be positive")
	}
	raw := adjustDecimals(new(big.Float).SetPrec(floatPrec).Set(price), decimals1, decimals0)
	ratio := new(big.Float).Quo(bigfloat.Log(raw), bigfloat.Log(tickBase))
	ratio.Add(ratio, big.NewFloat(0.5))
	floor, _ := ratio.Int(nil)
	if ratio.Sign() < 0 && !ratio.IsInt() {
		floor.Sub(floor, big.NewInt(1))
	}
	if !floor.IsInt64() {
		return 0, model.Validationf("price", "maps outside tick range")
	}
	tick := floor.Int64()
	if tick < int64(MinTick) || tick > int64(MaxTick) {
		return 0, model.Validationf("price", "maps to tick %d outside usable range", tick)
	}
	return int32(tick), nil
}

// SqrtPriceX96ToPrice squares a Q64.96 sqrt price and applies the decimal
// adjustment. The squaring stays in big.Int so the full 160-bit domain is
// handled without overflow.
func SqrtPriceX96ToPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (*big.Float, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() < 0 || sqrtPriceX96.BitLen() > 160 {
		return nil, model.Validationf("sqrt_price_x96", "outside unsigned 160-bit domain")
	}
	squared := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	price := new(big.Float).SetPrec(floatPrec).SetInt(squared)
	price.Quo(price, new(big.Float).SetPrec(floatPrec).SetInt(Q192))
	return adjustDecimals(price, decimals0, decimals1), nil
}

// adjustDecimals scales a raw price by 10^(decimals0-decimals1).
func adjustDecimals(price *big.Float, decimals0, decimals1 uint8) *big.Float {
	if decimals0 == decimals1 {
		return price
	}
	diff := int(decimals0) - int(decimals1)
	scale := new(big.Float).SetPrec(floatPrec).SetInt(
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(diff))), nil))
	if diff > 0 {
		return price.Mul(price, scale)
	}
	return price.Quo(price, scale)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RateFromAmounts derives a human-unit output-per-input rate. Returns false
// when the result would not be a finite non-negative number.
func RateFromAmounts(amountIn, amountOut *big.Int, decimalsIn, decimalsOut uint8) (float64, bool) {
	if amountIn == nil || amountOut == nil || amountIn.Sign() <= 0 || amountOut.Sign() < 0 {
		return 0, false
	}
	in := new(big.Float).SetPrec(floatPrec).SetInt(amountIn)
	out := new(big.Float).SetPrec(floatPrec).SetInt(amountOut)
	in.Quo(in, pow10(decimalsIn))
	out.Quo(out, pow10(decimalsOut))
	rate, _ := new(big.Float).Quo(out, in).Float64()
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return 0, false
	}
	return rate, true
}

func pow10(decimals uint8) *big.Float {
	return new(big.Float).SetPrec(floatPrec).SetInt(
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}
