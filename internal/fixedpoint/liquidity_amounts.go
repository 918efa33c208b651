package fixedpoint

import "math/big"

// AmountsForLiquidity reconstructs the token amounts a liquidity amount would
// currently redeem for, given the pool's sqrt price and the position's sqrt
// price bounds. Which formula applies depends on where the current price sits
// relative to the range:
//
//	below:  all token0    amount0 = L * (su - sl) * 2^96 / (sl * su)
//	above:  all token1    amount1 = L * (su - sl) / 2^96
//	within: both          split at the current price
func AmountsForLiquidity(sqrtPriceX96, sqrtLower, sqrtUpper, liquidity *big.Int) (amount0, amount1 *big.Int) {
	amount0 = new(big.Int)
	amount1 = new(big.Int)
	if liquidity == nil || liquidity.Sign() == 0 {
		return amount0, amount1
	}
	if sqrtLower.Cmp(sqrtUpper) > 0 {
		sqrtLower, sqrtUpper = sqrtUpper, sqrtLower
	}

	switch {
	case sqrtPriceX96.Cmp(sqrtLower) <= 0:
		amount0 = amount0InRange(sqrtLower, sqrtUpper, liquidity)
	case sqrtPriceX96.Cmp(sqrtUpper) >= 0:
		amount1 = amount1InRange(sqrtLower, sqrtUpper, liquidity)
	default:
		amount0 = amount0InRange(sqrtPriceX96, sqrtUpper, liquidity)
		amount1 = amount1InRange(sqrtLower, sqrtPriceX96, liquidity)
	}
	return amount0, amount1
}

func amount0InRange(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	numerator := new(big.Int).Sub(sqrtB, sqrtA)
	numerator.Mul(numerator, liquidity)
	numerator.Mul(numerator, Q96)
	denominator := new(big.Int).Mul(sqrtA, sqrtB)
	return numerator.Div(numerator, denominator)
}

func amount1InRange(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	numerator := new(big.Int).Sub(sqrtB, sqrtA)
	numerator.Mul(numerator, liquidity)
	return numerator.Div(numerator, Q96)
}
