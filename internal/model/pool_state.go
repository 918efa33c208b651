package model

import "math/big"

// PoolState is a point-in-time snapshot of a pool's live fields. Consumers
// re-fetch for fresh figures; nothing in the engine mutates it.
type PoolState struct {
	SqrtPriceX96 *big.Int `json:"sqrt_price_x96"`
	Tick         int32    `json:"tick"`
	Liquidity    *big.Int `json:"liquidity"`
}

// HasLiquidity reports whether the pool holds strictly positive liquidity.
func (s PoolState) HasLiquidity() bool {
	return s.Liquidity != nil && s.Liquidity.Sign() > 0
}
