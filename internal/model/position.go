package model

import "math/big"

// Position is a concentrated-liquidity position identified by its NFT token id.
// tickLower < tickUpper, both multiples of the pool's tick spacing.
type Position struct {
	ChainID       uint64   `json:"chain_id"`
	TokenID       *big.Int `json:"token_id"`
	Key           PoolKey  `json:"pool_key"`
	TickLower     int32    `json:"tick_lower"`
	TickUpper     int32    `json:"tick_upper"`
	Liquidity     *big.Int `json:"liquidity"`
	HasSubscriber bool     `json:"has_subscriber"`
}

// TokenAmounts pairs an estimated redemption amount with its slippage-floored
// minimum, both in the token's raw units.
type TokenAmounts struct {
	Estimate *big.Int `json:"estimate"`
	Minimum  *big.Int `json:"minimum"`
}

// RemovalEstimate is the projected outcome of removing a share of a position's
// liquidity at the current pool price. Recomputed on every query.
type RemovalEstimate struct {
	Token0    TokenAmounts `json:"token0"`
	Token1    TokenAmounts `json:"token1"`
	Liquidity *big.Int     `json:"liquidity"`
	InRange   bool         `json:"in_range"`
	OneSided  bool         `json:"one_sided"`
}

// FeeEstimate holds unclaimed fee amounts per token in raw units.
type FeeEstimate struct {
	Amount0 *big.Int `json:"amount0"`
	Amount1 *big.Int `json:"amount1"`
}
