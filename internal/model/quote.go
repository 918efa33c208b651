package model

import "math/big"

// Quote sources, ordered weakest-last. The spot path ignores price impact and
// is only valid for trades small relative to pool depth.
const (
	QuoteSourceQuoter = "quoter"
	QuoteSourceSpot   = "spot"
)

// Quote is an output estimate for a single-pool trade. Rate is output per
// input in human units (decimals applied), always finite and non-negative;
// "no quote" is an error, never a zero-valued Quote.
type Quote struct {
	Key        PoolKey  `json:"pool_key"`
	ZeroForOne bool     `json:"zero_for_one"`
	AmountIn   *big.Int `json:"amount_in"`
	AmountOut  *big.Int `json:"amount_out"`
	Rate       float64  `json:"rate"`
	Source     string   `json:"source"`
}
