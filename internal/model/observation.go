package model

// Observation kinds recorded by the snapshot sink.
const (
	ObservationPoolState = "pool_state"
	ObservationQuote     = "quote"
)

// Observation is a recorded engine read, kept for offline diagnosis of what
// the engine saw at a given moment. Never read back by the engine itself.
type Observation struct {
	ChainID      uint64  `json:"chain_id"`
	Kind         string  `json:"kind"`
	PoolID       string  `json:"pool_id"`
	SqrtPriceX96 string  `json:"sqrt_price_x96,omitempty"`
	Tick         int32   `json:"tick,omitempty"`
	Liquidity    string  `json:"liquidity,omitempty"`
	AmountIn     string  `json:"amount_in,omitempty"`
	AmountOut    string  `json:"amount_out,omitempty"`
	Rate         float64 `json:"rate,omitempty"`
	Source       string  `json:"source,omitempty"`
	ObservedAt   int64   `json:"observed_at"`
}
