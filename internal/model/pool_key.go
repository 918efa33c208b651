package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeCurrency is the sentinel address representing the chain's native asset.
// It sorts lowest, so native pools always carry it as Currency0.
var NativeCurrency = common.Address{}

// PoolKey identifies a pool instance. Currencies are canonically ordered
// (Currency0 < Currency1 by address); hooks are part of pool identity.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// HasHook reports whether the pool carries a non-default hook contract.
func (k PoolKey) HasHook() bool {
	return k.Hooks != (common.Address{})
}

// PoolID is the content-addressed identifier of a PoolKey.
type PoolID [32]byte

func (id PoolID) Hex() string {
	return hexutil.Encode(id[:])
}
