package pool

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"poolLens/internal/fixedpoint"
	"poolLens/internal/model"
)

// ResolveKey builds a canonical PoolKey from an unordered currency pair. The
// zero address is the native-asset sentinel and always sorts first, so native
// pools have deterministic ordering.
func ResolveKey(tokenA, tokenB common.Address, fee uint32, tickSpacing int32, hooks common.Address) (model.PoolKey, error) {
	if tokenA == tokenB {
		return model.PoolKey{}, model.Validationf("currencies", "identical addresses %s", tokenA.Hex())
	}
	if err := fixedpoint.ValidateTier(fee, tickSpacing); err != nil {
		return model.PoolKey{}, err
	}

	currency0, currency1 := tokenA, tokenB
	if bytes.Compare(currency1.Bytes(), currency0.Bytes()) < 0 {
		currency0, currency1 = currency1, currency0
	}

	return model.PoolKey{
		Currency0:   currency0,
		Currency1:   currency1,
		Fee:         fee,
		TickSpacing: tickSpacing,
		Hooks:       hooks,
	}, nil
}

var poolKeyArgs = abi.Arguments{
	{Type: mustABIType("address")},
	{Type: mustABIType("address")},
	{Type: mustABIType("uint24")},
	{Type: mustABIType("int24")},
	{Type: mustABIType("address")},
}

// KeyID derives the content-addressed pool identifier:
// keccak256(abi.encode(currency0, currency1, fee, tickSpacing, hooks)).
// Hooks are part of pool identity, so keys differing only in hook address
// hash to different pools.
func KeyID(key model.PoolKey) model.PoolID {
	encoded, err := poolKeyArgs.Pack(
		key.Currency0,
		key.Currency1,
		big.NewInt(int64(key.Fee)),
		big.NewInt(int64(key.TickSpacing)),
		key.Hooks,
	)
	if err != nil {
		// Pack only fails on argument/type mismatch, which is structurally
		// impossible for a well-formed PoolKey.
		panic(err)
	}

	var id model.PoolID
	copy(id[:], crypto.Keccak256(encoded))
	return id
}

func mustABIType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
