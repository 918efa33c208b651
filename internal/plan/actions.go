package plan

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"poolLens/internal/model"
)

// Router command byte for a pool-manager swap batch.
const CommandV4Swap = 0x10

// Pool action identifiers. Ordering within a plan is protocol-significant:
// the swap must run before its input is settled, and the output is taken
// only after settling.
const (
	ActionIncreaseLiquidity = 0x00
	ActionDecreaseLiquidity = 0x01
	ActionMintPosition      = 0x02
	ActionBurnPosition      = 0x03
	ActionSwapExactInSingle = 0x06
	ActionSettle            = 0x0b
	ActionSettleAll         = 0x0c
	ActionSettlePair        = 0x0d
	ActionTake              = 0x0e
	ActionTakeAll           = 0x0f
	ActionTakePair          = 0x11
)

var (
	addressT  = mustType("address")
	int24T    = mustType("int24")
	uint128T  = mustType("uint128")
	uint256T  = mustType("uint256")
	bytesT    = mustType("bytes")
	bytesArrT = mustType("bytes[]")

	poolKeyT = mustTupleType([]abi.ArgumentMarshaling{
		{Name: "currency0", Type: "address"},
		{Name: "currency1", Type: "address"},
		{Name: "fee", Type: "uint24"},
		{Name: "tickSpacing", Type: "int24"},
		{Name: "hooks", Type: "address"},
	})
)

func mustType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

func mustTupleType(components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

type abiPoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

func toABIPoolKey(key model.PoolKey) abiPoolKey {
	return abiPoolKey{
		Currency0:   key.Currency0,
		Currency1:   key.Currency1,
		Fee:         big.NewInt(int64(key.Fee)),
		TickSpacing: big.NewInt(int64(key.TickSpacing)),
		Hooks:       key.Hooks,
	}
}

// encodeSwapExactInSingle packs the parameters for a single-pool exact-input
// swap action.
func encodeSwapExactInSingle(key model.PoolKey, zeroForOne bool, amountIn, minOut *big.Int) ([]byte, error) {
	params := abi.Arguments{{Type: mustTupleType([]abi.ArgumentMarshaling{
		{Name: "poolKey", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "currency0", Type: "address"},
			{Name: "currency1", Type: "address"},
			{Name: "fee", Type: "uint24"},
			{Name: "tickSpacing", Type: "int24"},
			{Name: "hooks", Type: "address"},
		}},
		{Name: "zeroForOne", Type: "bool"},
		{Name: "amountIn", Type: "uint128"},
		{Name: "amountOutMinimum", Type: "uint128"},
		{Name: "hookData", Type: "bytes"},
	})}}
	value := struct {
		PoolKey          abiPoolKey
		ZeroForOne       bool
		AmountIn         *big.Int
		AmountOutMinimum *big.Int
		HookData         []byte
	}{toABIPoolKey(key), zeroForOne, amountIn, minOut, []byte{}}
	return params.Pack(value)
}

func encodeSettleAll(currency common.Address, maxAmount *big.Int) ([]byte, error) {
	params := abi.Arguments{{Type: addressT}, {Type: uint256T}}
	return params.Pack(currency, maxAmount)
}

func encodeTakeAll(currency common.Address, minAmount *big.Int) ([]byte, error) {
	params := abi.Arguments{{Type: addressT}, {Type: uint256T}}
	return params.Pack(currency, minAmount)
}

func encodeMintPosition(key model.PoolKey, tickLower, tickUpper int32, liquidity, amount0Max, amount1Max *big.Int, owner common.Address) ([]byte, error) {
	params := abi.Arguments{
		{Type: poolKeyT},
		{Type: int24T},
		{Type: int24T},
		{Type: uint256T},
		{Type: uint128T},
		{Type: uint128T},
		{Type: addressT},
		{Type: bytesT},
	}
	return params.Pack(toABIPoolKey(key),
		big.NewInt(int64(tickLower)), big.NewInt(int64(tickUpper)),
		liquidity, amount0Max, amount1Max, owner, []byte{})
}

func encodeSettlePair(currency0, currency1 common.Address) ([]byte, error) {
	params := abi.Arguments{{Type: addressT}, {Type: addressT}}
	return params.Pack(currency0, currency1)
}

func encodeDecreaseLiquidity(tokenID, liquidity, amount0Min, amount1Min *big.Int) ([]byte, error) {
	params := abi.Arguments{
		{Type: uint256T},
		{Type: uint256T},
		{Type: uint128T},
		{Type: uint128T},
		{Type: bytesT},
	}
	return params.Pack(tokenID, liquidity, amount0Min, amount1Min, []byte{})
}

func encodeTakePair(currency0, currency1, recipient common.Address) ([]byte, error) {
	params := abi.Arguments{{Type: addressT}, {Type: addressT}, {Type: addressT}}
	return params.Pack(currency0, currency1, recipient)
}

func encodeBurnPosition(tokenID, amount0Min, amount1Min *big.Int) ([]byte, error) {
	params := abi.Arguments{
		{Type: uint256T},
		{Type: uint128T},
		{Type: uint128T},
		{Type: bytesT},
	}
	return params.Pack(tokenID, amount0Min, amount1Min, []byte{})
}

// encodeActionBatch packs an ordered action list with its parameters into
// the unlock-data blob the execution layer expects.
func encodeActionBatch(actions []byte, params [][]byte) ([]byte, error) {
	args := abi.Arguments{{Type: bytesT}, {Type: bytesArrT}}
	return args.Pack(actions, params)
}
