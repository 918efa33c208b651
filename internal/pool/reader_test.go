package pool

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLens/internal/fixedpoint"
	"poolLens/internal/model"
)

// fakeCaller resolves eth_call payloads by 4-byte selector.
type fakeCaller struct {
	responses map[string][]byte
	errs      map[string]error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("short calldata")
	}
	selector := hex.EncodeToString(msg.Data[:4])
	if err, ok := f.errs[selector]; ok {
		return nil, err
	}
	if resp, ok := f.responses[selector]; ok {
		return resp, nil
	}
	return nil, fmt.Errorf("unexpected selector %s", selector)
}

func selectorOf(t *testing.T, method string) string {
	t.Helper()
	viewABI, err := StateViewABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	return hex.EncodeToString(viewABI.Methods[method].ID)
}

func packOutputs(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	viewABI, err := StateViewABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	out, err := viewABI.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	return out
}

func testKey(t *testing.T) model.PoolKey {
	t.Helper()
	key, err := ResolveKey(tokenLow, tokenHigh, 3000, 60, common.Address{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return key
}

func TestReaderState(t *testing.T) {
	sqrtPrice := new(big.Int).Set(fixedpoint.Q96)
	caller := &fakeCaller{responses: map[string][]byte{
		selectorOf(t, "getSlot0"): packOutputs(t, "getSlot0",
			sqrtPrice, big.NewInt(42), big.NewInt(0), big.NewInt(3000)),
		selectorOf(t, "getLiquidity"): packOutputs(t, "getLiquidity", big.NewInt(777)),
	}}

	reader := NewReader(caller, common.HexToAddress("0x4444444444444444444444444444444444444444"), zap.NewNop())
	state, err := reader.State(context.Background(), testKey(t))
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	if state.SqrtPriceX96.Cmp(sqrtPrice) != 0 {
		t.Fatalf("sqrt price mismatch: %s", state.SqrtPriceX96)
	}
	if state.Tick != 42 {
		t.Fatalf("tick mismatch: %d", state.Tick)
	}
	if state.Liquidity.Int64() != 777 {
		t.Fatalf("liquidity mismatch: %s", state.Liquidity)
	}
}

func TestReaderStateNotFound(t *testing.T) {
	t.Run("no contract answers", func(t *testing.T) {
		caller := &fakeCaller{
			responses: map[string][]byte{
				selectorOf(t, "getSlot0"):     {},
				selectorOf(t, "getLiquidity"): {},
			},
		}
		reader := NewReader(caller, common.Address{}, zap.NewNop())
		_, err := reader.State(context.Background(), testKey(t))
		if !errors.Is(err, model.ErrPoolNotFound) {
			t.Fatalf("expected ErrPoolNotFound, got %v", err)
		}
	})

	t.Run("uninitialized pool reads zero price", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string][]byte{
			selectorOf(t, "getSlot0"): packOutputs(t, "getSlot0",
				big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0)),
			selectorOf(t, "getLiquidity"): packOutputs(t, "getLiquidity", big.NewInt(0)),
		}}
		reader := NewReader(caller, common.Address{}, zap.NewNop())
		_, err := reader.State(context.Background(), testKey(t))
		if !errors.Is(err, model.ErrPoolNotFound) {
			t.Fatalf("expected ErrPoolNotFound, got %v", err)
		}
	})

	t.Run("initialized but empty pool is found", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string][]byte{
			selectorOf(t, "getSlot0"): packOutputs(t, "getSlot0",
				new(big.Int).Set(fixedpoint.Q96), big.NewInt(0), big.NewInt(0), big.NewInt(500)),
			selectorOf(t, "getLiquidity"): packOutputs(t, "getLiquidity", big.NewInt(0)),
		}}
		reader := NewReader(caller, common.Address{}, zap.NewNop())
		state, err := reader.State(context.Background(), testKey(t))
		if err != nil {
			t.Fatalf("empty pool must not be NotFound: %v", err)
		}
		if state.HasLiquidity() {
			t.Fatal("expected zero liquidity")
		}
	})
}

func TestReaderStateUnavailable(t *testing.T) {
	// A node or transport failure must not read as a missing pool.
	caller := &fakeCaller{
		responses: map[string][]byte{
			selectorOf(t, "getLiquidity"): packOutputs(t, "getLiquidity", big.NewInt(0)),
		},
		errs: map[string]error{
			selectorOf(t, "getSlot0"): errors.New("connection refused"),
		},
	}
	reader := NewReader(caller, common.Address{}, zap.NewNop())
	_, err := reader.State(context.Background(), testKey(t))
	if !errors.Is(err, model.ErrPoolUnavailable) {
		t.Fatalf("expected ErrPoolUnavailable, got %v", err)
	}
	if errors.Is(err, model.ErrPoolNotFound) {
		t.Fatalf("transport failure must not be ErrPoolNotFound: %v", err)
	}
}

func TestReaderFeeGrowthInside(t *testing.T) {
	growth0 := new(big.Int).Lsh(big.NewInt(5), 128)
	growth1 := new(big.Int).Lsh(big.NewInt(9), 128)
	caller := &fakeCaller{responses: map[string][]byte{
		selectorOf(t, "getFeeGrowthInside"): packOutputs(t, "getFeeGrowthInside", growth0, growth1),
	}}

	reader := NewReader(caller, common.Address{}, zap.NewNop())
	got0, got1, err := reader.FeeGrowthInside(context.Background(), testKey(t), -60, 60)
	if err != nil {
		t.Fatalf("fee growth: %v", err)
	}
	if got0.Cmp(growth0) != 0 || got1.Cmp(growth1) != 0 {
		t.Fatalf("growth mismatch: %s %s", got0, got1)
	}
}
