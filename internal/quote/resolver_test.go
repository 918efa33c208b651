package quote

import (
	"context"
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

var (
	tokenA   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenB   = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	hookAddr = common.HexToAddress("0x9999999999999999999999999999999999999999")
)

// fakeReader serves pool state by fee tier and records probe order.
type fakeReader struct {
	states map[uint32]model.PoolState
	errs   map[uint32]error
	probed []uint32
}

func (f *fakeReader) State(_ context.Context, key model.PoolKey) (model.PoolState, error) {
	f.probed = append(f.probed, key.Fee)
	if err, ok := f.errs[key.Fee]; ok {
		return model.PoolState{}, err
	}
	state, ok := f.states[key.Fee]
	if !ok {
		return model.PoolState{}, model.ErrPoolNotFound
	}
	return state, nil
}

type fakeDecimals map[common.Address]uint8

func (f fakeDecimals) Decimals(_ context.Context, token common.Address) (uint8, error) {
	decimals, ok := f[token]
	if !ok {
		return 0, fmt.Errorf("unknown token %s", token.Hex())
	}
	return decimals, nil
}

type fakeCaller struct {
	response []byte
	err      error
	calls    int
}

func (f *fakeCaller) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func liquidState(liquidity int64) model.PoolState {
	return model.PoolState{
		SqrtPriceX96: new(big.Int).Set(fixedpoint.Q96),
		Tick:         0,
		Liquidity:    big.NewInt(liquidity),
	}
}

func bothDecimals18() fakeDecimals {
	return fakeDecimals{tokenA: 18, tokenB: 18}
}

func TestResolveLiquidPoolProbeOrder(t *testing.T) {
	reader := &fakeReader{states: map[uint32]model.PoolState{
		500:  liquidState(0),
		3000: liquidState(1_000_000),
	}}
	resolver := NewResolver(reader, &fakeCaller{}, common.Address{}, bothDecimals18(), zap.NewNop())

	key, err := resolver.ResolveLiquidPool(context.Background(), tokenA, tokenB, 500, 10, common.Address{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if key.Fee != 3000 || key.TickSpacing != 60 {
		t.Fatalf("expected the fee-3000 fallback, got %+v", key)
	}
	if len(reader.probed) < 2 || reader.probed[0] != 500 {
		t.Fatalf("preferred tier must be probed first: %v", reader.probed)
	}
	if reader.probed[len(reader.probed)-1] != 3000 {
		t.Fatalf("probing must stop at the liquid tier: %v", reader.probed)
	}
}

func TestResolveLiquidPoolExhausted(t *testing.T) {
	reader := &fakeReader{states: map[uint32]model.PoolState{
		3000: liquidState(0), // initialized but empty
	}}
	resolver := NewResolver(reader, &fakeCaller{}, common.Address{}, bothDecimals18(), zap.NewNop())

	_, err := resolver.ResolveLiquidPool(context.Background(), tokenA, tokenB, 0, 0, common.Address{})
	if !errors.Is(err, model.ErrNoLiquidPool) {
		t.Fatalf("expected ErrNoLiquidPool, got %v", err)
	}
	if len(reader.probed) != len(fixedpoint.StandardFees) {
		t.Fatalf("every standard tier must be probed: %v", reader.probed)
	}
}

func TestResolveLiquidPoolSurfacesReadFailure(t *testing.T) {
	// A dead node is not "no liquid pool exists"; the read failure must
	// surface instead of continuing to a misleading exhaustion result.
	reader := &fakeReader{errs: map[uint32]error{
		500: fmt.Errorf("%w: slot0: connection refused", model.ErrPoolUnavailable),
	}}
	resolver := NewResolver(reader, &fakeCaller{}, common.Address{}, bothDecimals18(), zap.NewNop())

	_, err := resolver.ResolveLiquidPool(context.Background(), tokenA, tokenB, 500, 10, common.Address{})
	if !errors.Is(err, model.ErrPoolUnavailable) {
		t.Fatalf("expected ErrPoolUnavailable, got %v", err)
	}
	if errors.Is(err, model.ErrNoLiquidPool) {
		t.Fatalf("read failure must not be ErrNoLiquidPool: %v", err)
	}
	if len(reader.probed) != 1 {
		t.Fatalf("probing must stop at the failed read, probed %v", reader.probed)
	}
}

func liquidKey(t *testing.T, fee uint32, hooks common.Address) model.PoolKey {
	t.Helper()
	spacing, _ := fixedpoint.SpacingForFee(fee)
	return model.PoolKey{
		Currency0:   tokenA,
		Currency1:   tokenB,
		Fee:         fee,
		TickSpacing: spacing,
		Hooks:       hooks,
	}
}

func TestQuoteSpotFallback(t *testing.T) {
	// 1:1 price, fee 3000: 100 in must yield 99.7 out.
	reader := &fakeReader{states: map[uint32]model.PoolState{3000: liquidState(1_000_000)}}
	resolver := NewResolver(reader, &fakeCaller{}, common.Address{}, bothDecimals18(), zap.NewNop())

	amountIn := new(big.Int).Mul(big.NewInt(100), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	quote, err := resolver.Quote(context.Background(), liquidKey(t, 3000, common.Address{}), true, amountIn)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	want, _ := new(big.Int).SetString("99700000000000000000", 10)
	if quote.AmountOut.Cmp(want) != 0 {
		t.Fatalf("amount out mismatch: got %s want %s", quote.AmountOut, want)
	}
	if quote.Rate != 0.997 {
		t.Fatalf("rate mismatch: %v", quote.Rate)
	}
	if quote.Source != model.QuoteSourceSpot {
		t.Fatalf("expected spot source, got %s", quote.Source)
	}
}

func TestQuoteQuoterPrimary(t *testing.T) {
	quoterAddr := common.HexToAddress("0x5555555555555555555555555555555555555555")
	parsed, err := QuoterABI()
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	amountOut := big.NewInt(987654)
	resp, err := parsed.Methods["quoteExactInputSingle"].Outputs.Pack(amountOut, big.NewInt(120000))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	reader := &fakeReader{states: map[uint32]model.PoolState{3000: liquidState(1)}}
	caller := &fakeCaller{response: resp}
	resolver := NewResolver(reader, caller, quoterAddr, bothDecimals18(), zap.NewNop())

	quote, err := resolver.Quote(context.Background(), liquidKey(t, 3000, common.Address{}), true, big.NewInt(1000000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Source != model.QuoteSourceQuoter {
		t.Fatalf("expected quoter source, got %s", quote.Source)
	}
	if quote.AmountOut.Cmp(amountOut) != 0 {
		t.Fatalf("amount out mismatch: %s", quote.AmountOut)
	}
	if caller.calls != 1 {
		t.Fatalf("expected one quoter call, saw %d", caller.calls)
	}
}

func TestQuoteHookedPoolSkipsQuoter(t *testing.T) {
	quoterAddr := common.HexToAddress("0x5555555555555555555555555555555555555555")
	reader := &fakeReader{states: map[uint32]model.PoolState{3000: liquidState(1)}}
	caller := &fakeCaller{err: errors.New("quoter must not be called for hooked pools")}
	resolver := NewResolver(reader, caller, quoterAddr, bothDecimals18(), zap.NewNop())

	quote, err := resolver.Quote(context.Background(), liquidKey(t, 3000, hookAddr), true, big.NewInt(1000000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Source != model.QuoteSourceSpot {
		t.Fatalf("hooked pool must use the spot path, got %s", quote.Source)
	}
	if caller.calls != 0 {
		t.Fatal("quoter was called for a hooked pool")
	}
}

func TestQuoteRevertFallsBack(t *testing.T) {
	quoterAddr := common.HexToAddress("0x5555555555555555555555555555555555555555")
	reader := &fakeReader{states: map[uint32]model.PoolState{3000: liquidState(1)}}
	caller := &fakeCaller{err: errors.New("execution reverted")}
	resolver := NewResolver(reader, caller, quoterAddr, bothDecimals18(), zap.NewNop())

	quote, err := resolver.Quote(context.Background(), liquidKey(t, 3000, common.Address{}), true, big.NewInt(1000000))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Source != model.QuoteSourceSpot {
		t.Fatalf("revert must degrade to spot, got %s", quote.Source)
	}
}

func TestQuoteUnavailable(t *testing.T) {
	t.Run("pool state unreadable", func(t *testing.T) {
		reader := &fakeReader{}
		resolver := NewResolver(reader, &fakeCaller{err: errors.New("reverted")}, common.Address{}, bothDecimals18(), zap.NewNop())
		_, err := resolver.Quote(context.Background(), liquidKey(t, 3000, common.Address{}), true, big.NewInt(1))
		if !errors.Is(err, model.ErrQuoteUnavailable) {
			t.Fatalf("expected ErrQuoteUnavailable, got %v", err)
		}
	})

	t.Run("rejects non-positive input", func(t *testing.T) {
		reader := &fakeReader{states: map[uint32]model.PoolState{3000: liquidState(1)}}
		resolver := NewResolver(reader, &fakeCaller{}, common.Address{}, bothDecimals18(), zap.NewNop())
		if _, err := resolver.Quote(context.Background(), liquidKey(t, 3000, common.Address{}), true, big.NewInt(0)); err == nil {
			t.Fatal("zero input must be rejected")
		}
	})
}

func TestNormalizeQuoterResult(t *testing.T) {
	if _, err := normalizeQuoterResult(nil); err == nil {
		t.Fatal("empty result must error")
	}
	got, err := normalizeQuoterResult([]interface{}{big.NewInt(5), big.NewInt(100000)})
	if err != nil || got.Int64() != 5 {
		t.Fatalf("flat shape: %v %v", got, err)
	}
	got, err = normalizeQuoterResult([]interface{}{[]*big.Int{big.NewInt(-3), big.NewInt(7)}})
	if err != nil || got.Int64() != 7 {
		t.Fatalf("delta shape: %v %v", got, err)
	}
	if _, err := normalizeQuoterResult([]interface{}{"bogus"}); err == nil {
		t.Fatal("unknown shape must error")
	}
}
