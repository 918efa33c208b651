package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLens/internal/chain"
	"poolLens/internal/fixedpoint"
	"poolLens/internal/model"
	"poolLens/internal/pool"
)

const feeScale = 1_000_000 // fee is parts per million of input

// StateReader reads live pool state for a key.
type StateReader interface {
	State(ctx context.Context, key model.PoolKey) (model.PoolState, error)
}

// DecimalsSource resolves token decimals for rate computation.
type DecimalsSource interface {
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// Resolver finds liquid pool configurations and produces output estimates.
type Resolver struct {
	reader   StateReader
	caller   chain.Caller
	quoter   common.Address
	decimals DecimalsSource
	logger   *zap.Logger
}

func NewResolver(reader StateReader, caller chain.Caller, quoter common.Address, decimals DecimalsSource, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		reader:   reader,
		caller:   caller,
		quoter:   quoter,
		decimals: decimals,
		logger:   logger,
	}
}

type candidate struct {
	fee         uint32
	tickSpacing int32
}

// candidateTiers builds the ordered probe list: the caller's preference
// first, then the standard tier table.
func candidateTiers(preferredFee uint32, preferredSpacing int32) []candidate {
	candidates := make([]candidate, 0, len(fixedpoint.StandardFees)+1)
	if preferredFee != 0 {
		spacing := preferredSpacing
		if canonical, ok := fixedpoint.SpacingForFee(preferredFee); ok && spacing == 0 {
			spacing = canonical
		}
		candidates = append(candidates, candidate{fee: preferredFee, tickSpacing: spacing})
	}
	for _, fee := range fixedpoint.StandardFees {
		if fee == preferredFee {
			continue
		}
		spacing, _ := fixedpoint.SpacingForFee(fee)
		candidates = append(candidates, candidate{fee: fee, tickSpacing: spacing})
	}
	return candidates
}

// ResolveLiquidPool probes candidate pool configurations in order until one
// holds strictly positive liquidity. Probing is sequential to bound the
// number of outstanding node requests per user action. Returns
// model.ErrNoLiquidPool when every candidate is uninitialized or empty;
// callers treat that as "trade impossible right now", not as retryable.
func (r *Resolver) ResolveLiquidPool(ctx context.Context, currencyA, currencyB common.Address, preferredFee uint32, preferredSpacing int32, hooks common.Address) (model.PoolKey, error) {
	candidates := candidateTiers(preferredFee, preferredSpacing)
	return r.firstLiquid(ctx, candidates, currencyA, currencyB, hooks)
}

// firstLiquid is the ordered first-success combinator over the candidate
// list; short-circuits on the first pool with liquidity.
func (r *Resolver) firstLiquid(ctx context.Context, candidates []candidate, currencyA, currencyB common.Address, hooks common.Address) (model.PoolKey, error) {
	for _, c := range candidates {
		key, err := pool.ResolveKey(currencyA, currencyB, c.fee, c.tickSpacing, hooks)
		if err != nil {
			r.logger.Debug("candidate rejected", zap.Uint32("fee", c.fee), zap.Error(err))
			continue
		}
		state, err := r.reader.State(ctx, key)
		if err != nil {
			if errors.Is(err, model.ErrPoolNotFound) {
				continue
			}
			// A read failure says nothing about whether liquidity
			// exists; surface it rather than reporting no-liquid-pool.
			return model.PoolKey{}, fmt.Errorf("probe tier %d: %w", c.fee, err)
		}
		if state.HasLiquidity() {
			return key, nil
		}
	}
	return model.PoolKey{}, model.ErrNoLiquidPool
}

// Quote produces an output estimate for an exact-input single-pool trade.
// The quoter contract is the primary path; when it reverts, is not
// configured, or the pool carries a hook that may demand data we cannot
// synthesize, the estimate degrades to the spot-price path, which ignores
// price impact and is only trustworthy for small trades.
func (r *Resolver) Quote(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int) (model.Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return model.Quote{}, model.Validationf("amount_in", "must be positive")
	}

	if r.quoter != (common.Address{}) && !key.HasHook() {
		amountOut, err := r.quoterAmountOut(ctx, key, zeroForOne, amountIn)
		if err == nil {
			return r.finishQuote(ctx, key, zeroForOne, amountIn, amountOut, model.QuoteSourceQuoter)
		}
		r.logger.Debug("quoter path failed, falling back to spot",
			zap.String("pool_id", pool.KeyID(key).Hex()),
			zap.Error(err))
	}

	amountOut, err := r.spotAmountOut(ctx, key, zeroForOne, amountIn)
	if err != nil {
		return model.Quote{}, err
	}
	return r.finishQuote(ctx, key, zeroForOne, amountIn, amountOut, model.QuoteSourceSpot)
}

func (r *Resolver) quoterAmountOut(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int) (*big.Int, error) {
	parsed, err := QuoterABI()
	if err != nil {
		return nil, fmt.Errorf("parse quoter abi: %w", err)
	}

	params := struct {
		PoolKey struct {
			Currency0   common.Address
			Currency1   common.Address
			Fee         *big.Int
			TickSpacing *big.Int
			Hooks       common.Address
		}
		ZeroForOne  bool
		ExactAmount *big.Int
		HookData    []byte
	}{
		ZeroForOne:  zeroForOne,
		ExactAmount: amountIn,
		HookData:    []byte{},
	}
	params.PoolKey.Currency0 = key.Currency0
	params.PoolKey.Currency1 = key.Currency1
	params.PoolKey.Fee = big.NewInt(int64(key.Fee))
	params.PoolKey.TickSpacing = big.NewInt(int64(key.TickSpacing))
	params.PoolKey.Hooks = key.Hooks

	data, err := parsed.Pack("quoteExactInputSingle", params)
	if err != nil {
		return nil, fmt.Errorf("pack quote: %w", err)
	}
	msg := ethereum.CallMsg{To: &r.quoter, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call quoter: %w", err)
	}
	values, err := parsed.Unpack("quoteExactInputSingle", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack quote: %w", err)
	}
	return normalizeQuoterResult(values)
}

// normalizeQuoterResult folds the quoter's differently-shaped result wrappers
// into a single amount. Shape probing stays here so calling code never sees it.
func normalizeQuoterResult(values []interface{}) (*big.Int, error) {
	if len(values) == 0 {
		return nil, errors.New("empty quoter result")
	}
	switch v := values[0].(type) {
	case *big.Int:
		if v.Sign() < 0 {
			return nil, fmt.Errorf("negative quoted amount %s", v)
		}
		return v, nil
	case []*big.Int:
		// Delta-array shape: the output amount is the last positive entry.
		for i := len(v) - 1; i >= 0; i-- {
			if v[i] != nil && v[i].Sign() > 0 {
				return v[i], nil
			}
		}
		return nil, errors.New("no positive delta in quoter result")
	default:
		return nil, fmt.Errorf("unsupported quoter result shape %T", values[0])
	}
}

// spotAmountOut derives an output purely from the pool's current price and
// fee tier, fee taken on input. No price-impact modeling.
func (r *Resolver) spotAmountOut(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int) (*big.Int, error) {
	state, err := r.reader.State(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrQuoteUnavailable, err)
	}

	afterFee := new(big.Int).Mul(amountIn, big.NewInt(feeScale-int64(key.Fee)))
	afterFee.Div(afterFee, big.NewInt(feeScale))

	squared := new(big.Int).Mul(state.SqrtPriceX96, state.SqrtPriceX96)
	out := new(big.Int)
	if zeroForOne {
		out.Mul(afterFee, squared)
		out.Div(out, fixedpoint.Q192)
	} else {
		if squared.Sign() == 0 {
			return nil, model.ErrQuoteUnavailable
		}
		out.Mul(afterFee, fixedpoint.Q192)
		out.Div(out, squared)
	}
	return out, nil
}

// finishQuote attaches the human-unit rate, rejecting anything that is not a
// finite non-negative number rather than surfacing it as a numeric quote.
func (r *Resolver) finishQuote(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn, amountOut *big.Int, source string) (model.Quote, error) {
	tokenIn, tokenOut := key.Currency0, key.Currency1
	if !zeroForOne {
		tokenIn, tokenOut = tokenOut, tokenIn
	}
	decimalsIn, err := r.decimals.Decimals(ctx, tokenIn)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: input decimals: %s", model.ErrQuoteUnavailable, err)
	}
	decimalsOut, err := r.decimals.Decimals(ctx, tokenOut)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: output decimals: %s", model.ErrQuoteUnavailable, err)
	}

	rate, ok := fixedpoint.RateFromAmounts(amountIn, amountOut, decimalsIn, decimalsOut)
	if !ok {
		return model.Quote{}, model.ErrQuoteUnavailable
	}

	return model.Quote{
		Key:        key,
		ZeroForOne: zeroForOne,
		AmountIn:   amountIn,
		AmountOut:  amountOut,
		Rate:       rate,
		Source:     source,
	}, nil
}
