package position

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"poolLens/internal/cache"
	"poolLens/internal/chain"
	"poolLens/internal/fixedpoint"
	"poolLens/internal/model"
	"poolLens/internal/pool"
)

const bpsScale = 10000

// wrapThreshold separates a plausible accumulator wraparound from a node
// inconsistency: after mod-2^256 subtraction a genuine wrap leaves a delta
// that still fits the fee-growth working range.
var wrapThreshold = new(big.Int).Lsh(big.NewInt(1), 160)

// Engine reconstructs position token composition, removal outcomes, and
// unclaimed fees from live pool state.
type Engine struct {
	caller   chain.Caller
	reader   *pool.Reader
	manager  common.Address
	chainID  uint64
	feeCache *cache.Cache[model.FeeEstimate]
	logger   *zap.Logger
}

// NewEngine wires the accounting engine. The clock feeds the fee cache so
// tests control TTL expiry; nil defaults to time.Now.
func NewEngine(caller chain.Caller, reader *pool.Reader, manager common.Address, chainID uint64, now func() time.Time, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		caller:   caller,
		reader:   reader,
		manager:  manager,
		chainID:  chainID,
		feeCache: cache.New[model.FeeEstimate](cache.DefaultTTL, now),
		logger:   logger,
	}
}

type rawPoolKey struct {
	Currency0   common.Address
	Currency1   common.Address
	Fee         *big.Int
	TickSpacing *big.Int
	Hooks       common.Address
}

type keyInfoResult struct {
	key  model.PoolKey
	info fixedpoint.PositionInfo
	err  error
}

type liquidityResult struct {
	liquidity *big.Int
	err       error
}

// Fetch reads a position's pool key, tick range, and liquidity from the
// position manager. The two metadata reads go out concurrently.
func (e *Engine) Fetch(ctx context.Context, tokenID *big.Int) (model.Position, error) {
	if tokenID == nil || tokenID.Sign() <= 0 {
		return model.Position{}, model.Validationf("token_id", "must be positive")
	}
	keyInfoCh := make(chan keyInfoResult, 1)
	liquidityCh := make(chan liquidityResult, 1)

	go func() {
		values, err := e.callManager(ctx, "getPoolAndPositionInfo", tokenID)
		if err != nil {
			keyInfoCh <- keyInfoResult{err: err}
			return
		}
		raw := abi.ConvertType(values[0], new(rawPoolKey)).(*rawPoolKey)

		infoWord, ok := values[1].(*big.Int)
		if !ok {
			keyInfoCh <- keyInfoResult{err: fmt.Errorf("position info: unexpected type %T", values[1])}
			return
		}
		keyInfoCh <- keyInfoResult{
			key: model.PoolKey{
				Currency0:   raw.Currency0,
				Currency1:   raw.Currency1,
				Fee:         uint32(raw.Fee.Uint64()),
				TickSpacing: int32(raw.TickSpacing.Int64()),
				Hooks:       raw.Hooks,
			},
			info: fixedpoint.UnpackPositionInfo(infoWord),
		}
	}()

	go func() {
		values, err := e.callManager(ctx, "getPositionLiquidity", tokenID)
		if err != nil {
			liquidityCh <- liquidityResult{err: err}
			return
		}
		liquidity, ok := values[0].(*big.Int)
		if !ok {
			liquidityCh <- liquidityResult{err: fmt.Errorf("liquidity: unexpected type %T", values[0])}
			return
		}
		liquidityCh <- liquidityResult{liquidity: liquidity}
	}()

	keyInfo := <-keyInfoCh
	liquidity := <-liquidityCh

	if keyInfo.err != nil {
		return model.Position{}, fmt.Errorf("%w: %s", model.ErrPositionNotFound, keyInfo.err)
	}
	if liquidity.err != nil {
		return model.Position{}, fmt.Errorf("%w: %s", model.ErrPositionNotFound, liquidity.err)
	}

	return model.Position{
		ChainID:       e.chainID,
		TokenID:       new(big.Int).Set(tokenID),
		Key:           keyInfo.key,
		TickLower:     keyInfo.info.TickLower,
		TickUpper:     keyInfo.info.TickUpper,
		Liquidity:     liquidity.liquidity,
		HasSubscriber: keyInfo.info.HasSubscriber,
	}, nil
}

// EstimateRemoval projects the token amounts removing a share of the
// position's liquidity would redeem at the current price. fraction is in
// (0, 1]; slippageTolerance in [0, 1) discounts the enforceable minimums.
func (e *Engine) EstimateRemoval(ctx context.Context, pos model.Position, fraction, slippageTolerance float64) (model.RemovalEstimate, error) {
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		return model.RemovalEstimate{}, model.Validationf("fraction", "%v outside (0, 1]", fraction)
	}
	if slippageTolerance < 0 || slippageTolerance >= 1 || math.IsNaN(slippageTolerance) {
		return model.RemovalEstimate{}, model.Validationf("slippage_tolerance", "%v outside [0, 1)", slippageTolerance)
	}
	if err := fixedpoint.ValidateTickRange(pos.TickLower, pos.TickUpper, pos.Key.TickSpacing); err != nil {
		return model.RemovalEstimate{}, err
	}

	state, err := e.reader.State(ctx, pos.Key)
	if err != nil {
		return model.RemovalEstimate{}, fmt.Errorf("%w: %s", model.ErrPoolUnavailable, err)
	}

	// Removal is computed in basis points so repeated runs cannot drift on
	// float truncation.
	fractionBps := int64(math.Round(fraction * bpsScale))
	partial := new(big.Int).Mul(pos.Liquidity, big.NewInt(fractionBps))
	partial.Div(partial, big.NewInt(bpsScale))

	sqrtLower, err := fixedpoint.SqrtRatioAtTick(pos.TickLower)
	if err != nil {
		return model.RemovalEstimate{}, err
	}
	sqrtUpper, err := fixedpoint.SqrtRatioAtTick(pos.TickUpper)
	if err != nil {
		return model.RemovalEstimate{}, err
	}

	amount0, amount1 := fixedpoint.AmountsForLiquidity(state.SqrtPriceX96, sqrtLower, sqrtUpper, partial)

	slippageBps := int64(math.Round(slippageTolerance * bpsScale))
	minimum0 := applySlippageFloor(amount0, slippageBps)
	minimum1 := applySlippageFloor(amount1, slippageBps)

	return model.RemovalEstimate{
		Token0:    model.TokenAmounts{Estimate: amount0, Minimum: minimum0},
		Token1:    model.TokenAmounts{Estimate: amount1, Minimum: minimum1},
		Liquidity: partial,
		InRange:   state.Tick >= pos.TickLower && state.Tick <= pos.TickUpper,
		OneSided:  minimum0.Sign() == 0 || minimum1.Sign() == 0,
	}, nil
}

// applySlippageFloor discounts an amount by slippage basis points with the
// same integer floor the protocol enforces on-chain.
func applySlippageFloor(amount *big.Int, slippageBps int64) *big.Int {
	floor := new(big.Int).Mul(amount, big.NewInt(bpsScale-slippageBps))
	return floor.Div(floor, big.NewInt(bpsScale))
}

// EstimateUnclaimedFees derives unclaimed fees from the delta between the
// pool's current fee-growth-inside and the position's last-recorded values.
// Results are cached for cache.DefaultTTL keyed by (chain, token id).
func (e *Engine) EstimateUnclaimedFees(ctx context.Context, pos model.Position) (model.FeeEstimate, error) {
	cacheKey := e.feeCacheKey(pos)
	if cached, ok := e.feeCache.Get(cacheKey); ok {
		return cached, nil
	}

	current0, current1, err := e.reader.FeeGrowthInside(ctx, pos.Key, pos.TickLower, pos.TickUpper)
	if err != nil {
		return model.FeeEstimate{}, fmt.Errorf("%w: %s", model.ErrPoolUnavailable, err)
	}

	last0, last1 := new(big.Int), new(big.Int)
	positionID := positionStorageID(e.manager, pos.TickLower, pos.TickUpper, pos.TokenID)
	read0, read1, err := e.reader.PositionLastGrowth(ctx, pos.Key, positionID)
	if err != nil {
		// Over-estimates rather than blocking the caller; logged so a
		// degraded read is never mistaken for a genuine zero-fee state.
		e.logger.Warn("last fee growth unavailable, treating as zero",
			zap.String("token_id", pos.TokenID.String()),
			zap.Error(err))
	} else {
		last0, last1 = read0, read1
	}

	estimate := model.FeeEstimate{
		Amount0: e.unclaimed(pos, 0, current0, last0),
		Amount1: e.unclaimed(pos, 1, current1, last1),
	}
	e.feeCache.Set(cacheKey, estimate)
	return estimate, nil
}

// InvalidateFees drops the cached estimate for a position. Call after any
// mutating action (mint, burn, collect) against it succeeds.
func (e *Engine) InvalidateFees(pos model.Position) {
	e.feeCache.Invalidate(e.feeCacheKey(pos))
}

func (e *Engine) feeCacheKey(pos model.Position) cache.Key {
	return cache.Key{ChainID: pos.ChainID, EntityID: pos.TokenID.String()}
}

// unclaimed scales a fee-growth delta by position liquidity. The delta is
// clamped at zero: growth can wrap or momentarily regress across pool state
// transitions, and a negative delta must never become a negative estimate.
func (e *Engine) unclaimed(pos model.Position, token int, current, last *big.Int) *big.Int {
	delta := new(big.Int).Sub(current, last)
	if delta.Sign() < 0 {
		wrapped := new(big.Int).Add(delta, fixedpoint.Q256)
		if wrapped.Cmp(wrapThreshold) < 0 {
			e.logger.Warn("fee growth wraparound suspected, clamping to zero",
				zap.Int("token", token),
				zap.String("token_id", pos.TokenID.String()),
				zap.String("current", current.String()),
				zap.String("last", last.String()))
		} else {
			e.logger.Warn("fee growth regressed, clamping to zero",
				zap.Int("token", token),
				zap.String("token_id", pos.TokenID.String()),
				zap.String("current", current.String()),
				zap.String("last", last.String()))
		}
		return new(big.Int)
	}

	delta.Mul(delta, pos.Liquidity)
	return delta.Div(delta, fixedpoint.Q128)
}

// positionStorageID reproduces the pool manager's position keying scheme:
// keccak256(owner ‖ tickLower ‖ tickUpper ‖ salt) over tightly packed bytes,
// where the manager is the owner and the token id the salt.
func positionStorageID(owner common.Address, tickLower, tickUpper int32, tokenID *big.Int) [32]byte {
	packed := make([]byte, 0, 20+3+3+32)
	packed = append(packed, owner.Bytes()...)
	packed = append(packed, int24Bytes(tickLower)...)
	packed = append(packed, int24Bytes(tickUpper)...)
	salt := make([]byte, 32)
	tokenID.FillBytes(salt)
	packed = append(packed, salt...)

	var id [32]byte
	copy(id[:], crypto.Keccak256(packed))
	return id
}

func int24Bytes(tick int32) []byte {
	v := uint32(tick) & 0xffffff
	return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
}

func (e *Engine) callManager(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	managerABI, err := ManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse manager abi: %w", err)
	}
	data, err := managerABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &e.manager, Data: data}
	resp, err := e.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: empty returndata", method)
	}
	values, err := managerABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
