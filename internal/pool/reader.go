package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLens/internal/chain"
	"poolLens/internal/model"
)

// Reader fetches live pool state from the state-view contract.
type Reader struct {
	caller chain.Caller
	view   common.Address
	logger *zap.Logger
}

// NewReader builds a Reader bound to a state-view contract address.
func NewReader(caller chain.Caller, view common.Address, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{caller: caller, view: view, logger: logger}
}

type slot0Result struct {
	sqrtPriceX96 *big.Int
	tick         int32
	err          error
}

type liquidityResult struct {
	liquidity *big.Int
	err       error
}

// errEmptyReturndata marks an eth_call that succeeded but returned no data,
// meaning no contract answered at the target.
var errEmptyReturndata = errors.New("empty returndata")

// State reads slot0 and aggregate liquidity for a pool key. The two calls go
// out concurrently and are joined. A pool that was never initialized returns
// model.ErrPoolNotFound; an initialized pool with zero liquidity is a normal
// result, since it might still accept a mint. A call that fails outright
// (transport or node error) returns model.ErrPoolUnavailable instead, so
// callers never mistake a dead node for a missing pool.
func (r *Reader) State(ctx context.Context, key model.PoolKey) (model.PoolState, error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse state view abi: %w", err)
	}
	id := KeyID(key)

	slot0Ch := make(chan slot0Result, 1)
	liquidityCh := make(chan liquidityResult, 1)

	go func() {
		values, err := r.call(ctx, viewABI, "getSlot0", [32]byte(id))
		if err != nil {
			slot0Ch <- slot0Result{err: err}
			return
		}
		sqrtPrice, err := asBigInt(values[0])
		if err != nil {
			slot0Ch <- slot0Result{err: fmt.Errorf("sqrtPriceX96: %w", err)}
			return
		}
		tickInt, err := asBigInt(values[1])
		if err != nil {
			slot0Ch <- slot0Result{err: fmt.Errorf("tick: %w", err)}
			return
		}
		tick, err := int24FromBig(tickInt)
		if err != nil {
			slot0Ch <- slot0Result{err: fmt.Errorf("tick: %w", err)}
			return
		}
		slot0Ch <- slot0Result{sqrtPriceX96: sqrtPrice, tick: tick}
	}()

	go func() {
		values, err := r.call(ctx, viewABI, "getLiquidity", [32]byte(id))
		if err != nil {
			liquidityCh <- liquidityResult{err: err}
			return
		}
		liquidity, err := asBigInt(values[0])
		if err != nil {
			liquidityCh <- liquidityResult{err: fmt.Errorf("liquidity: %w", err)}
			return
		}
		liquidityCh <- liquidityResult{liquidity: liquidity}
	}()

	slot0 := <-slot0Ch
	liquidity := <-liquidityCh

	if slot0.err != nil {
		return model.PoolState{}, r.classifyReadError(id, "slot0", slot0.err)
	}
	if liquidity.err != nil {
		return model.PoolState{}, r.classifyReadError(id, "liquidity", liquidity.err)
	}
	if slot0.sqrtPriceX96.Sign() == 0 {
		// slot0 of an uninitialized pool reads back as zero.
		return model.PoolState{}, model.ErrPoolNotFound
	}

	return model.PoolState{
		SqrtPriceX96: slot0.sqrtPriceX96,
		Tick:         slot0.tick,
		Liquidity:    liquidity.liquidity,
	}, nil
}

// classifyReadError maps a failed state read onto the error taxonomy. Empty
// returndata means nothing is deployed at the pool's accounting slot, so the
// pool does not exist; anything else is a node or transport failure.
func (r *Reader) classifyReadError(id model.PoolID, field string, err error) error {
	r.logger.Debug(field+" read failed", zap.String("pool_id", id.Hex()), zap.Error(err))
	if errors.Is(err, errEmptyReturndata) {
		return fmt.Errorf("%w: %s: %s", model.ErrPoolNotFound, field, err)
	}
	return fmt.Errorf("%w: %s: %s", model.ErrPoolUnavailable, field, err)
}

// FeeGrowthInside reads the pool's current fee-growth-inside accumulators for
// a tick range.
func (r *Reader) FeeGrowthInside(ctx context.Context, key model.PoolKey, tickLower, tickUpper int32) (growth0, growth1 *big.Int, err error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse state view abi: %w", err)
	}
	id := KeyID(key)

	values, err := r.call(ctx, viewABI, "getFeeGrowthInside", [32]byte(id), big.NewInt(int64(tickLower)), big.NewInt(int64(tickUpper)))
	if err != nil {
		return nil, nil, fmt.Errorf("get fee growth inside: %w", err)
	}
	growth0, err = asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("fee growth 0: %w", err)
	}
	growth1, err = asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("fee growth 1: %w", err)
	}
	return growth0, growth1, nil
}

// PositionLastGrowth reads a position's last-recorded fee-growth-inside
// values from pool storage. positionID follows the pool manager's position
// keying scheme.
func (r *Reader) PositionLastGrowth(ctx context.Context, key model.PoolKey, positionID [32]byte) (last0, last1 *big.Int, err error) {
	viewABI, err := StateViewABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse state view abi: %w", err)
	}
	id := KeyID(key)

	values, err := r.call(ctx, viewABI, "getPositionInfo", [32]byte(id), positionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get position info: %w", err)
	}
	last0, err = asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("last growth 0: %w", err)
	}
	last1, err = asBigInt(values[2])
	if err != nil {
		return nil, nil, fmt.Errorf("last growth 1: %w", err)
	}
	return last0, last1, nil
}

func (r *Reader) call(ctx context.Context, viewABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := viewABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &r.view, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("call %s: %w", method, errEmptyReturndata)
	}
	values, err := viewABI.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}
