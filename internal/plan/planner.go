package plan

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLens/internal/model"
)

const (
	bpsScale = 10000

	// planDeadline bounds how long a prepared transaction stays valid.
	planDeadline = 20 * time.Minute

	// swapGasCeiling is a generous upper bound on gas used by a single-hop
	// swap through the router, used only to size the native balance check.
	swapGasCeiling = 350000
)

// Backend is the chain surface the planner needs. *chain.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Quoter resolves the expected output of a swap so the plan can carry a
// slippage-protected minimum.
type Quoter interface {
	Quote(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int) (model.Quote, error)
}

// SwapPlan is a fully encoded router execution ready for signing.
type SwapPlan struct {
	To          common.Address `json:"to"`
	Calldata    []byte         `json:"calldata"`
	Value       *big.Int       `json:"value"`
	MinOut      *big.Int       `json:"min_out"`
	Deadline    time.Time      `json:"deadline"`
	Approvals   []Approval     `json:"approvals,omitempty"`
	Unprotected bool           `json:"unprotected,omitempty"`
}

// LiquidityPlan is an encoded position-manager modifyLiquidities call.
type LiquidityPlan struct {
	To        common.Address `json:"to"`
	Calldata  []byte         `json:"calldata"`
	Value     *big.Int       `json:"value"`
	Deadline  time.Time      `json:"deadline"`
	Approvals []Approval     `json:"approvals,omitempty"`
}

// Planner assembles unsigned transactions for swaps and liquidity changes.
// It never signs or submits anything.
type Planner struct {
	backend Backend
	quoter  Quoter
	router  common.Address
	manager common.Address
	permit2 common.Address
	now     func() time.Time
	logger  *zap.Logger
}

func NewPlanner(backend Backend, quoter Quoter, router, manager, permit2 common.Address, now func() time.Time, logger *zap.Logger) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{
		backend: backend,
		quoter:  quoter,
		router:  router,
		manager: manager,
		permit2: permit2,
		now:     now,
		logger:  logger,
	}
}

// PlanSwap builds a single-hop exact-input swap through the router. The
// action batch is always swap, settle input, take output, in that order.
// When the quote layer cannot produce a figure the plan is still built but
// carries a zero minimum and is flagged Unprotected.
func (p *Planner) PlanSwap(ctx context.Context, key model.PoolKey, zeroForOne bool, amountIn *big.Int, slippageBps uint32, owner common.Address) (*SwapPlan, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, model.Validationf("amount_in", "must be positive")
	}
	if slippageBps >= bpsScale {
		return nil, model.Validationf("slippage_bps", "must be below %d", bpsScale)
	}

	inputCurrency, outputCurrency := key.Currency0, key.Currency1
	if !zeroForOne {
		inputCurrency, outputCurrency = key.Currency1, key.Currency0
	}

	minOut := big.NewInt(0)
	unprotected := false
	q, err := p.quoter.Quote(ctx, key, zeroForOne, amountIn)
	if err != nil {
		if !errors.Is(err, model.ErrQuoteUnavailable) {
			return nil, fmt.Errorf("quote swap: %w", err)
		}
		unprotected = true
		p.logger.Warn("quote unavailable, planning without slippage protection",
			zap.String("currency0", key.Currency0.Hex()),
			zap.String("currency1", key.Currency1.Hex()),
			zap.Uint32("fee", key.Fee),
			zap.String("amount_in", amountIn.String()))
	} else {
		minOut = discountBps(q.AmountOut, slippageBps)
	}

	swapAction, err := encodeSwapExactInSingle(key, zeroForOne, amountIn, minOut)
	if err != nil {
		return nil, fmt.Errorf("encode swap action: %w", err)
	}
	settleAction, err := encodeSettleAll(inputCurrency, amountIn)
	if err != nil {
		return nil, fmt.Errorf("encode settle action: %w", err)
	}
	takeAction, err := encodeTakeAll(outputCurrency, minOut)
	if err != nil {
		return nil, fmt.Errorf("encode take action: %w", err)
	}

	actions := []byte{ActionSwapExactInSingle, ActionSettleAll, ActionTakeAll}
	batch, err := encodeActionBatch(actions, [][]byte{swapAction, settleAction, takeAction})
	if err != nil {
		return nil, fmt.Errorf("encode action batch: %w", err)
	}

	deadline := p.now().Add(planDeadline)
	router, err := RouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse router abi: %w", err)
	}
	calldata, err := router.Pack("execute", []byte{CommandV4Swap}, [][]byte{batch}, big.NewInt(deadline.Unix()))
	if err != nil {
		return nil, fmt.Errorf("pack execute: %w", err)
	}

	plan := &SwapPlan{
		To:          p.router,
		Calldata:    calldata,
		Value:       big.NewInt(0),
		MinOut:      minOut,
		Deadline:    deadline,
		Unprotected: unprotected,
	}

	if inputCurrency == model.NativeCurrency {
		plan.Value = new(big.Int).Set(amountIn)
		if err := p.checkNativeBalance(ctx, owner, amountIn); err != nil {
			return nil, err
		}
	} else {
		approvals, err := p.requiredApprovals(ctx, inputCurrency, owner, p.router, amountIn)
		if err != nil {
			return nil, fmt.Errorf("check approvals: %w", err)
		}
		plan.Approvals = approvals
	}

	return plan, nil
}

// PlanMint builds a modifyLiquidities call that mints a new position and
// settles both owed currencies.
func (p *Planner) PlanMint(ctx context.Context, key model.PoolKey, tickLower, tickUpper int32, liquidity, amount0Max, amount1Max *big.Int, owner common.Address) (*LiquidityPlan, error) {
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, model.Validationf("liquidity", "must be positive")
	}

	mintAction, err := encodeMintPosition(key, tickLower, tickUpper, liquidity, amount0Max, amount1Max, owner)
	if err != nil {
		return nil, fmt.Errorf("encode mint action: %w", err)
	}
	settleAction, err := encodeSettlePair(key.Currency0, key.Currency1)
	if err != nil {
		return nil, fmt.Errorf("encode settle pair: %w", err)
	}

	actions := []byte{ActionMintPosition, ActionSettlePair}
	plan, err := p.finishLiquidityPlan(actions, [][]byte{mintAction, settleAction})
	if err != nil {
		return nil, err
	}

	if key.Currency0 == model.NativeCurrency {
		plan.Value = new(big.Int).Set(amount0Max)
	} else {
		approvals, err := p.requiredApprovals(ctx, key.Currency0, owner, p.manager, amount0Max)
		if err != nil {
			return nil, fmt.Errorf("check currency0 approvals: %w", err)
		}
		plan.Approvals = append(plan.Approvals, approvals...)
	}
	approvals, err := p.requiredApprovals(ctx, key.Currency1, owner, p.manager, amount1Max)
	if err != nil {
		return nil, fmt.Errorf("check currency1 approvals: %w", err)
	}
	plan.Approvals = append(plan.Approvals, approvals...)

	return plan, nil
}

// PlanBurn builds a modifyLiquidities call that removes liquidity from a
// position and pays both currencies to the recipient. When burnToken is set
// the emptied position token is burned in the same batch.
func (p *Planner) PlanBurn(key model.PoolKey, tokenID, liquidity, amount0Min, amount1Min *big.Int, recipient common.Address, burnToken bool) (*LiquidityPlan, error) {
	if tokenID == nil {
		return nil, model.Validationf("token_id", "must be set")
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, model.Validationf("liquidity", "must be positive")
	}

	decreaseAction, err := encodeDecreaseLiquidity(tokenID, liquidity, amount0Min, amount1Min)
	if err != nil {
		return nil, fmt.Errorf("encode decrease action: %w", err)
	}
	takeAction, err := encodeTakePair(key.Currency0, key.Currency1, recipient)
	if err != nil {
		return nil, fmt.Errorf("encode take pair: %w", err)
	}

	actions := []byte{ActionDecreaseLiquidity, ActionTakePair}
	params := [][]byte{decreaseAction, takeAction}
	if burnToken {
		burnAction, err := encodeBurnPosition(tokenID, amount0Min, amount1Min)
		if err != nil {
			return nil, fmt.Errorf("encode burn action: %w", err)
		}
		actions = append(actions, ActionBurnPosition)
		params = append(params, burnAction)
	}

	return p.finishLiquidityPlan(actions, params)
}

// PlanCollect builds a fee collection: a zero-liquidity decrease followed by
// taking both currencies. Fees accrue in both tokens regardless of range.
func (p *Planner) PlanCollect(key model.PoolKey, tokenID *big.Int, recipient common.Address) (*LiquidityPlan, error) {
	if tokenID == nil {
		return nil, model.Validationf("token_id", "must be set")
	}

	zero := big.NewInt(0)
	decreaseAction, err := encodeDecreaseLiquidity(tokenID, zero, zero, zero)
	if err != nil {
		return nil, fmt.Errorf("encode collect action: %w", err)
	}
	takeAction, err := encodeTakePair(key.Currency0, key.Currency1, recipient)
	if err != nil {
		return nil, fmt.Errorf("encode take pair: %w", err)
	}

	actions := []byte{ActionDecreaseLiquidity, ActionTakePair}
	return p.finishLiquidityPlan(actions, [][]byte{decreaseAction, takeAction})
}

func (p *Planner) finishLiquidityPlan(actions []byte, params [][]byte) (*LiquidityPlan, error) {
	batch, err := encodeActionBatch(actions, params)
	if err != nil {
		return nil, fmt.Errorf("encode action batch: %w", err)
	}

	deadline := p.now().Add(planDeadline)
	manager, err := LiquidityManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse manager abi: %w", err)
	}
	calldata, err := manager.Pack("modifyLiquidities", batch, big.NewInt(deadline.Unix()))
	if err != nil {
		return nil, fmt.Errorf("pack modifyLiquidities: %w", err)
	}

	return &LiquidityPlan{
		To:       p.manager,
		Calldata: calldata,
		Value:    big.NewInt(0),
		Deadline: deadline,
	}, nil
}

// checkNativeBalance verifies the owner can cover the swap amount plus a
// padded gas allowance at the current suggested price.
func (p *Planner) checkNativeBalance(ctx context.Context, owner common.Address, amountIn *big.Int) error {
	balance, err := p.backend.BalanceAt(ctx, owner, nil)
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	gasPrice, err := p.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("suggest gas price: %w", err)
	}

	// Pad the gas allowance by 20 percent.
	reserve := new(big.Int).Mul(gasPrice, big.NewInt(swapGasCeiling))
	reserve.Mul(reserve, big.NewInt(120))
	reserve.Div(reserve, big.NewInt(100))

	needed := new(big.Int).Add(amountIn, reserve)
	if balance.Cmp(needed) < 0 {
		return model.Validationf("amount_in", "native balance %s below required %s", balance, needed)
	}
	return nil
}

// discountBps floors amount by the given basis points.
func discountBps(amount *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bpsScale-bps)))
	return out.Div(out, big.NewInt(bpsScale))
}
