package plan

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"poolLens/internal/model"
	"poolLens/internal/pool"
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	maxUint160 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
	maxUint48  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 48), big.NewInt(1))
)

// Approval is a prerequisite transaction the caller must submit before the
// planned action can execute.
type Approval struct {
	To       common.Address `json:"to"`
	Token    common.Address `json:"token"`
	Spender  common.Address `json:"spender"`
	Calldata []byte         `json:"calldata"`
}

// requiredApprovals checks the two-hop allowance chain for an ERC-20 input
// (token -> delegate contract, delegate -> router) and returns approval
// transactions only for hops that are currently insufficient. A sufficient
// hop is never re-approved. The native sentinel needs no approvals at all.
func (p *Planner) requiredApprovals(ctx context.Context, token, owner, spender common.Address, amount *big.Int) ([]Approval, error) {
	if token == model.NativeCurrency {
		return nil, nil
	}

	approvals := make([]Approval, 0, 2)

	tokenAllowance, err := p.erc20Allowance(ctx, token, owner, p.permit2)
	if err != nil {
		return nil, fmt.Errorf("token allowance: %w", err)
	}
	if tokenAllowance.Cmp(amount) < 0 {
		calldata, err := p.encodeERC20Approve(p.permit2, maxUint256)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, Approval{
			To:       token,
			Token:    token,
			Spender:  p.permit2,
			Calldata: calldata,
		})
	}

	delegateAmount, expiration, err := p.permit2Allowance(ctx, owner, token, spender)
	if err != nil {
		return nil, fmt.Errorf("delegate allowance: %w", err)
	}
	expired := expiration != 0 && time.Unix(int64(expiration), 0).Before(p.now())
	if delegateAmount.Cmp(amount) < 0 || expired {
		calldata, err := p.encodePermit2Approve(token, spender)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, Approval{
			To:       p.permit2,
			Token:    token,
			Spender:  spender,
			Calldata: calldata,
		})
	}

	return approvals, nil
}

func (p *Planner) erc20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	erc20, err := pool.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}
	resp, err := p.backend.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call allowance: %w", err)
	}
	values, err := erc20.Unpack("allowance", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack allowance: %w", err)
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("allowance: unexpected type %T", values[0])
	}
	return allowance, nil
}

func (p *Planner) permit2Allowance(ctx context.Context, owner, token, spender common.Address) (*big.Int, uint64, error) {
	parsed, err := Permit2ABI()
	if err != nil {
		return nil, 0, fmt.Errorf("parse permit2 abi: %w", err)
	}
	data, err := parsed.Pack("allowance", owner, token, spender)
	if err != nil {
		return nil, 0, fmt.Errorf("pack permit2 allowance: %w", err)
	}
	resp, err := p.backend.CallContract(ctx, ethereum.CallMsg{To: &p.permit2, Data: data}, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("call permit2 allowance: %w", err)
	}
	values, err := parsed.Unpack("allowance", resp)
	if err != nil {
		return nil, 0, fmt.Errorf("unpack permit2 allowance: %w", err)
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("permit2 amount: unexpected type %T", values[0])
	}
	expiration, ok := values[1].(*big.Int)
	if !ok {
		return nil, 0, fmt.Errorf("permit2 expiration: unexpected type %T", values[1])
	}
	return amount, expiration.Uint64(), nil
}

func (p *Planner) encodeERC20Approve(spender common.Address, amount *big.Int) ([]byte, error) {
	erc20, err := pool.ERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	return data, nil
}

func (p *Planner) encodePermit2Approve(token, spender common.Address) ([]byte, error) {
	parsed, err := Permit2ABI()
	if err != nil {
		return nil, fmt.Errorf("parse permit2 abi: %w", err)
	}
	data, err := parsed.Pack("approve", token, spender, maxUint160, maxUint48)
	if err != nil {
		return nil, fmt.Errorf("pack permit2 approve: %w", err)
	}
	return data, nil
}
