package main

import (
	"encoding/hex"
	"time"

	"github.com/spf13/cobra"

	"poolLens/internal/plan"
)

func runPlanSwap(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tokenIn, tokenOut, amountIn, hooks, err := swapArgs(cmd)
	if err != nil {
		return err
	}
	owner, err := requireAddress("owner", mustString(cmd, "owner"))
	if err != nil {
		return err
	}
	fee, _ := cmd.Flags().GetUint32("fee")
	spacing, _ := cmd.Flags().GetInt32("tick-spacing")

	router, err := requireAddress("router", a.cfg.Router)
	if err != nil {
		return err
	}
	permit2, err := requireAddress("permit2", a.cfg.Permit2)
	if err != nil {
		return err
	}
	manager, err := a.positionManagerAddress()
	if err != nil {
		return err
	}

	resolver, err := a.quoteResolver()
	if err != nil {
		return err
	}
	key, err := resolver.ResolveLiquidPool(ctx, tokenIn, tokenOut, fee, spacing, hooks)
	if err != nil {
		return err
	}

	planner := plan.NewPlanner(a.client, resolver, router, manager, permit2, time.Now, a.logger)
	swapPlan, err := planner.PlanSwap(ctx, key, tokenIn == key.Currency0, amountIn, a.cfg.SlippageBps, owner)
	if err != nil {
		return err
	}

	type approvalOut struct {
		To       string `json:"to"`
		Token    string `json:"token"`
		Spender  string `json:"spender"`
		Calldata string `json:"calldata"`
	}
	approvals := make([]approvalOut, 0, len(swapPlan.Approvals))
	for _, approval := range swapPlan.Approvals {
		approvals = append(approvals, approvalOut{
			To:       approval.To.Hex(),
			Token:    approval.Token.Hex(),
			Spender:  approval.Spender.Hex(),
			Calldata: "0x" + hex.EncodeToString(approval.Calldata),
		})
	}

	return printJSON(struct {
		To          string        `json:"to"`
		Calldata    string        `json:"calldata"`
		Value       string        `json:"value"`
		MinOut      string        `json:"min_out"`
		Deadline    string        `json:"deadline"`
		Unprotected bool          `json:"unprotected,omitempty"`
		Approvals   []approvalOut `json:"approvals,omitempty"`
	}{
		To:          swapPlan.To.Hex(),
		Calldata:    "0x" + hex.EncodeToString(swapPlan.Calldata),
		Value:       swapPlan.Value.String(),
		MinOut:      swapPlan.MinOut.String(),
		Deadline:    swapPlan.Deadline.UTC().Format(time.RFC3339),
		Unprotected: swapPlan.Unprotected,
		Approvals:   approvals,
	})
}
