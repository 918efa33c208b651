package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"poolLens/internal/model"
	"poolLens/internal/pool"
	"poolLens/internal/quote"
	"poolLens/internal/subgraph"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tokenIn, tokenOut, amountIn, hooks, err := swapArgs(cmd)
	if err != nil {
		return err
	}
	fee, _ := cmd.Flags().GetUint32("fee")
	spacing, _ := cmd.Flags().GetInt32("tick-spacing")

	resolver, err := a.quoteResolver()
	if err != nil {
		return err
	}

	key, err := resolver.ResolveLiquidPool(ctx, tokenIn, tokenOut, fee, spacing, hooks)
	if err != nil {
		return err
	}
	q, err := resolver.Quote(ctx, key, tokenIn == key.Currency0, amountIn)
	if err != nil {
		return err
	}

	a.record(ctx, model.Observation{
		Kind:      model.ObservationQuote,
		PoolID:    pool.KeyID(key).Hex(),
		AmountIn:  q.AmountIn.String(),
		AmountOut: q.AmountOut.String(),
		Rate:      q.Rate,
		Source:    q.Source,
	})

	return printJSON(q)
}

func runPositions(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if a.cfg.SubgraphURL == "" {
		return fmt.Errorf("subgraph url is required")
	}
	owner, err := requireAddress("owner", mustString(cmd, "owner"))
	if err != nil {
		return err
	}

	client := subgraph.NewClient(a.cfg.SubgraphURL, a.cfg.SubgraphAPIKey, a.logger)
	listings, err := client.PositionsByOwner(ctx, owner)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Owner     string                     `json:"owner"`
		Positions []subgraph.PositionListing `json:"positions"`
	}{owner.Hex(), listings})
}

func (a *app) quoteResolver() (*quote.Resolver, error) {
	view, err := a.stateViewAddress()
	if err != nil {
		return nil, err
	}
	// A zero quoter address disables the quoter path; spot pricing still works.
	quoterAddr, err := optionalAddress("quoter", a.cfg.Quoter)
	if err != nil {
		return nil, err
	}
	reader := pool.NewReader(a.client, view, a.logger)
	meta := pool.NewMetaService(a.client, a.logger)
	return quote.NewResolver(reader, a.client, quoterAddr, meta, a.logger), nil
}

func swapArgs(cmd *cobra.Command) (tokenIn, tokenOut common.Address, amountIn *big.Int, hooks common.Address, err error) {
	tokenIn, err = optionalAddress("token-in", mustString(cmd, "token-in"))
	if err != nil {
		return
	}
	tokenOut, err = requireAddress("token-out", mustString(cmd, "token-out"))
	if err != nil {
		return
	}
	amountIn, err = parseAmount(mustString(cmd, "amount-in"))
	if err != nil {
		return
	}
	hooks, err = optionalAddress("hooks", mustString(cmd, "hooks"))
	return
}
