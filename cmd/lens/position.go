package main

import (
	"time"

	"github.com/spf13/cobra"

	"poolLens/internal/model"
	"poolLens/internal/pool"
	"poolLens/internal/position"
)

func runPosition(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tokenID, err := parseTokenID(mustString(cmd, "token-id"))
	if err != nil {
		return err
	}
	fraction, _ := cmd.Flags().GetFloat64("fraction")
	slippage, _ := cmd.Flags().GetFloat64("slippage")

	engine, err := a.positionEngine()
	if err != nil {
		return err
	}

	pos, err := engine.Fetch(ctx, tokenID)
	if err != nil {
		return err
	}
	estimate, err := engine.EstimateRemoval(ctx, pos, fraction, slippage)
	if err != nil {
		return err
	}

	return printJSON(struct {
		Position model.Position        `json:"position"`
		Removal  model.RemovalEstimate `json:"removal"`
	}{pos, estimate})
}

func runFees(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	tokenID, err := parseTokenID(mustString(cmd, "token-id"))
	if err != nil {
		return err
	}

	engine, err := a.positionEngine()
	if err != nil {
		return err
	}

	pos, err := engine.Fetch(ctx, tokenID)
	if err != nil {
		return err
	}
	fees, err := engine.EstimateUnclaimedFees(ctx, pos)
	if err != nil {
		return err
	}

	return printJSON(struct {
		TokenID string            `json:"token_id"`
		Fees    model.FeeEstimate `json:"fees"`
	}{tokenID.String(), fees})
}

func (a *app) positionEngine() (*position.Engine, error) {
	view, err := a.stateViewAddress()
	if err != nil {
		return nil, err
	}
	manager, err := a.positionManagerAddress()
	if err != nil {
		return nil, err
	}
	reader := pool.NewReader(a.client, view, a.logger)
	return position.NewEngine(a.client, reader, manager, a.cfg.ChainID, time.Now, a.logger), nil
}
