package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolLens/internal/chain"
	"poolLens/internal/config"
	"poolLens/internal/model"
	"poolLens/internal/pool"
	"poolLens/internal/storage"
	"poolLens/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "lens",
		Short:        "Concentrated-liquidity pool and position lens",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Read live pool state",
		RunE:  runPool,
	}
	addCommonFlags(poolCmd)
	addPairFlags(poolCmd)
	root.AddCommand(poolCmd)

	positionCmd := &cobra.Command{
		Use:   "position",
		Short: "Estimate a liquidity removal from a position",
		RunE:  runPosition,
	}
	addCommonFlags(positionCmd)
	positionCmd.Flags().String("token-id", "", "position token id")
	positionCmd.Flags().Float64("fraction", 1.0, "share of liquidity to remove, in (0, 1]")
	positionCmd.Flags().Float64("slippage", 0.005, "slippage tolerance, in [0, 1)")
	root.AddCommand(positionCmd)

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Estimate unclaimed fees on a position",
		RunE:  runFees,
	}
	addCommonFlags(feesCmd)
	feesCmd.Flags().String("token-id", "", "position token id")
	root.AddCommand(feesCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote an exact-input swap",
		RunE:  runQuote,
	}
	addCommonFlags(quoteCmd)
	quoteCmd.Flags().String("token-in", "", "input token address (zero address for native)")
	quoteCmd.Flags().String("token-out", "", "output token address")
	quoteCmd.Flags().String("amount-in", "", "input amount in raw units")
	quoteCmd.Flags().Uint32("fee", 0, "preferred fee tier in hundredths of a bip, 0 probes the standard tiers")
	quoteCmd.Flags().Int32("tick-spacing", 0, "tick spacing for the preferred tier, 0 uses the canonical spacing")
	quoteCmd.Flags().String("hooks", "", "hook contract address")
	root.AddCommand(quoteCmd)

	planSwapCmd := &cobra.Command{
		Use:   "plan-swap",
		Short: "Build an unsigned router swap transaction",
		RunE:  runPlanSwap,
	}
	addCommonFlags(planSwapCmd)
	planSwapCmd.Flags().String("token-in", "", "input token address (zero address for native)")
	planSwapCmd.Flags().String("token-out", "", "output token address")
	planSwapCmd.Flags().String("amount-in", "", "input amount in raw units")
	planSwapCmd.Flags().Uint32("fee", 0, "preferred fee tier, 0 probes the standard tiers")
	planSwapCmd.Flags().Int32("tick-spacing", 0, "tick spacing for the preferred tier")
	planSwapCmd.Flags().String("hooks", "", "hook contract address")
	planSwapCmd.Flags().String("owner", "", "address that will sign and send the transaction")
	root.AddCommand(planSwapCmd)

	positionsCmd := &cobra.Command{
		Use:   "positions",
		Short: "List positions held by an owner via the indexer",
		RunE:  runPositions,
	}
	addCommonFlags(positionsCmd)
	positionsCmd.Flags().String("owner", "", "owner address")
	root.AddCommand(positionsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().Uint64("chain-id", 1, "chain id")
	cmd.Flags().String("state-view", "", "state view contract address")
	cmd.Flags().String("position-manager", "", "position manager contract address")
	cmd.Flags().String("quoter", "", "quoter contract address")
	cmd.Flags().String("router", "", "universal router contract address")
	cmd.Flags().String("permit2", "", "permit2 contract address")
	cmd.Flags().String("subgraph-url", "", "indexer graphql endpoint")
	cmd.Flags().String("subgraph-api-key", "", "indexer API key")
	cmd.Flags().Uint32("slippage-bps", 50, "slippage floor in basis points")
	cmd.Flags().String("out", "", "observation JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for observations")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().String("token0", "", "first token address (zero address for native)")
	cmd.Flags().String("token1", "", "second token address")
	cmd.Flags().Uint32("fee", 3000, "fee tier in hundredths of a bip")
	cmd.Flags().Int32("tick-spacing", 0, "tick spacing, 0 uses the canonical spacing for the tier")
	cmd.Flags().String("hooks", "", "hook contract address")
}

// app bundles the wiring every subcommand needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	pgStore *postgres.Store
	sink    storage.Storage
}

func setup(cmd *cobra.Command) (*app, context.Context, func(), error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.RPCURL == "" {
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("rpc url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		stop()
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, client: client}
	if cfg.Out != "" {
		a.sink = storage.NewJsonlStorage(cfg.Out)
	}
	if cfg.PgDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PgDSN)
		if err != nil {
			stop()
			client.Close()
			logger.Sync()
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pgStore = store
	}

	cleanup := func() {
		if a.pgStore != nil {
			a.pgStore.Close()
		}
		client.Close()
		stop()
		logger.Sync()
	}
	return a, ctx, cleanup, nil
}

// record forwards an observation to the configured sinks. Sink failures are
// logged and never fail the command.
func (a *app) record(ctx context.Context, observation model.Observation) {
	observation.ChainID = a.cfg.ChainID
	observation.ObservedAt = time.Now().Unix()
	if a.sink != nil {
		if err := a.sink.PutObservations([]model.Observation{observation}); err != nil {
			a.logger.Warn("write observation", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		if err := a.pgStore.InsertObservations(ctx, []model.Observation{observation}); err != nil {
			a.logger.Warn("persist observation", zap.Error(err))
		}
	}
}

func (a *app) stateViewAddress() (common.Address, error) {
	return requireAddress("state-view", a.cfg.StateView)
}

func (a *app) positionManagerAddress() (common.Address, error) {
	return requireAddress("position-manager", a.cfg.PositionManager)
}

func requireAddress(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, fmt.Errorf("%s address is required", name)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s address %q is not a valid address", name, value)
	}
	return common.HexToAddress(value), nil
}

// optionalAddress treats an empty string as the zero address.
func optionalAddress(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s address %q is not a valid address", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("amount-in is required")
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal integer", value)
	}
	return amount, nil
}

func parseTokenID(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("token-id is required")
	}
	id, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("token id %q is not a decimal integer", value)
	}
	return id, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runPool(cmd *cobra.Command, _ []string) error {
	a, ctx, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	token0, err := optionalAddress("token0", mustString(cmd, "token0"))
	if err != nil {
		return err
	}
	token1, err := requireAddress("token1", mustString(cmd, "token1"))
	if err != nil {
		return err
	}
	hooks, err := optionalAddress("hooks", mustString(cmd, "hooks"))
	if err != nil {
		return err
	}
	fee, _ := cmd.Flags().GetUint32("fee")
	spacing, _ := cmd.Flags().GetInt32("tick-spacing")

	key, err := pool.ResolveKey(token0, token1, fee, spacing, hooks)
	if err != nil {
		return err
	}
	view, err := a.stateViewAddress()
	if err != nil {
		return err
	}

	reader := pool.NewReader(a.client, view, a.logger)
	state, err := reader.State(ctx, key)
	if err != nil {
		return err
	}

	poolID := pool.KeyID(key)
	a.record(ctx, model.Observation{
		Kind:         model.ObservationPoolState,
		PoolID:       poolID.Hex(),
		SqrtPriceX96: state.SqrtPriceX96.String(),
		Tick:         state.Tick,
		Liquidity:    state.Liquidity.String(),
	})

	return printJSON(struct {
		PoolID string          `json:"pool_id"`
		Key    model.PoolKey   `json:"key"`
		State  model.PoolState `json:"state"`
	}{poolID.Hex(), key, state})
}

func mustString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
