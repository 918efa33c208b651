package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	ChainID         uint64
	StateView       string
	PositionManager string
	Quoter          string
	Router          string
	Permit2         string
	SubgraphURL     string
	SubgraphAPIKey  string
	SlippageBps     uint32
	Out             string
	PgDSN           string
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LENS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("slippage-bps", uint32(50))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		ChainID:         v.GetUint64("chain-id"),
		StateView:       v.GetString("state-view"),
		PositionManager: v.GetString("position-manager"),
		Quoter:          v.GetString("quoter"),
		Router:          v.GetString("router"),
		Permit2:         v.GetString("permit2"),
		SubgraphURL:     v.GetString("subgraph-url"),
		SubgraphAPIKey:  v.GetString("subgraph-api-key"),
		SlippageBps:     v.GetUint32("slippage-bps"),
		Out:             v.GetString("out"),
		PgDSN:           v.GetString("pg-dsn"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, nil
}
