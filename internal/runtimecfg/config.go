// Package runtimecfg loads the ambient, non-strategy configuration that
// governs how Engines behave: history capacity, replay defaults,
// account/risk envelope defaults, and snapshot storage, plus a copy of the
// compiler's size bounds (see CompilerConfig). This is
// distinct from a strategy document, which is the compiler's own DSL
// input and is never read through viper.
package runtimecfg

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EngineConfig governs Engine construction defaults.
type EngineConfig struct {
	HistoryCapacity int    `mapstructure:"history_capacity"`
	LogCapacity     int    `mapstructure:"log_capacity"`
	Replay          bool   `mapstructure:"replay"`
	SnapshotDir     string `mapstructure:"snapshot_dir"`

	AccountID            string  `mapstructure:"account_id"`
	DryRun               bool    `mapstructure:"dry_run"`
	AllowLiveOrders      bool    `mapstructure:"allow_live_orders"`
	PerSymbolOrderCap    int     `mapstructure:"per_symbol_order_cap"`
	MaxOrderQty          int64   `mapstructure:"max_order_qty"`
	MaxNotionalPerSymbol float64 `mapstructure:"max_notional_per_symbol"`
	DailyLossLimit       float64 `mapstructure:"daily_loss_limit"`
}

// CompilerConfig holds compiler-stage size bounds. Load reads them and
// Validate checks they are positive; compiler.Compile does not take them
// and applies its own built-in limits, whose values equal these defaults.
type CompilerConfig struct {
	MaxFeatures    int `mapstructure:"max_features"`
	MaxOrderPlans  int `mapstructure:"max_order_plans"`
	MaxStates      int `mapstructure:"max_states"`
	MaxTransitions int `mapstructure:"max_transitions"`
}

// Config is the top-level ambient configuration. Maps directly to a YAML
// file's structure, with RUNTIME_ prefixed environment variables able to
// override any field.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Compiler CompilerConfig `mapstructure:"compiler"`
}

// DefaultConfig returns the configuration a fresh deployment starts from
// before any file or environment override is applied.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			HistoryCapacity:   260,
			LogCapacity:       1024,
			Replay:            false,
			SnapshotDir:       "./snapshots",
			AccountID:         "default",
			DryRun:            true,
			PerSymbolOrderCap: 8,
			MaxOrderQty:       10000,
		},
		Compiler: CompilerConfig{
			MaxFeatures:    64,
			MaxOrderPlans:  64,
			MaxStates:      32,
			MaxTransitions: 256,
		},
	}
}

// Load reads configuration from a YAML file at path, layered over
// DefaultConfig, with RUNTIME_* environment variables able to override
// any field (e.g. RUNTIME_ENGINE_DRY_RUN=false).
func Load(path string) (*Config, error) {
	v := viper.New()
	cfg := DefaultConfig()
	v.SetDefault("engine", cfg.Engine)
	v.SetDefault("compiler", cfg.Compiler)

	v.SetEnvPrefix("RUNTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("runtimecfg: read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("runtimecfg: unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Engine.HistoryCapacity <= 0 {
		return fmt.Errorf("engine.history_capacity must be > 0")
	}
	if c.Engine.LogCapacity <= 0 {
		return fmt.Errorf("engine.log_capacity must be > 0")
	}
	if c.Engine.AccountID == "" {
		return fmt.Errorf("engine.account_id is required")
	}
	if c.Engine.AllowLiveOrders && c.Engine.DryRun {
		return fmt.Errorf("engine.allow_live_orders and engine.dry_run are mutually exclusive")
	}
	if c.Compiler.MaxFeatures <= 0 || c.Compiler.MaxOrderPlans <= 0 || c.Compiler.MaxStates <= 0 || c.Compiler.MaxTransitions <= 0 {
		return fmt.Errorf("compiler size bounds must all be > 0")
	}
	return nil
}
