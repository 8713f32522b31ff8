// Package config loads the orchestrator's start-time parameters — every one
// of §6's required configurables — from flags, environment variables, or a
// YAML file, via viper, the teacher pack's config library of choice.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every start-time parameter §6 requires to be configurable.
type Config struct {
	RingCapacity      int    `mapstructure:"ring_capacity"`
	SequencerWindow   int    `mapstructure:"sequencer_window"`
	MaxLevelsPerSide  int    `mapstructure:"max_levels_per_side"`
	MaxOrdersPerLevel int    `mapstructure:"max_orders_per_level"`
	MaxOrderID        uint64 `mapstructure:"max_order_id"`
	ListingFeeMicros  int64  `mapstructure:"listing_fee_micros"`
	FeeBps            uint64 `mapstructure:"fee_bps"`

	IngressCore    int `mapstructure:"ingress_core"`
	SequencerCore  int `mapstructure:"sequencer_core"`
	MatcherCore    int `mapstructure:"matcher_core"`
	LoggerCore     int `mapstructure:"logger_core"`
	IdleSleepMicro int `mapstructure:"idle_sleep_micros"`

	ListenAddr string `mapstructure:"listen_addr"`
	TradeLog   string `mapstructure:"trade_log"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// Defaults mirrors the magnitudes spec.md's examples use.
func Defaults() Config {
	return Config{
		RingCapacity:      8192,
		SequencerWindow:   1024,
		MaxLevelsPerSide:  1024,
		MaxOrdersPerLevel: 2048,
		MaxOrderID:        1_000_000,
		ListingFeeMicros:  100_000,
		FeeBps:            2,
		IngressCore:       0,
		SequencerCore:     1,
		MatcherCore:       2,
		LoggerCore:        3,
		IdleSleepMicro:    10,
		ListenAddr:        "239.1.1.1:12345",
		TradeLog:          "trades.log",
		MetricsAddr:       ":9090",
	}
}

// Load reads configuration from (in ascending precedence) built-in
// defaults, an optional YAML file, EXCHANGED_-prefixed environment
// variables, and flags already registered on fs.
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	def := Defaults()
	v.SetDefault("ring_capacity", def.RingCapacity)
	v.SetDefault("sequencer_window", def.SequencerWindow)
	v.SetDefault("max_levels_per_side", def.MaxLevelsPerSide)
	v.SetDefault("max_orders_per_level", def.MaxOrdersPerLevel)
	v.SetDefault("max_order_id", def.MaxOrderID)
	v.SetDefault("listing_fee_micros", def.ListingFeeMicros)
	v.SetDefault("fee_bps", def.FeeBps)
	v.SetDefault("ingress_core", def.IngressCore)
	v.SetDefault("sequencer_core", def.SequencerCore)
	v.SetDefault("matcher_core", def.MatcherCore)
	v.SetDefault("logger_core", def.LoggerCore)
	v.SetDefault("idle_sleep_micros", def.IdleSleepMicro)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("trade_log", def.TradeLog)
	v.SetDefault("metrics_addr", def.MetricsAddr)

	v.SetEnvPrefix("EXCHANGED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	if fs != nil {
		// Flags are named with hyphens; bind each under its underscore key
		// so it lands on the same setting as the defaults, file and env.
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if bindErr == nil {
				bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("config: binding flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
