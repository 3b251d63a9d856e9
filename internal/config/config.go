// Package config defines the top-level configuration for the arbitrage
// detection engine and provides validation helpers.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SNIPER_* environment variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Anchors  []TokenConfig  `toml:"anchors"`
	Venues   []VenueConfig  `toml:"venues"`
	Bus      BusConfig      `toml:"bus"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Replay   ReplayConfig   `toml:"replay"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the detection pipeline parameters. This is the single
// strongly-typed value the core accepts; everything else belongs to the
// surrounding tooling.
type EngineConfig struct {
	MaxHops           int      `toml:"max_hops"`
	MinProfitBps      int64    `toml:"min_profit_bps"`
	SafetyMargin      float64  `toml:"safety_margin"`
	CooldownWindow    duration `toml:"cooldown_window"`
	OpportunityTTL    duration `toml:"opportunity_ttl"`
	MaxStaleness      duration `toml:"max_staleness"`
	DiscoveryInterval duration `toml:"discovery_interval"`
	DiscoveryBudget   duration `toml:"discovery_budget"`
	VenueTimeout      duration `toml:"venue_timeout"`

	// NetworkCost is the fixed per-cycle execution cost in anchor base
	// units, as a decimal string.
	NetworkCost string `toml:"network_cost"`

	// MinViableTrade is the smallest input worth trading, in anchor base
	// units. Cycles whose shallowest edge cannot absorb it are rejected.
	MinViableTrade string `toml:"min_viable_trade"`

	QueueSize int `toml:"queue_size"`
}

// TokenConfig declares one anchor token.
type TokenConfig struct {
	Symbol   string `toml:"symbol"`
	Address  string `toml:"address"`
	Decimals uint8  `toml:"decimals"`
}

// FeeTierConfig maps a minimum pool liquidity (base units, decimal string)
// to a fee in basis points.
type FeeTierConfig struct {
	MinLiquidity string `toml:"min_liquidity"`
	Bps          uint16 `toml:"bps"`
}

// VenueConfig declares one venue and its fee model. When Tiers is empty the
// flat fee applies.
type VenueConfig struct {
	ID           string          `toml:"id"`
	FeeBps       uint16          `toml:"fee_bps"`
	Tiers        []FeeTierConfig `toml:"tiers"`
	SurchargeBps uint16          `toml:"surcharge_bps"`
	// SurchargeAbove is the input size (base units) above which the
	// surcharge applies; empty disables it.
	SurchargeAbove string `toml:"surcharge_above"`
}

// BusConfig selects the opportunity delivery transport.
type BusConfig struct {
	// Kind is "channel" (in-process, default) or "redis".
	Kind    string `toml:"kind"`
	Channel string `toml:"channel"`
	Buffer  int    `toml:"buffer"`
}

// RedisConfig holds Redis connection parameters for the redis bus.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
}

// PostgresConfig holds connection parameters for the optional opportunity
// audit store.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// S3Config holds object storage parameters for the optional opportunity
// journal.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ReplayConfig points the replay quote fetcher at recorded venue quotes,
// one JSONL file per venue.
type ReplayConfig struct {
	Dir string `toml:"dir"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "500ms", "5s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			MaxHops:           3,
			MinProfitBps:      50,
			SafetyMargin:      1.5,
			CooldownWindow:    duration{10 * time.Second},
			OpportunityTTL:    duration{2 * time.Second},
			MaxStaleness:      duration{5 * time.Second},
			DiscoveryInterval: duration{time.Second},
			DiscoveryBudget:   duration{300 * time.Millisecond},
			VenueTimeout:      duration{2 * time.Second},
			NetworkCost:       "0",
			MinViableTrade:    "1",
			QueueSize:         256,
		},
		Bus: BusConfig{
			Kind:    "channel",
			Channel: "opportunities",
			Buffer:  256,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "sniperforge",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "sniperforge-data",
			Prefix:         "opportunities",
			ForcePathStyle: true,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the Config for invalid or missing values and returns a
// combined error describing every problem found. An empty anchor set or an
// empty venue set is fatal: the pipeline cannot run without them.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if len(c.Anchors) == 0 {
		errs = append(errs, "anchors: at least one anchor token is required")
	}
	for i, a := range c.Anchors {
		if a.Symbol == "" {
			errs = append(errs, fmt.Sprintf("anchors[%d]: symbol must not be empty", i))
		}
		if a.Address == "" {
			errs = append(errs, fmt.Sprintf("anchors[%d]: address must not be empty", i))
		}
	}

	if len(c.Venues) == 0 {
		errs = append(errs, "venues: at least one venue is required")
	}
	seen := map[string]bool{}
	for i, v := range c.Venues {
		if v.ID == "" {
			errs = append(errs, fmt.Sprintf("venues[%d]: id must not be empty", i))
		} else if seen[v.ID] {
			errs = append(errs, fmt.Sprintf("venues[%d]: duplicate id %q", i, v.ID))
		}
		seen[v.ID] = true
		for j, t := range v.Tiers {
			if _, ok := parseUnits(t.MinLiquidity); !ok {
				errs = append(errs, fmt.Sprintf("venues[%d].tiers[%d]: min_liquidity %q is not a valid integer", i, j, t.MinLiquidity))
			}
		}
		if v.SurchargeAbove != "" {
			if _, ok := parseUnits(v.SurchargeAbove); !ok {
				errs = append(errs, fmt.Sprintf("venues[%d]: surcharge_above %q is not a valid integer", i, v.SurchargeAbove))
			}
		}
	}

	e := c.Engine
	if e.MaxHops < 2 || e.MaxHops > 4 {
		errs = append(errs, fmt.Sprintf("engine: max_hops must be 2-4, got %d", e.MaxHops))
	}
	if e.MinProfitBps <= 0 {
		errs = append(errs, "engine: min_profit_bps must be > 0")
	}
	if e.SafetyMargin < 1.0 {
		errs = append(errs, "engine: safety_margin must be >= 1.0")
	}
	if e.CooldownWindow.Duration <= 0 {
		errs = append(errs, "engine: cooldown_window must be > 0")
	}
	if e.OpportunityTTL.Duration <= 0 {
		errs = append(errs, "engine: opportunity_ttl must be > 0")
	}
	if e.MaxStaleness.Duration <= 0 {
		errs = append(errs, "engine: max_staleness must be > 0")
	}
	if e.DiscoveryInterval.Duration <= 0 {
		errs = append(errs, "engine: discovery_interval must be > 0")
	}
	if e.DiscoveryBudget.Duration <= 0 {
		errs = append(errs, "engine: discovery_budget must be > 0")
	}
	if e.VenueTimeout.Duration <= 0 {
		errs = append(errs, "engine: venue_timeout must be > 0")
	}
	if e.QueueSize < 1 {
		errs = append(errs, "engine: queue_size must be >= 1")
	}
	if _, ok := parseUnits(e.NetworkCost); !ok {
		errs = append(errs, fmt.Sprintf("engine: network_cost %q is not a valid integer", e.NetworkCost))
	}
	if v, ok := parseUnits(e.MinViableTrade); !ok || v.Sign() <= 0 {
		errs = append(errs, fmt.Sprintf("engine: min_viable_trade %q must be a positive integer", e.MinViableTrade))
	}

	switch c.Bus.Kind {
	case "channel":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when bus.kind is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("bus: unknown kind %q (valid: channel, redis)", c.Bus.Kind))
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" && c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// parseUnits parses a decimal base-unit amount. Empty strings parse as zero.
func parseUnits(s string) (*big.Int, bool) {
	if s == "" {
		return new(big.Int), true
	}
	return new(big.Int).SetString(s, 10)
}

// NetworkCostUnits returns the configured per-cycle network cost as a big
// integer. Call after Validate.
func (e EngineConfig) NetworkCostUnits() *big.Int {
	v, _ := parseUnits(e.NetworkCost)
	return v
}

// MinViableTradeUnits returns the minimum viable trade size as a big
// integer. Call after Validate.
func (e EngineConfig) MinViableTradeUnits() *big.Int {
	v, _ := parseUnits(e.MinViableTrade)
	return v
}
