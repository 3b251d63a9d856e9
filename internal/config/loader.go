package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SNIPER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SNIPER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setInt(&cfg.Engine.MaxHops, "SNIPER_ENGINE_MAX_HOPS")
	setInt64(&cfg.Engine.MinProfitBps, "SNIPER_ENGINE_MIN_PROFIT_BPS")
	setFloat64(&cfg.Engine.SafetyMargin, "SNIPER_ENGINE_SAFETY_MARGIN")
	setDuration(&cfg.Engine.CooldownWindow, "SNIPER_ENGINE_COOLDOWN_WINDOW")
	setDuration(&cfg.Engine.OpportunityTTL, "SNIPER_ENGINE_OPPORTUNITY_TTL")
	setDuration(&cfg.Engine.MaxStaleness, "SNIPER_ENGINE_MAX_STALENESS")
	setDuration(&cfg.Engine.DiscoveryInterval, "SNIPER_ENGINE_DISCOVERY_INTERVAL")
	setDuration(&cfg.Engine.DiscoveryBudget, "SNIPER_ENGINE_DISCOVERY_BUDGET")
	setDuration(&cfg.Engine.VenueTimeout, "SNIPER_ENGINE_VENUE_TIMEOUT")
	setStr(&cfg.Engine.NetworkCost, "SNIPER_ENGINE_NETWORK_COST")
	setStr(&cfg.Engine.MinViableTrade, "SNIPER_ENGINE_MIN_VIABLE_TRADE")
	setInt(&cfg.Engine.QueueSize, "SNIPER_ENGINE_QUEUE_SIZE")

	// ── Bus ──
	setStr(&cfg.Bus.Kind, "SNIPER_BUS_KIND")
	setStr(&cfg.Bus.Channel, "SNIPER_BUS_CHANNEL")
	setInt(&cfg.Bus.Buffer, "SNIPER_BUS_BUFFER")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SNIPER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SNIPER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SNIPER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SNIPER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SNIPER_REDIS_MAX_RETRIES")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SNIPER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SNIPER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SNIPER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SNIPER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SNIPER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SNIPER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SNIPER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SNIPER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SNIPER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SNIPER_POSTGRES_POOL_MIN_CONNS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SNIPER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SNIPER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SNIPER_S3_REGION")
	setStr(&cfg.S3.Bucket, "SNIPER_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "SNIPER_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "SNIPER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SNIPER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SNIPER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SNIPER_S3_FORCE_PATH_STYLE")

	// ── Replay ──
	setStr(&cfg.Replay.Dir, "SNIPER_REPLAY_DIR")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "SNIPER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
