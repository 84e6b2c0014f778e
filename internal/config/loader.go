package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STRATBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STRATBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Data ──
	setStr(&cfg.Data.BaseURL, "STRATBOT_DATA_BASE_URL")
	setDuration(&cfg.Data.Timeout, "STRATBOT_DATA_TIMEOUT")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "STRATBOT_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "STRATBOT_DATABASE_DSN")
	setStr(&cfg.Database.Host, "STRATBOT_DATABASE_HOST")
	setInt(&cfg.Database.Port, "STRATBOT_DATABASE_PORT")
	setStr(&cfg.Database.Database, "STRATBOT_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "STRATBOT_DATABASE_USER")
	setStr(&cfg.Database.Password, "STRATBOT_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "STRATBOT_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "STRATBOT_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "STRATBOT_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "STRATBOT_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "STRATBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "STRATBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STRATBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STRATBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STRATBOT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STRATBOT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STRATBOT_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.SeriesTTL, "STRATBOT_REDIS_SERIES_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "STRATBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "STRATBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STRATBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "STRATBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STRATBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STRATBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STRATBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STRATBOT_S3_FORCE_PATH_STYLE")

	// ── Backtest ──
	setStr(&cfg.Backtest.Symbol, "STRATBOT_BACKTEST_SYMBOL")
	setStr(&cfg.Backtest.Start, "STRATBOT_BACKTEST_START")
	setStr(&cfg.Backtest.End, "STRATBOT_BACKTEST_END")
	setFloat64(&cfg.Backtest.InitialCapital, "STRATBOT_BACKTEST_INITIAL_CAPITAL")
	setFloat64(&cfg.Backtest.CommissionRate, "STRATBOT_BACKTEST_COMMISSION_RATE")
	setFloat64(&cfg.Backtest.RiskFreeRate, "STRATBOT_BACKTEST_RISK_FREE_RATE")

	// ── Strategy ──
	setInt(&cfg.Strategy.RSIPeriod, "STRATBOT_STRATEGY_RSI_PERIOD")
	setFloat64(&cfg.Strategy.RSIOversold, "STRATBOT_STRATEGY_RSI_OVERSOLD")
	setFloat64(&cfg.Strategy.RSIOverbought, "STRATBOT_STRATEGY_RSI_OVERBOUGHT")
	setInt(&cfg.Strategy.MACDFast, "STRATBOT_STRATEGY_MACD_FAST")
	setInt(&cfg.Strategy.MACDSlow, "STRATBOT_STRATEGY_MACD_SLOW")
	setInt(&cfg.Strategy.MACDSignal, "STRATBOT_STRATEGY_MACD_SIGNAL")
	setInt(&cfg.Strategy.MAFastWindow, "STRATBOT_STRATEGY_MA_FAST_WINDOW")
	setInt(&cfg.Strategy.MASlowWindow, "STRATBOT_STRATEGY_MA_SLOW_WINDOW")
	setInt(&cfg.Strategy.BollWindow, "STRATBOT_STRATEGY_BOLL_WINDOW")
	setFloat64(&cfg.Strategy.BollStdDev, "STRATBOT_STRATEGY_BOLL_STD_DEV")
	setStr(&cfg.Strategy.CombineLogic, "STRATBOT_STRATEGY_COMBINE_LOGIC")
	setBool(&cfg.Strategy.UseRSI, "STRATBOT_STRATEGY_USE_RSI")
	setBool(&cfg.Strategy.UseMACD, "STRATBOT_STRATEGY_USE_MACD")
	setBool(&cfg.Strategy.UseMA, "STRATBOT_STRATEGY_USE_MA")

	// ── Sweep ──
	setInt(&cfg.Sweep.Parallelism, "STRATBOT_SWEEP_PARALLELISM")
	setStringSlice(&cfg.Sweep.CombineLogics, "STRATBOT_SWEEP_COMBINE_LOGICS")

	// ── Server ──
	setInt(&cfg.Server.Port, "STRATBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "STRATBOT_SERVER_CORS_ORIGINS")

	// ── Top-level ──
	setStr(&cfg.Mode, "STRATBOT_MODE")
	setStr(&cfg.LogLevel, "STRATBOT_LOG_LEVEL")
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

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
