// Package config defines the top-level configuration for the backtester and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantbench/stratbot/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by STRATBOT_* environment variables.
type Config struct {
	Data     DataConfig     `toml:"data"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Backtest BacktestConfig `toml:"backtest"`
	Strategy StrategyConfig `toml:"strategy"`
	Sweep    SweepConfig    `toml:"sweep"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DataConfig holds the OHLCV data service parameters.
type DataConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters. When Enabled is
// false, runs are not persisted.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the series cache.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	SeriesTTL  duration `toml:"series_ttl"`
}

// S3Config holds S3-compatible object storage parameters for run archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// BacktestConfig holds the simulation parameters shared by all modes.
type BacktestConfig struct {
	Symbol         string  `toml:"symbol"`
	Start          string  `toml:"start"` // YYYY-MM-DD
	End            string  `toml:"end"`   // YYYY-MM-DD
	InitialCapital float64 `toml:"initial_capital"`
	CommissionRate float64 `toml:"commission_rate"`
	RiskFreeRate   float64 `toml:"risk_free_rate"`
}

// StrategyConfig mirrors the domain strategy parameters in TOML form.
type StrategyConfig struct {
	RSIPeriod     int     `toml:"rsi_period"`
	RSIOversold   float64 `toml:"rsi_oversold"`
	RSIOverbought float64 `toml:"rsi_overbought"`
	MACDFast      int     `toml:"macd_fast"`
	MACDSlow      int     `toml:"macd_slow"`
	MACDSignal    int     `toml:"macd_signal"`
	MAFastWindow  int     `toml:"ma_fast_window"`
	MASlowWindow  int     `toml:"ma_slow_window"`
	BollWindow    int     `toml:"boll_window"`
	BollStdDev    float64 `toml:"boll_std_dev"`
	CombineLogic  string  `toml:"combine_logic"`
	UseRSI        bool    `toml:"use_rsi"`
	UseMACD       bool    `toml:"use_macd"`
	UseMA         bool    `toml:"use_ma"`
}

// ToDomain converts the TOML strategy section to the domain type.
func (s StrategyConfig) ToDomain() domain.StrategyConfig {
	return domain.StrategyConfig{
		RSIPeriod:     s.RSIPeriod,
		RSIOversold:   s.RSIOversold,
		RSIOverbought: s.RSIOverbought,
		MACDFast:      s.MACDFast,
		MACDSlow:      s.MACDSlow,
		MACDSignal:    s.MACDSignal,
		MAFastWindow:  s.MAFastWindow,
		MASlowWindow:  s.MASlowWindow,
		BollWindow:    s.BollWindow,
		BollStdDev:    s.BollStdDev,
		CombineLogic:  domain.CombineLogic(strings.ToUpper(s.CombineLogic)),
		UseRSI:        s.UseRSI,
		UseMACD:       s.UseMACD,
		UseMA:         s.UseMA,
	}
}

// SweepConfig holds the parameter grid for sweep mode. Empty slices keep the
// base strategy's value for that parameter.
type SweepConfig struct {
	Parallelism   int       `toml:"parallelism"`
	RSIPeriods    []int     `toml:"rsi_periods"`
	RSIOversold   []float64 `toml:"rsi_oversold"`
	RSIOverbought []float64 `toml:"rsi_overbought"`
	MAFastWindows []int     `toml:"ma_fast_windows"`
	CombineLogics []string  `toml:"combine_logics"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
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
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Data: DataConfig{
			BaseURL: "http://localhost:8080",
			Timeout: duration{15 * time.Second},
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "stratbot",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			SeriesTTL:  duration{24 * time.Hour},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "stratbot-results",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Backtest: BacktestConfig{
			Symbol:         "AAPL",
			Start:          "2023-01-01",
			End:            "2024-01-01",
			InitialCapital: 10000,
			CommissionRate: 0.001,
			RiskFreeRate:   0.02,
		},
		Strategy: StrategyConfig{
			RSIPeriod:     14,
			RSIOversold:   30,
			RSIOverbought: 70,
			MACDFast:      12,
			MACDSlow:      26,
			MACDSignal:    9,
			MAFastWindow:  20,
			MASlowWindow:  50,
			BollWindow:    20,
			BollStdDev:    2,
			CombineLogic:  "AND",
			UseRSI:        true,
			UseMACD:       true,
			UseMA:         false,
		},
		Sweep: SweepConfig{
			Parallelism: 4,
			RSIPeriods:  []int{7, 14, 21},
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "backtest",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"backtest": true,
	"sweep":    true,
	"serve":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// dateLayout is the layout for the backtest start/end dates.
const dateLayout = "2006-01-02"

// Range parses the configured backtest date range.
func (b BacktestConfig) Range() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, b.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: backtest.start: %w", err)
	}
	end, err = time.Parse(dateLayout, b.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: backtest.end: %w", err)
	}
	return start, end, nil
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: backtest, sweep, serve)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Data
	if c.Data.BaseURL == "" {
		errs = append(errs, "data: base_url must not be empty")
	}

	// Backtest
	if c.Backtest.Symbol == "" && c.Mode != "serve" {
		errs = append(errs, "backtest: symbol must not be empty for mode "+c.Mode)
	}
	if c.Backtest.InitialCapital <= 0 {
		errs = append(errs, "backtest: initial_capital must be > 0")
	}
	if c.Backtest.CommissionRate < 0 || c.Backtest.CommissionRate >= 1 {
		errs = append(errs, "backtest: commission_rate must be in [0, 1)")
	}
	if c.Mode != "serve" {
		if _, _, err := c.Backtest.Range(); err != nil {
			errs = append(errs, fmt.Sprintf("backtest: dates must be YYYY-MM-DD: %v", err))
		}
	}

	// Strategy
	if err := c.Strategy.ToDomain().Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	// Sweep
	if c.Mode == "sweep" && c.Sweep.Parallelism < 1 {
		errs = append(errs, "sweep: parallelism must be >= 1")
	}
	for _, l := range c.Sweep.CombineLogics {
		switch strings.ToUpper(l) {
		case "AND", "OR":
		default:
			errs = append(errs, fmt.Sprintf("sweep: combine_logics entries must be AND or OR, got %q", l))
		}
	}

	// Database
	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Server
	if c.Mode == "serve" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
