package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quantbench/stratbot/internal/domain"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("expected mode error, got %v", err)
	}
}

func TestValidateCollectsMultipleErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Backtest.InitialCapital = -1
	cfg.Backtest.Start = "not-a-date"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"unknown mode", "initial_capital", "YYYY-MM-DD"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestValidateEnabledSectionsOnly(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled redis section should not be validated: %v", err)
	}
	cfg.Redis.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled redis section with empty addr should fail")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "sweep"

[backtest]
symbol = "MSFT"

[strategy]
rsi_period = 7
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "sweep" {
		t.Fatalf("mode not merged: %q", cfg.Mode)
	}
	if cfg.Backtest.Symbol != "MSFT" {
		t.Fatalf("symbol not merged: %q", cfg.Backtest.Symbol)
	}
	if cfg.Strategy.RSIPeriod != 7 {
		t.Fatalf("rsi_period not merged: %d", cfg.Strategy.RSIPeriod)
	}
	// Untouched fields keep their defaults.
	if cfg.Backtest.InitialCapital != 10000 {
		t.Fatalf("default initial_capital lost: %g", cfg.Backtest.InitialCapital)
	}
}

func TestEnvOverridesBeatFile(t *testing.T) {
	t.Setenv("STRATBOT_BACKTEST_SYMBOL", "NVDA")
	t.Setenv("STRATBOT_STRATEGY_USE_MA", "true")
	t.Setenv("STRATBOT_SWEEP_PARALLELISM", "8")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backtest.Symbol != "NVDA" {
		t.Fatalf("env symbol override lost: %q", cfg.Backtest.Symbol)
	}
	if !cfg.Strategy.UseMA {
		t.Fatal("env bool override lost")
	}
	if cfg.Sweep.Parallelism != 8 {
		t.Fatalf("env int override lost: %d", cfg.Sweep.Parallelism)
	}
}

func TestStrategyToDomainNormalisesLogic(t *testing.T) {
	s := Defaults().Strategy
	s.CombineLogic = "or"
	got := s.ToDomain()
	if got.CombineLogic != domain.CombineOR {
		t.Fatalf("expected OR, got %q", got.CombineLogic)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("converted strategy should validate: %v", err)
	}
}
