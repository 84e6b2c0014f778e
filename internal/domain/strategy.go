package domain

import "fmt"

// CombineLogic selects how enabled buy sub-conditions are combined.
// Sell sub-conditions are always OR-combined: a single bearish reading exits
// the position regardless of the buy logic.
type CombineLogic string

const (
	CombineAND CombineLogic = "AND"
	CombineOR  CombineLogic = "OR"
)

// StrategyConfig is the immutable rule set evaluated per bar. Toggles select
// which indicators participate; disabled indicators are neutral for AND-buy
// combination and contribute nothing to OR combination.
type StrategyConfig struct {
	RSIPeriod     int     `json:"rsi_period"`
	RSIOversold   float64 `json:"rsi_oversold"`
	RSIOverbought float64 `json:"rsi_overbought"`

	MACDFast   int `json:"macd_fast"`
	MACDSlow   int `json:"macd_slow"`
	MACDSignal int `json:"macd_signal"`

	// MAFastWindow is the moving average the MA rule compares close against.
	// MASlowWindow is computed for the frame (charting) but not traded on.
	MAFastWindow int `json:"ma_fast_window"`
	MASlowWindow int `json:"ma_slow_window"`

	BollWindow int     `json:"boll_window"`
	BollStdDev float64 `json:"boll_std_dev"`

	CombineLogic CombineLogic `json:"combine_logic"`

	UseRSI  bool `json:"use_rsi"`
	UseMACD bool `json:"use_macd"`
	UseMA   bool `json:"use_ma"`
}

// DefaultStrategyConfig returns the classic RSI+MACD parameter set.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
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
		CombineLogic:  CombineAND,
		UseRSI:        true,
		UseMACD:       true,
	}
}

// Validate checks parameter ranges. Errors wrap ErrInvalidInput and name the
// offending field so callers can correct their input.
func (c StrategyConfig) Validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("strategy: rsi_period must be positive, got %d: %w", c.RSIPeriod, ErrInvalidInput)
	}
	if c.RSIOversold < 0 || c.RSIOversold > 100 {
		return fmt.Errorf("strategy: rsi_oversold must be in [0,100], got %g: %w", c.RSIOversold, ErrInvalidInput)
	}
	if c.RSIOverbought < 0 || c.RSIOverbought > 100 {
		return fmt.Errorf("strategy: rsi_overbought must be in [0,100], got %g: %w", c.RSIOverbought, ErrInvalidInput)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("strategy: rsi_oversold (%g) must be below rsi_overbought (%g): %w",
			c.RSIOversold, c.RSIOverbought, ErrInvalidInput)
	}
	if c.MACDFast <= 0 || c.MACDSlow <= 0 || c.MACDSignal <= 0 {
		return fmt.Errorf("strategy: macd windows must be positive, got fast=%d slow=%d signal=%d: %w",
			c.MACDFast, c.MACDSlow, c.MACDSignal, ErrInvalidInput)
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("strategy: macd_fast (%d) must be below macd_slow (%d): %w",
			c.MACDFast, c.MACDSlow, ErrInvalidInput)
	}
	if c.MAFastWindow <= 0 || c.MASlowWindow <= 0 {
		return fmt.Errorf("strategy: ma windows must be positive, got fast=%d slow=%d: %w",
			c.MAFastWindow, c.MASlowWindow, ErrInvalidInput)
	}
	if c.BollWindow <= 0 {
		return fmt.Errorf("strategy: boll_window must be positive, got %d: %w", c.BollWindow, ErrInvalidInput)
	}
	if c.BollStdDev <= 0 {
		return fmt.Errorf("strategy: boll_std_dev must be positive, got %g: %w", c.BollStdDev, ErrInvalidInput)
	}
	switch c.CombineLogic {
	case CombineAND, CombineOR:
	default:
		return fmt.Errorf("strategy: combine_logic must be AND or OR, got %q: %w", c.CombineLogic, ErrInvalidInput)
	}
	if !c.UseRSI && !c.UseMACD && !c.UseMA {
		return fmt.Errorf("strategy: at least one indicator must be enabled: %w", ErrInvalidInput)
	}
	return nil
}
