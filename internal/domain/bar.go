package domain

import (
	"fmt"
	"time"
)

// PriceBar is a single OHLCV observation. Timestamps are the unique ordering
// key of a series.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is an ordered sequence of bars for one symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Validate rejects series the simulator cannot run: empty input, timestamps
// that are not strictly increasing, and non-positive prices. Errors wrap
// ErrInvalidInput and name the offending bar.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("price series %q is empty: %w", s.Symbol, ErrInvalidInput)
	}
	for i, b := range s.Bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("price series %q bar %d (%s): non-positive price: %w",
				s.Symbol, i, b.Timestamp.Format(time.RFC3339), ErrInvalidInput)
		}
		if i > 0 && !s.Bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("price series %q bar %d (%s): timestamp not strictly increasing: %w",
				s.Symbol, i, b.Timestamp.Format(time.RFC3339), ErrInvalidInput)
		}
	}
	return nil
}

// Closes returns the close prices as a plain slice for indicator input.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Len returns the number of bars.
func (s PriceSeries) Len() int { return len(s.Bars) }
