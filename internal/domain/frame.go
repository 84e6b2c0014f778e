package domain

// PositionState is the simulator's position discipline: either flat or long
// exactly one open position. Short states do not exist.
type PositionState int

const (
	PositionFlat PositionState = iota
	PositionLong
)

// String returns the display name of the state.
func (p PositionState) String() string {
	if p == PositionLong {
		return "LONG"
	}
	return "FLAT"
}

// IndicatorFrame is a price series extended with computed indicator columns.
// Every column has the same length as the series; warm-up positions hold NaN
// rather than a fabricated value.
type IndicatorFrame struct {
	Series PriceSeries `json:"series"`

	RSI           []float64 `json:"rsi"`
	MACD          []float64 `json:"macd"`
	MACDSignal    []float64 `json:"macd_signal"`
	MACDHistogram []float64 `json:"macd_histogram"`
	SMAFast       []float64 `json:"sma_fast"`
	SMASlow       []float64 `json:"sma_slow"`
	BBUpper       []float64 `json:"bb_upper"`
	BBMiddle      []float64 `json:"bb_middle"`
	BBLower       []float64 `json:"bb_lower"`
}

// SignalFrame is an IndicatorFrame extended with per-bar decisions. Position
// at index t is a pure function of position at t-1 and the signals at t:
// a buy can only fire from FLAT, a sell only from LONG.
type SignalFrame struct {
	IndicatorFrame

	BuySignal  []bool          `json:"buy_signal"`
	SellSignal []bool          `json:"sell_signal"`
	Position   []PositionState `json:"position"`
}
