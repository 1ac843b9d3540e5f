package aggregator

import (
	"time"

	"market-analyzer/internal/analysis"
	"market-analyzer/internal/indicators"
)

// Status reports the outcome of one analysis. Failures are carried
// inline in the document; they never abort sibling computations.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusInvalidSeries    Status = "invalid_series"
	StatusUnavailable      Status = "unavailable"
)

// IndicatorSnapshot carries the latest indicator values. Every field is
// either a finite value or null — an undefined indicator is never
// silently coerced to zero.
type IndicatorSnapshot struct {
	RSI           *float64 `json:"rsi"`
	EMAFast       *float64 `json:"ema_fast"`
	EMASlow       *float64 `json:"ema_slow"`
	MACD          *float64 `json:"macd"`
	MACDSignal    *float64 `json:"macd_signal"`
	MACDHistogram *float64 `json:"macd_histogram"`
	ATR           *float64 `json:"atr"`
	ADX           *float64 `json:"adx"`
}

// numPtr converts an indicator value into its document form: nil for
// undefined, a pointer to the value otherwise.
func numPtr(v float64) *float64 {
	if !indicators.Defined(v) {
		return nil
	}
	return &v
}

// TimeframeAnalysis is the full structural picture for one timeframe
type TimeframeAnalysis struct {
	Timeframe       string                     `json:"timeframe"`
	Status          Status                     `json:"status"`
	StatusDetail    string                     `json:"status_detail,omitempty"`
	CandleCount     int                        `json:"candle_count"`
	Indicators      IndicatorSnapshot          `json:"indicators"`
	Trend           analysis.TrendDirection    `json:"trend"`
	Swings          []analysis.SwingPoint      `json:"swings"`
	StructureBias   analysis.StructureBias     `json:"structure_bias"`
	StructureShifts []analysis.StructureShift  `json:"structure_shifts"`
	FairValueGaps   []analysis.FairValueGap    `json:"fair_value_gaps"`
	OrderBlocks     []analysis.OrderBlock      `json:"order_blocks"`
	LiquidityZones  []analysis.LiquidityZone   `json:"liquidity_zones"`
	Regime          analysis.MarketRegime      `json:"regime"`
	OrderFlow       analysis.OrderFlowEstimate `json:"order_flow"`
	Volume          analysis.VolumeSummary     `json:"volume"`

	// lastClose feeds the report-level current price during composition
	lastClose *float64
}

// Bias reports the higher- and lower-timeframe trends side by side.
// Both are always present; they are never collapsed into one reading.
type Bias struct {
	HTFTimeframe string                  `json:"htf_timeframe"`
	HTFTrend     analysis.TrendDirection `json:"htf_trend"`
	LTFTimeframe string                  `json:"ltf_timeframe"`
	LTFTrend     analysis.TrendDirection `json:"ltf_trend"`
}

// MarketReport is the aggregated market-state document for one symbol
type MarketReport struct {
	Symbol       string                        `json:"symbol"`
	GeneratedAt  time.Time                     `json:"generated_at"`
	Status       Status                        `json:"status"`
	StatusDetail string                        `json:"status_detail,omitempty"`
	CurrentPrice *float64                      `json:"current_price"`
	Timeframes   map[string]*TimeframeAnalysis `json:"timeframes"`
	Bias         Bias                          `json:"bias"`
}
