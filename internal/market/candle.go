package market

import (
	"errors"
	"fmt"
)

// Timeframe represents a chart timeframe
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

var (
	// ErrInvalidSeries indicates a structural precondition violation
	// (non-monotonic timestamps); the whole series is rejected.
	ErrInvalidSeries = errors.New("invalid candle series")

	// ErrInsufficientData indicates fewer candles than an algorithm's
	// minimum window; partial results are still valid.
	ErrInsufficientData = errors.New("insufficient candle data")
)

// Candle represents a single OHLCV candlestick
type Candle struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// IsBullish returns true if the candle closed above its open
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish returns true if the candle closed below its open
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute size of the candle body
func (c Candle) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns the full high-low range of the candle
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// IsFlat returns true for a zero-range candle (high == low)
func (c Candle) IsFlat() bool {
	return c.High == c.Low
}

// Series is an ordered candle sequence for one (symbol, timeframe) pair.
// Candles are strictly increasing by OpenTime and read-only once built.
type Series struct {
	Symbol    string     `json:"symbol"`
	Timeframe Timeframe  `json:"timeframe"`
	Candles   []Candle   `json:"candles"`
}

// Len returns the number of candles in the series
func (s Series) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle; ok is false for an empty series
func (s Series) Last() (Candle, bool) {
	if len(s.Candles) == 0 {
		return Candle{}, false
	}
	return s.Candles[len(s.Candles)-1], true
}

// Validate checks the series preconditions. An empty series yields
// ErrInsufficientData; non-monotonic timestamps yield ErrInvalidSeries.
func (s Series) Validate() error {
	if len(s.Candles) == 0 {
		return fmt.Errorf("%w: empty series for %s %s", ErrInsufficientData, s.Symbol, s.Timeframe)
	}
	for i := 1; i < len(s.Candles); i++ {
		if s.Candles[i].OpenTime <= s.Candles[i-1].OpenTime {
			return fmt.Errorf("%w: non-monotonic open_time at index %d for %s %s",
				ErrInvalidSeries, i, s.Symbol, s.Timeframe)
		}
	}
	return nil
}
