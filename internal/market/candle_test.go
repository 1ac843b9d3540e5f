package market

import (
	"errors"
	"testing"
)

// TestValidateMonotonic tests that a well-ordered series validates
func TestValidateMonotonic(t *testing.T) {
	series := Series{
		Symbol:    "BTCUSDT",
		Timeframe: TF1h,
		Candles: []Candle{
			{OpenTime: 1000, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
			{OpenTime: 2000, Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 12},
			{OpenTime: 3000, Open: 101, High: 103, Low: 100.5, Close: 102, Volume: 11},
		},
	}

	if err := series.Validate(); err != nil {
		t.Errorf("Expected valid series, got error: %v", err)
	}
}

// TestValidateOutOfOrder tests rejection of non-monotonic timestamps
func TestValidateOutOfOrder(t *testing.T) {
	series := Series{
		Symbol:    "BTCUSDT",
		Timeframe: TF1h,
		Candles: []Candle{
			{OpenTime: 2000, Open: 100, High: 101, Low: 99, Close: 100.5},
			{OpenTime: 1000, Open: 100.5, High: 102, Low: 100, Close: 101},
		},
	}

	err := series.Validate()
	if err == nil {
		t.Fatal("Expected error for out-of-order series, got nil")
	}
	if !errors.Is(err, ErrInvalidSeries) {
		t.Errorf("Expected ErrInvalidSeries, got %v", err)
	}
}

// TestValidateEmpty tests that an empty series is insufficient data
func TestValidateEmpty(t *testing.T) {
	series := Series{Symbol: "BTCUSDT", Timeframe: TF1h}

	err := series.Validate()
	if err == nil {
		t.Fatal("Expected error for empty series, got nil")
	}
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

// TestCandleShape tests the candle helper methods
func TestCandleShape(t *testing.T) {
	bullish := Candle{Open: 100, High: 106, Low: 99, Close: 105}
	if !bullish.IsBullish() {
		t.Error("Expected candle to be bullish")
	}
	if bullish.IsBearish() {
		t.Error("Bullish candle reported as bearish")
	}
	if bullish.Body() != 5 {
		t.Errorf("Expected body 5, got %f", bullish.Body())
	}
	if bullish.Range() != 7 {
		t.Errorf("Expected range 7, got %f", bullish.Range())
	}

	flat := Candle{Open: 100, High: 100, Low: 100, Close: 100}
	if !flat.IsFlat() {
		t.Error("Expected zero-range candle to be flat")
	}
	if flat.IsBullish() || flat.IsBearish() {
		t.Error("Flat candle should be neither bullish nor bearish")
	}
}

// TestSeriesLast tests last-candle access
func TestSeriesLast(t *testing.T) {
	empty := Series{}
	if _, ok := empty.Last(); ok {
		t.Error("Expected no last candle on empty series")
	}

	series := Series{Candles: []Candle{
		{OpenTime: 1000, Close: 100},
		{OpenTime: 2000, Close: 110},
	}}
	last, ok := series.Last()
	if !ok {
		t.Fatal("Expected last candle")
	}
	if last.Close != 110 {
		t.Errorf("Expected last close 110, got %f", last.Close)
	}
}
