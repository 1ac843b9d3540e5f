package analysis

import (
	"testing"

	"market-analyzer/internal/market"
)

func trendCandles(n int, start, step float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		close := start + float64(i)*step
		candles[i] = market.Candle{
			OpenTime: int64(i) * 1000,
			Open:     close - step,
			High:     close + 0.5,
			Low:      close - step - 0.5,
			Close:    close,
		}
	}
	return candles
}

// TestTrendBullish tests classification of a steady rise
func TestTrendBullish(t *testing.T) {
	candles := trendCandles(30, 100, 2)
	if trend := DetectTrend(candles, 5, 10); trend != TrendBullish {
		t.Errorf("Expected BULLISH, got %s", trend)
	}
}

// TestTrendBearish tests classification of a steady fall
func TestTrendBearish(t *testing.T) {
	candles := trendCandles(30, 200, -2)
	if trend := DetectTrend(candles, 5, 10); trend != TrendBearish {
		t.Errorf("Expected BEARISH, got %s", trend)
	}
}

// TestTrendSidewaysFlat tests that a flat series reads sideways
func TestTrendSidewaysFlat(t *testing.T) {
	candles := make([]market.Candle, 30)
	for i := range candles {
		candles[i] = market.Candle{OpenTime: int64(i) * 1000, Open: 100, High: 100.2, Low: 99.8, Close: 100}
	}
	if trend := DetectTrend(candles, 5, 10); trend != TrendSideways {
		t.Errorf("Expected SIDEWAYS on flat closes, got %s", trend)
	}
}

// TestTrendInsufficientData tests the short-series fallback
func TestTrendInsufficientData(t *testing.T) {
	candles := trendCandles(5, 100, 2)
	if trend := DetectTrend(candles, 5, 10); trend != TrendSideways {
		t.Errorf("Expected SIDEWAYS with too few candles, got %s", trend)
	}
}

// TestCountStructureBias tests higher-high / lower-low counting
func TestCountStructureBias(t *testing.T) {
	swings := []SwingPoint{
		{Index: 2, Price: 100, Kind: SwingHigh},
		{Index: 4, Price: 95, Kind: SwingLow},
		{Index: 6, Price: 105, Kind: SwingHigh},
		{Index: 8, Price: 98, Kind: SwingLow},
		{Index: 10, Price: 110, Kind: SwingHigh},
		{Index: 12, Price: 97, Kind: SwingLow},
	}

	bias := CountStructureBias(swings)
	if bias.HigherHighs != 2 {
		t.Errorf("Expected 2 higher highs, got %d", bias.HigherHighs)
	}
	if bias.HigherLows != 1 {
		t.Errorf("Expected 1 higher low, got %d", bias.HigherLows)
	}
	if bias.LowerLows != 1 {
		t.Errorf("Expected 1 lower low, got %d", bias.LowerLows)
	}
	if bias.LowerHighs != 0 {
		t.Errorf("Expected 0 lower highs, got %d", bias.LowerHighs)
	}
}
