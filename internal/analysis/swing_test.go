package analysis

import (
	"testing"

	"market-analyzer/internal/market"
)

// TestDetectSwingHigh tests detection of a simple fractal high
func TestDetectSwingHigh(t *testing.T) {
	detector := NewSwingDetector(2)

	candles := []market.Candle{
		{OpenTime: 1000, Open: 9.5, High: 10, Low: 9, Close: 9.8},
		{OpenTime: 2000, Open: 9.8, High: 11, Low: 10, Close: 10.8},
		{OpenTime: 3000, Open: 10.8, High: 15, Low: 11, Close: 14},
		{OpenTime: 4000, Open: 14, High: 11, Low: 10, Close: 10.5},
		{OpenTime: 5000, Open: 10.5, High: 10, Low: 9, Close: 9.5},
	}

	swings := detector.DetectSwings(candles)

	if len(swings) != 1 {
		t.Fatalf("Expected 1 swing, got %d", len(swings))
	}
	if swings[0].Kind != SwingHigh {
		t.Errorf("Expected swing high, got %s", swings[0].Kind)
	}
	if swings[0].Index != 2 {
		t.Errorf("Expected swing index 2, got %d", swings[0].Index)
	}
	if swings[0].Price != 15 {
		t.Errorf("Expected swing price 15, got %f", swings[0].Price)
	}
}

// TestSwingTieResolvesEarliest tests that equal highs classify the
// earliest index only
func TestSwingTieResolvesEarliest(t *testing.T) {
	detector := NewSwingDetector(2)

	highs := []float64{10, 11, 15, 15, 11, 10, 9}
	candles := make([]market.Candle, len(highs))
	for i, h := range highs {
		candles[i] = market.Candle{
			OpenTime: int64(i) * 1000,
			Open:     h - 1,
			High:     h,
			Low:      h - 2 - float64(i)*0.1, // lows strictly falling, no swing lows
			Close:    h - 0.5,
		}
	}

	swings := detector.DetectSwings(candles)
	highsOnly := SwingHighs(swings)

	if len(highsOnly) != 1 {
		t.Fatalf("Expected 1 swing high, got %d", len(highsOnly))
	}
	if highsOnly[0].Index != 2 {
		t.Errorf("Expected tie to resolve to index 2, got %d", highsOnly[0].Index)
	}
}

// TestSwingFlatSeries tests that identical candles produce no swings
func TestSwingFlatSeries(t *testing.T) {
	detector := NewSwingDetector(2)

	candles := make([]market.Candle, 10)
	for i := range candles {
		candles[i] = market.Candle{OpenTime: int64(i) * 1000, Open: 100, High: 100, Low: 100, Close: 100}
	}

	if swings := detector.DetectSwings(candles); len(swings) != 0 {
		t.Errorf("Expected no swings on flat series, got %d", len(swings))
	}
}

// TestSwingOutsideBar tests that a candle dominating both sides is
// classified exactly once, by its color
func TestSwingOutsideBar(t *testing.T) {
	detector := NewSwingDetector(2)

	candles := []market.Candle{
		{OpenTime: 1000, Open: 9.5, High: 10, Low: 9, Close: 9.8},
		{OpenTime: 2000, Open: 9.8, High: 11, Low: 9.5, Close: 10.5},
		// Outside bar: widest high and lowest low, closes bearish
		{OpenTime: 3000, Open: 19, High: 20, Low: 1, Close: 2},
		{OpenTime: 4000, Open: 10.5, High: 11, Low: 9.5, Close: 10},
		{OpenTime: 5000, Open: 10, High: 10, Low: 9, Close: 9.5},
	}

	swings := detector.DetectSwings(candles)

	if len(swings) != 1 {
		t.Fatalf("Expected exactly 1 swing from outside bar, got %d", len(swings))
	}
	if swings[0].Kind != SwingHigh {
		t.Errorf("Bearish outside bar should form a swing high, got %s", swings[0].Kind)
	}
}

// TestSwingBoundaryExcluded tests that candles near the edges are
// never classified
func TestSwingBoundaryExcluded(t *testing.T) {
	detector := NewSwingDetector(2)

	// The highest high sits at index 1, inside the boundary margin
	candles := []market.Candle{
		{OpenTime: 1000, Open: 10, High: 11, Low: 9, Close: 10.5},
		{OpenTime: 2000, Open: 10.5, High: 20, Low: 10, Close: 19},
		{OpenTime: 3000, Open: 19, High: 12, Low: 8, Close: 9},
		{OpenTime: 4000, Open: 9, High: 10, Low: 7, Close: 8},
		{OpenTime: 5000, Open: 8, High: 9, Low: 6, Close: 7},
	}

	for _, s := range detector.DetectSwings(candles) {
		if s.Index < 2 || s.Index > 2 {
			t.Errorf("Swing at boundary index %d should not be classified", s.Index)
		}
	}
}

// TestSwingShortSeries tests that too few candles yield no swings
func TestSwingShortSeries(t *testing.T) {
	detector := NewSwingDetector(2)

	candles := []market.Candle{
		{OpenTime: 1000, High: 10, Low: 9},
		{OpenTime: 2000, High: 15, Low: 11},
		{OpenTime: 3000, High: 10, Low: 9},
	}

	if swings := detector.DetectSwings(candles); len(swings) != 0 {
		t.Errorf("Expected no swings with 3 candles and window 2, got %d", len(swings))
	}
}
