package analysis

import (
	"market-analyzer/internal/market"
)

// SwingKind distinguishes swing highs from swing lows
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint represents a local structural extremum (fractal)
type SwingPoint struct {
	Index int       `json:"index"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
}

// SwingDetector finds fractal highs and lows in a candle series
type SwingDetector struct {
	window int // candles checked on each side
}

// NewSwingDetector creates a swing detector with the given window
func NewSwingDetector(window int) *SwingDetector {
	if window <= 0 {
		window = 2
	}
	return &SwingDetector{window: window}
}

// DetectSwings returns all swing points ordered by candle index. A
// candle is a swing high when its high is the maximum across the
// symmetric window: strictly above every earlier neighbor and at least
// equal to every later one, so equal highs classify the earliest index
// only. Candles within window of a series boundary lack neighbors and
// are never classified. An outside bar that qualifies on both sides is
// classified once, by candle color.
func (sd *SwingDetector) DetectSwings(candles []market.Candle) []SwingPoint {
	var swings []SwingPoint
	if len(candles) < 2*sd.window+1 {
		return swings
	}

	for i := sd.window; i < len(candles)-sd.window; i++ {
		isHigh := sd.isExtreme(candles, i, true)
		isLow := sd.isExtreme(candles, i, false)

		if isHigh && isLow {
			// A single wide-range candle dominating both sides forms
			// the extremum its close rejected from.
			if candles[i].IsBearish() {
				isLow = false
			} else {
				isHigh = false
			}
		}

		if isHigh {
			swings = append(swings, SwingPoint{Index: i, Price: candles[i].High, Kind: SwingHigh})
		}
		if isLow {
			swings = append(swings, SwingPoint{Index: i, Price: candles[i].Low, Kind: SwingLow})
		}
	}

	return swings
}

func (sd *SwingDetector) isExtreme(candles []market.Candle, i int, high bool) bool {
	for j := i - sd.window; j <= i+sd.window; j++ {
		if j == i {
			continue
		}
		if high {
			if j < i && candles[j].High >= candles[i].High {
				return false
			}
			if j > i && candles[j].High > candles[i].High {
				return false
			}
		} else {
			if j < i && candles[j].Low <= candles[i].Low {
				return false
			}
			if j > i && candles[j].Low < candles[i].Low {
				return false
			}
		}
	}
	return true
}

// SwingHighs filters swing points down to highs
func SwingHighs(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.Kind == SwingHigh {
			out = append(out, s)
		}
	}
	return out
}

// SwingLows filters swing points down to lows
func SwingLows(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.Kind == SwingLow {
			out = append(out, s)
		}
	}
	return out
}
