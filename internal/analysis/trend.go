package analysis

import (
	"market-analyzer/internal/indicators"
	"market-analyzer/internal/market"
)

// TrendDirection represents the prevailing trend on one timeframe
type TrendDirection string

const (
	TrendBullish  TrendDirection = "BULLISH"
	TrendBearish  TrendDirection = "BEARISH"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// DetectTrend classifies the trend from the relation of a fast and a
// slow EMA combined with recent price slope. EMAs within half a percent
// of each other read as sideways.
func DetectTrend(candles []market.Candle, fastPeriod, slowPeriod int) TrendDirection {
	if len(candles) < slowPeriod {
		return TrendSideways
	}

	fast := indicators.Latest(indicators.EMAClose(candles, fastPeriod))
	slow := indicators.Latest(indicators.EMAClose(candles, slowPeriod))
	if !indicators.Defined(fast) || !indicators.Defined(slow) || slow == 0 {
		return TrendSideways
	}

	separation := fast - slow
	if separation < 0 {
		separation = -separation
	}
	if separation/slow*100 < 0.5 {
		return TrendSideways
	}

	slope := priceSlope(candles, 10)
	if fast > slow && slope > 0.001 {
		return TrendBullish
	}
	if fast < slow && slope < -0.001 {
		return TrendBearish
	}
	return TrendSideways
}

// priceSlope returns the relative close change over the last n candles
func priceSlope(candles []market.Candle, n int) float64 {
	if len(candles) < n+1 {
		return 0
	}
	past := candles[len(candles)-n-1].Close
	if past == 0 {
		return 0
	}
	return (candles[len(candles)-1].Close - past) / past
}

// StructureBias summarizes higher-high / lower-low counts from swings
type StructureBias struct {
	HigherHighs int `json:"higher_highs"`
	LowerHighs  int `json:"lower_highs"`
	HigherLows  int `json:"higher_lows"`
	LowerLows   int `json:"lower_lows"`
}

// CountStructureBias walks consecutive swing highs and lows, counting
// each pair's relation.
func CountStructureBias(swings []SwingPoint) StructureBias {
	var bias StructureBias

	highs := SwingHighs(swings)
	for i := 1; i < len(highs); i++ {
		if highs[i].Price > highs[i-1].Price {
			bias.HigherHighs++
		} else if highs[i].Price < highs[i-1].Price {
			bias.LowerHighs++
		}
	}

	lows := SwingLows(swings)
	for i := 1; i < len(lows); i++ {
		if lows[i].Price > lows[i-1].Price {
			bias.HigherLows++
		} else if lows[i].Price < lows[i-1].Price {
			bias.LowerLows++
		}
	}

	return bias
}
