package analysis

import (
	"math"

	"market-analyzer/internal/indicators"
	"market-analyzer/internal/market"
)

// RegimeType classifies current market behavior
type RegimeType string

const (
	RegimeTrending     RegimeType = "TRENDING"
	RegimeRanging      RegimeType = "RANGING"
	RegimeVolatile     RegimeType = "VOLATILE"
	RegimeTransitional RegimeType = "TRANSITIONAL"
)

// VolatilityState buckets the ATR percentile
type VolatilityState string

const (
	VolatilityLow     VolatilityState = "LOW"
	VolatilityNormal  VolatilityState = "NORMAL"
	VolatilityHigh    VolatilityState = "HIGH"
	VolatilityExtreme VolatilityState = "EXTREME"
)

// MarketRegime is the classification result. Confidence and trend
// strength are continuous scores in [0,1], not binary flags.
type MarketRegime struct {
	Type            RegimeType      `json:"type"`
	Confidence      float64         `json:"confidence"`
	VolatilityState VolatilityState `json:"volatility_state"`
	TrendStrength   float64         `json:"trend_strength"`
}

// RegimeThresholds are empirically chosen tunables, not hard-coded
// truths; all of them are configurable.
type RegimeThresholds struct {
	TrendingADX      float64 // ADX above this supports TRENDING
	RangingADX       float64 // ADX below this supports RANGING
	TrendingRatio    float64 // price-range ratio above this supports TRENDING
	RangingRatio     float64 // price-range ratio below this supports RANGING
	VolatilePctl     float64 // ATR percentile above this overrides to VOLATILE
	RangeLookback    int     // candles for the recent high-low range
	PercentileWindow int     // rolling window for the ATR percentile
}

// DefaultRegimeThresholds returns the standard tuning
func DefaultRegimeThresholds() RegimeThresholds {
	return RegimeThresholds{
		TrendingADX:      25,
		RangingADX:       20,
		TrendingRatio:    15,
		RangingRatio:     10,
		VolatilePctl:     80,
		RangeLookback:    20,
		PercentileWindow: 30,
	}
}

// RegimeClassifier derives a market regime from already-computed
// indicator series via deterministic thresholding.
type RegimeClassifier struct {
	thresholds RegimeThresholds
}

// NewRegimeClassifier creates a classifier with the given thresholds
func NewRegimeClassifier(thresholds RegimeThresholds) *RegimeClassifier {
	if thresholds == (RegimeThresholds{}) {
		thresholds = DefaultRegimeThresholds()
	}
	return &RegimeClassifier{thresholds: thresholds}
}

// Classify combines the latest ADX, an ATR percentile over a rolling
// window, and the recent price-range-to-ATR ratio. An undefined ADX or
// a zero ATR means the regime is unknown: the result is TRANSITIONAL at
// half confidence, never a guess built on a misleading number.
func (rc *RegimeClassifier) Classify(candles []market.Candle, adxSeries, atrSeries []float64) MarketRegime {
	t := rc.thresholds

	adx := indicators.Latest(adxSeries)
	atr := indicators.Latest(atrSeries)

	if !indicators.Defined(adx) || !indicators.Defined(atr) || atr == 0 {
		return MarketRegime{
			Type:            RegimeTransitional,
			Confidence:      0.5,
			VolatilityState: VolatilityNormal,
			TrendStrength:   0.5,
		}
	}

	rangeRatio := rc.priceRangeRatio(candles, atr)
	pctl := atrPercentile(atrSeries, atr, t.PercentileWindow)

	regime := MarketRegime{
		VolatilityState: volatilityState(pctl),
		TrendStrength:   clamp01(adx / 50),
	}

	switch {
	case adx > t.TrendingADX && rangeRatio > t.TrendingRatio:
		regime.Type = RegimeTrending
		regime.Confidence = clamp01(adx / 50)
	case adx < t.RangingADX && rangeRatio < t.RangingRatio:
		regime.Type = RegimeRanging
		regime.Confidence = clamp01((t.TrendingADX - adx) / t.TrendingADX)
	case pctl > t.VolatilePctl:
		regime.Type = RegimeVolatile
		regime.Confidence = clamp01(pctl / 100)
	default:
		regime.Type = RegimeTransitional
		regime.Confidence = 0.5
	}

	// Extreme volatility overrides the trend reading
	if regime.Type != RegimeVolatile && pctl > t.VolatilePctl && regime.VolatilityState == VolatilityExtreme {
		regime.Type = RegimeVolatile
		regime.Confidence = clamp01(pctl / 100)
	}

	return regime
}

// priceRangeRatio measures the recent high-low range in ATR units
func (rc *RegimeClassifier) priceRangeRatio(candles []market.Candle, atr float64) float64 {
	lookback := rc.thresholds.RangeLookback
	if len(candles) < lookback {
		lookback = len(candles)
	}
	if lookback == 0 || atr == 0 {
		return 0
	}

	start := len(candles) - lookback
	high := candles[start].High
	low := candles[start].Low
	for _, c := range candles[start:] {
		high = math.Max(high, c.High)
		low = math.Min(low, c.Low)
	}

	return (high - low) / atr
}

// atrPercentile returns the percentage of recent ATR values below the
// current one.
func atrPercentile(atrSeries []float64, current float64, window int) float64 {
	below := 0
	total := 0
	for i := len(atrSeries) - 1; i >= 0 && total < window; i-- {
		if !indicators.Defined(atrSeries[i]) {
			continue
		}
		total++
		if atrSeries[i] < current {
			below++
		}
	}
	if total == 0 {
		return 50
	}
	return float64(below) / float64(total) * 100
}

func volatilityState(pctl float64) VolatilityState {
	switch {
	case pctl < 30:
		return VolatilityLow
	case pctl > 90:
		return VolatilityExtreme
	case pctl > 70:
		return VolatilityHigh
	default:
		return VolatilityNormal
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
