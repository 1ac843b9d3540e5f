package scanner

import (
	"fmt"
	"math"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/analysis"
	"market-analyzer/internal/indicators"
	"market-analyzer/internal/market"
)

// CoinScorer ranks symbols by weighted multi-criteria scores. Hard
// filters short-circuit: a filtered symbol is rejected with a reason
// and skips weighted scoring entirely.
type CoinScorer struct {
	cfg     config.ScorerConfig
	primary string // timeframe the criteria read from
}

// NewCoinScorer creates a scorer reading criteria from the given
// primary timeframe of each report.
func NewCoinScorer(cfg config.ScorerConfig, primaryTimeframe string) *CoinScorer {
	return &CoinScorer{cfg: cfg, primary: primaryTimeframe}
}

// Score evaluates one symbol's aggregated report plus its primary
// candle series. Portfolio or scan-wide state is never consulted; the
// score is a pure function of the inputs.
func (cs *CoinScorer) Score(report *aggregator.MarketReport, primary market.Series) CoinScore {
	score := CoinScore{Symbol: report.Symbol, Report: report}

	// Hard filters first; each one short-circuits
	if reason, detail := cs.statusFilter(report); reason != "" {
		return rejected(score, reason, detail)
	}

	ta := report.Timeframes[cs.primary]
	if ta == nil || ta.Status != aggregator.StatusOK {
		return rejected(score, RejectInsufficientData,
			fmt.Sprintf("primary timeframe %s has no usable data", cs.primary))
	}

	if rangeBound, detail := cs.isRangeBound(ta, primary.Candles); rangeBound {
		return rejected(score, RejectRangeBound, detail)
	}

	if ta.Volume.QuoteVolume < cs.cfg.MinQuoteVolume {
		return rejected(score, RejectLowVolume,
			fmt.Sprintf("quote volume %.0f below minimum %.0f", ta.Volume.QuoteVolume, cs.cfg.MinQuoteVolume))
	}

	if cs.cfg.RejectExtremeVolatility && ta.Regime.VolatilityState == analysis.VolatilityExtreme {
		return rejected(score, RejectExtremeVolatility, "ATR percentile in extreme band")
	}

	// Weighted criteria, each normalized to [0,1]
	score.Scores = CriteriaScores{
		TrendQuality:     cs.trendQuality(ta, primary.Candles),
		VolumeHealth:     cs.volumeHealth(primary.Candles),
		VolatilityHealth: cs.volatilityHealth(ta, primary.Candles),
		Momentum:         cs.momentum(ta),
		StructureQuality: cs.structureQuality(ta),
		LiquidityQuality: cs.liquidityQuality(ta),
	}

	score.TotalScore = score.Scores.TrendQuality*cs.cfg.TrendQualityWeight +
		score.Scores.VolumeHealth*cs.cfg.VolumeHealthWeight +
		score.Scores.VolatilityHealth*cs.cfg.VolatilityHealthWeight +
		score.Scores.Momentum*cs.cfg.MomentumWeight +
		score.Scores.StructureQuality*cs.cfg.StructureQualityWeight +
		score.Scores.LiquidityQuality*cs.cfg.LiquidityQualityWeight

	return score
}

func rejected(score CoinScore, reason RejectionReason, detail string) CoinScore {
	score.Rejected = true
	score.RejectionReason = reason
	score.RejectionDetail = detail
	return score
}

func (cs *CoinScorer) statusFilter(report *aggregator.MarketReport) (RejectionReason, string) {
	switch report.Status {
	case aggregator.StatusUnavailable:
		return RejectDataUnavailable, report.StatusDetail
	case aggregator.StatusInvalidSeries:
		return RejectInvalidSeries, report.StatusDetail
	case aggregator.StatusInsufficientData:
		return RejectInsufficientData, report.StatusDetail
	}
	return "", ""
}

// isRangeBound flags symbols stuck in consolidation: a ranging regime
// combined with tight EMAs, a narrow price band, or frequent EMA
// crosses over the configured window.
func (cs *CoinScorer) isRangeBound(ta *aggregator.TimeframeAnalysis, candles []market.Candle) (bool, string) {
	if ta.Regime.Type != analysis.RegimeRanging && ta.Trend != analysis.TrendSideways {
		return false, ""
	}

	window := cs.cfg.MaxRangeCandles
	if len(candles) < window {
		return false, ""
	}
	recent := candles[len(candles)-window:]

	low := recent[0].Low
	high := recent[0].High
	for _, c := range recent {
		low = math.Min(low, c.Low)
		high = math.Max(high, c.High)
	}
	rangePct := 0.0
	if low > 0 {
		rangePct = (high - low) / low * 100
	}

	emaSeparation := cs.emaSeparation(ta)
	crosses := emaCrosses(candles, window)

	switch {
	case rangePct < 5:
		return true, fmt.Sprintf("%.1f%% band over %d candles", rangePct, window)
	case emaSeparation >= 0 && emaSeparation < 0.02 && crosses > 3:
		return true, fmt.Sprintf("EMAs within %.3f with %d crosses", emaSeparation, crosses)
	case ta.Regime.Type == analysis.RegimeRanging && ta.Regime.Confidence > 0.6:
		return true, fmt.Sprintf("ranging regime confidence %.2f", ta.Regime.Confidence)
	}
	return false, ""
}

func (cs *CoinScorer) emaSeparation(ta *aggregator.TimeframeAnalysis) float64 {
	if ta.Indicators.EMAFast == nil || ta.Indicators.EMASlow == nil || *ta.Indicators.EMASlow == 0 {
		return -1
	}
	return math.Abs(*ta.Indicators.EMAFast-*ta.Indicators.EMASlow) / *ta.Indicators.EMASlow
}

// emaCrosses counts fast/slow EMA crossovers over the trailing window
func emaCrosses(candles []market.Candle, window int) int {
	fast := indicators.EMAClose(candles, 20)
	slow := indicators.EMAClose(candles, 50)

	start := len(candles) - window
	if start < 1 {
		start = 1
	}
	crosses := 0
	for i := start; i < len(candles); i++ {
		if !indicators.Defined(fast[i-1]) || !indicators.Defined(slow[i-1]) {
			continue
		}
		prevAbove := fast[i-1] > slow[i-1]
		nowAbove := fast[i] > slow[i]
		if prevAbove != nowAbove {
			crosses++
		}
	}
	return crosses
}

// trendQuality grades trend strength, candle consistency and RSI
// placement; each contributes a fixed share.
func (cs *CoinScorer) trendQuality(ta *aggregator.TimeframeAnalysis, candles []market.Candle) float64 {
	quality := 0.0

	if sep := cs.emaSeparation(ta); sep > 0.03 {
		quality += 0.4
	}

	uptrend := ta.Trend == analysis.TrendBullish
	consistent := 0
	start := len(candles) - 10
	if start < 0 {
		start = 0
	}
	for _, c := range candles[start:] {
		if uptrend && c.IsBullish() {
			consistent++
		} else if !uptrend && c.IsBearish() {
			consistent++
		}
	}
	if consistent >= 6 {
		quality += 0.3
	}

	if ta.Indicators.RSI != nil && *ta.Indicators.RSI > 35 && *ta.Indicators.RSI < 75 {
		quality += 0.3
	}

	return quality
}

// volumeHealth rewards consistent volume: 1/(1+cv) where cv is the
// relative standard deviation over the trailing window.
func (cs *CoinScorer) volumeHealth(candles []market.Candle) float64 {
	window := 50
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	recent := candles[start:]
	if len(recent) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range recent {
		sum += c.Volume
	}
	avg := sum / float64(len(recent))
	if avg == 0 {
		return 0
	}

	variance := 0.0
	for _, c := range recent {
		d := c.Volume - avg
		variance += d * d
	}
	cv := math.Sqrt(variance/float64(len(recent))) / avg

	return 1 / (1 + cv)
}

// volatilityHealth prefers moderate volatility: ATR between 1.5% and 8%
// of price with modest wicks scores full marks.
func (cs *CoinScorer) volatilityHealth(ta *aggregator.TimeframeAnalysis, candles []market.Candle) float64 {
	if ta.Indicators.ATR == nil || len(candles) == 0 {
		return 0.5
	}
	price := candles[len(candles)-1].Close
	if price == 0 {
		return 0.5
	}
	volPct := *ta.Indicators.ATR / price * 100

	avgWick := averageWickPercent(candles, 20)

	if volPct > 1.5 && volPct < 8 && avgWick < 3 {
		return 1.0
	}
	return 0.5
}

func averageWickPercent(candles []market.Candle, window int) float64 {
	start := len(candles) - window
	if start < 0 {
		start = 0
	}
	recent := candles[start:]
	if len(recent) == 0 {
		return 0
	}

	sum := 0.0
	for _, c := range recent {
		if c.Close == 0 {
			continue
		}
		bodyHigh := math.Max(c.Open, c.Close)
		bodyLow := math.Min(c.Open, c.Close)
		upper := (c.High - bodyHigh) / c.Close * 100
		lower := (bodyLow - c.Low) / c.Close * 100
		sum += (upper + lower) / 2
	}
	return sum / float64(len(recent))
}

// momentum blends RSI distance from neutral with the MACD histogram
// direction.
func (cs *CoinScorer) momentum(ta *aggregator.TimeframeAnalysis) float64 {
	m := 0.5
	if ta.Indicators.RSI != nil {
		m += (*ta.Indicators.RSI - 50) / 50 * 0.3
	}
	if ta.Indicators.MACDHistogram != nil {
		if *ta.Indicators.MACDHistogram > 0 {
			m += 0.2
		} else if *ta.Indicators.MACDHistogram < 0 {
			m -= 0.2
		}
	}
	if m < 0 {
		return 0
	}
	if m > 1 {
		return 1
	}
	return m
}

// structureQuality reads the higher-high/higher-low counts: a clean
// bullish staircase scores 1.0, a bearish one 0.3, anything mixed 0.5.
func (cs *CoinScorer) structureQuality(ta *aggregator.TimeframeAnalysis) float64 {
	b := ta.StructureBias
	if b.HigherHighs > b.LowerHighs && b.HigherLows > b.LowerLows {
		return 1.0
	}
	if b.LowerHighs > b.HigherHighs && b.LowerLows > b.HigherLows {
		return 0.3
	}
	return 0.5
}

// liquidityQuality normalizes quote volume against a saturation level
func (cs *CoinScorer) liquidityQuality(ta *aggregator.TimeframeAnalysis) float64 {
	return math.Min(ta.Volume.QuoteVolume/100_000_000, 1.0)
}
