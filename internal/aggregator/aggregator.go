// Package aggregator composes the per-timeframe detector outputs into
// one market-state document per symbol.
package aggregator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/analysis"
	"market-analyzer/internal/indicators"
	"market-analyzer/internal/market"
	"market-analyzer/internal/provider"
)

// Aggregator runs the analytical pipeline for every configured
// timeframe of a symbol and joins the results. Each timeframe analysis
// is a pure function of its candle window, so recomputing on identical
// input yields an identical document.
type Aggregator struct {
	provider  provider.CandleProvider
	cfg       config.AnalysisConfig
	regimeCfg config.RegimeConfig
	logger    zerolog.Logger

	swings     *analysis.SwingDetector
	structure  *analysis.StructureShiftDetector
	fvg        *analysis.FVGDetector
	blocks     *analysis.OrderBlockDetector
	liquidity  *analysis.LiquidityMapper
	regime     *analysis.RegimeClassifier
	orderFlow  *analysis.OrderFlowEstimator
	volume     *analysis.VolumeAnalyzer
}

// New creates an aggregator wired to a candle provider
func New(p provider.CandleProvider, cfg config.AnalysisConfig, regimeCfg config.RegimeConfig, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		provider:  p,
		cfg:       cfg,
		regimeCfg: regimeCfg,
		logger:    logger,
		swings:    analysis.NewSwingDetector(cfg.SwingWindow),
		structure: analysis.NewStructureShiftDetector(cfg.SwingWindow),
		fvg:       analysis.NewFVGDetector(cfg.FVGMinGapPercent),
		blocks:    analysis.NewOrderBlockDetector(cfg.OrderBlockLookback),
		liquidity: analysis.NewLiquidityMapper(cfg.LiquidityTolerance),
		regime: analysis.NewRegimeClassifier(analysis.RegimeThresholds{
			TrendingADX:      regimeCfg.TrendingADX,
			RangingADX:       regimeCfg.RangingADX,
			TrendingRatio:    regimeCfg.TrendingRatio,
			RangingRatio:     regimeCfg.RangingRatio,
			VolatilePctl:     regimeCfg.VolatilePctl,
			RangeLookback:    regimeCfg.RangeLookback,
			PercentileWindow: regimeCfg.PercentileWindow,
		}),
		orderFlow: analysis.NewOrderFlowEstimator(cfg.OrderFlowWindow, cfg.LargeOrderMult),
		volume:    analysis.NewVolumeAnalyzer(20),
	}
}

// Analyze produces the market-state document for one symbol. Timeframe
// analyses run in parallel and all must complete before the document is
// composed; per-timeframe failures are isolated into status fields.
func (ag *Aggregator) Analyze(ctx context.Context, symbol string) *MarketReport {
	report := &MarketReport{
		Symbol:      symbol,
		GeneratedAt: time.Now().UTC(),
		Timeframes:  make(map[string]*TimeframeAnalysis, len(ag.cfg.Timeframes)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, tf := range ag.cfg.Timeframes {
		wg.Add(1)
		go func(tf string) {
			defer wg.Done()
			ta := ag.analyzeTimeframe(ctx, symbol, market.Timeframe(tf))
			mu.Lock()
			report.Timeframes[tf] = ta
			mu.Unlock()
		}(tf)
	}
	wg.Wait()

	ag.compose(report)

	ag.logger.Debug().
		Str("symbol", symbol).
		Str("status", string(report.Status)).
		Int("timeframes", len(report.Timeframes)).
		Msg("analysis composed")

	return report
}

// compose derives the report-level status, price and bias after the
// timeframe join.
func (ag *Aggregator) compose(report *MarketReport) {
	okCount := 0
	for _, ta := range report.Timeframes {
		if ta.Status == StatusOK {
			okCount++
		}
	}

	switch {
	case okCount == len(report.Timeframes):
		report.Status = StatusOK
	case okCount > 0:
		// Partial results are valid and expected early in a series
		report.Status = StatusOK
		report.StatusDetail = "partial: some timeframes lack data"
	default:
		report.Status = ag.worstStatus(report)
	}

	ltf := report.Timeframes[ag.cfg.LTFTimeframe]
	if ltf != nil {
		report.Bias.LTFTimeframe = ag.cfg.LTFTimeframe
		report.Bias.LTFTrend = ltf.Trend
	}
	htf := report.Timeframes[ag.cfg.HTFTimeframe]
	if htf != nil {
		report.Bias.HTFTimeframe = ag.cfg.HTFTimeframe
		report.Bias.HTFTrend = htf.Trend
	}

	// Current price comes from the lowest timeframe with data
	for _, tf := range ag.cfg.Timeframes {
		ta := report.Timeframes[tf]
		if ta != nil && ta.Status == StatusOK && ta.lastClose != nil {
			report.CurrentPrice = ta.lastClose
			break
		}
	}
}

func (ag *Aggregator) worstStatus(report *MarketReport) Status {
	status := StatusInsufficientData
	for _, ta := range report.Timeframes {
		if ta.Status == StatusInvalidSeries {
			return StatusInvalidSeries
		}
		if ta.Status == StatusUnavailable {
			status = StatusUnavailable
		}
	}
	return status
}

// analyzeTimeframe runs the full detector pipeline over one series
func (ag *Aggregator) analyzeTimeframe(ctx context.Context, symbol string, tf market.Timeframe) *TimeframeAnalysis {
	ta := &TimeframeAnalysis{Timeframe: string(tf), Status: StatusOK}

	series, err := ag.provider.Series(ctx, symbol, tf)
	if err != nil {
		ta.Status = StatusUnavailable
		ta.StatusDetail = err.Error()
		return ta
	}

	if err := series.Validate(); err != nil {
		switch {
		case errors.Is(err, market.ErrInvalidSeries):
			ta.Status = StatusInvalidSeries
		case errors.Is(err, market.ErrInsufficientData):
			ta.Status = StatusInsufficientData
		default:
			ta.Status = StatusUnavailable
		}
		ta.StatusDetail = err.Error()
		return ta
	}

	candles := series.Candles
	ta.CandleCount = len(candles)
	last := candles[len(candles)-1]
	ta.lastClose = &last.Close

	// Indicators
	rsi := indicators.RSI(candles, ag.cfg.RSIPeriod)
	atr := indicators.ATR(candles, ag.cfg.ATRPeriod)
	adx := indicators.ADX(candles, ag.cfg.ADXPeriod)
	macd := indicators.MACD(candles, ag.cfg.MACDFastPeriod, ag.cfg.MACDSlowPeriod, ag.cfg.MACDSignalPeriod)
	ta.Indicators = IndicatorSnapshot{
		RSI:           numPtr(indicators.Latest(rsi)),
		EMAFast:       numPtr(indicators.Latest(indicators.EMAClose(candles, ag.cfg.EMAFastPeriod))),
		EMASlow:       numPtr(indicators.Latest(indicators.EMAClose(candles, ag.cfg.EMASlowPeriod))),
		MACD:          numPtr(indicators.Latest(macd.MACD)),
		MACDSignal:    numPtr(indicators.Latest(macd.Signal)),
		MACDHistogram: numPtr(indicators.Latest(macd.Histogram)),
		ATR:           numPtr(indicators.Latest(atr)),
		ADX:           numPtr(indicators.Latest(adx)),
	}

	// Structural layer
	ta.Swings = ag.swings.DetectSwings(candles)
	ta.StructureBias = analysis.CountStructureBias(ta.Swings)
	ta.StructureShifts = ag.structure.DetectShifts(candles, ta.Swings)
	ta.FairValueGaps = ag.fvg.DetectGaps(candles)
	ta.OrderBlocks = ag.blocks.DetectBlocks(candles, ta.StructureShifts)

	atrLatest := indicators.Latest(atr)
	if !indicators.Defined(atrLatest) {
		atrLatest = 0
	}
	ta.LiquidityZones = ag.liquidity.MapZones(candles, ta.Swings, last.Close, atrLatest)

	// Classification layer
	ta.Trend = analysis.DetectTrend(candles, ag.cfg.EMAFastPeriod, ag.cfg.EMASlowPeriod)
	ta.Regime = ag.regime.Classify(candles, adx, atr)
	ta.OrderFlow = ag.orderFlow.Estimate(candles)
	ta.Volume = ag.volume.Summarize(candles)

	return ta
}
