// Package scanner runs the multi-symbol scan: a bounded worker pool
// analyzes and scores each symbol independently, results fan in over a
// channel, and candidates come back ranked.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/events"
	"market-analyzer/internal/market"
	"market-analyzer/internal/provider"
)

// Scanner orchestrates scoring across many symbols
type Scanner struct {
	aggregator *aggregator.Aggregator
	provider   provider.CandleProvider
	scorer     *CoinScorer
	bus        *events.EventBus
	cfg        config.ScannerConfig
	timeout    time.Duration
	primary    market.Timeframe
	logger     zerolog.Logger

	mu         sync.RWMutex
	lastResult *ScanResult
}

// New creates a scanner
func New(
	ag *aggregator.Aggregator,
	p provider.CandleProvider,
	scorer *CoinScorer,
	bus *events.EventBus,
	cfg config.ScannerConfig,
	timeout time.Duration,
	primaryTimeframe string,
	logger zerolog.Logger,
) *Scanner {
	return &Scanner{
		aggregator: ag,
		provider:   p,
		scorer:     scorer,
		bus:        bus,
		cfg:        cfg,
		timeout:    timeout,
		primary:    market.Timeframe(primaryTimeframe),
		logger:     logger,
	}
}

// Scan analyzes and scores every symbol. Symbols run as independent
// tasks on a bounded worker pool; per-symbol failures become rejections
// and never abort sibling symbols. Results are sorted by total score
// descending with rejections reported separately.
func (sc *Scanner) Scan(ctx context.Context, symbols []string) *ScanResult {
	ctx, cancel := context.WithTimeout(ctx, sc.timeout)
	defer cancel()

	startTime := time.Now()
	scanID := uuid.NewString()

	sc.bus.Publish(events.Event{
		Type: events.EventScanStarted,
		Data: map[string]interface{}{"scan_id": scanID, "symbols": len(symbols)},
	})
	sc.logger.Info().Str("scan_id", scanID).Int("symbols", len(symbols)).Msg("scan started")

	symbolChan := make(chan string, len(symbols))
	resultChan := make(chan CoinScore, len(symbols))

	var wg sync.WaitGroup
	workers := sc.cfg.WorkerCount
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go sc.worker(ctx, symbolChan, resultChan, &wg)
	}

	for _, symbol := range symbols {
		symbolChan <- symbol
	}
	close(symbolChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Fan-in: the only shared state is this collection loop
	result := &ScanResult{
		ScanID:         scanID,
		StartTime:      startTime,
		SymbolsScanned: len(symbols),
	}
	for score := range resultChan {
		if score.Rejected {
			result.Rejected = append(result.Rejected, score)
		} else {
			result.Candidates = append(result.Candidates, score)
		}
	}

	sort.Slice(result.Candidates, func(i, j int) bool {
		return result.Candidates[i].TotalScore > result.Candidates[j].TotalScore
	})
	sort.Slice(result.Rejected, func(i, j int) bool {
		return result.Rejected[i].Symbol < result.Rejected[j].Symbol
	})

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	sc.mu.Lock()
	sc.lastResult = result
	sc.mu.Unlock()

	sc.bus.PublishScanCompleted(scanID, len(symbols), len(result.Candidates), len(result.Rejected))
	sc.logger.Info().
		Str("scan_id", scanID).
		Dur("duration", result.Duration).
		Int("candidates", len(result.Candidates)).
		Int("rejected", len(result.Rejected)).
		Msg("scan completed")

	return result
}

func (sc *Scanner) worker(ctx context.Context, symbolChan <-chan string, resultChan chan<- CoinScore, wg *sync.WaitGroup) {
	defer wg.Done()

	for symbol := range symbolChan {
		select {
		case <-ctx.Done():
			resultChan <- rejected(CoinScore{Symbol: symbol}, RejectDataUnavailable, "scan cancelled")
		default:
			resultChan <- sc.scanSymbol(ctx, symbol)
		}
	}
}

// scanSymbol aggregates one symbol's document and scores it
func (sc *Scanner) scanSymbol(ctx context.Context, symbol string) CoinScore {
	report := sc.aggregator.Analyze(ctx, symbol)

	primary, err := sc.provider.Series(ctx, symbol, sc.primary)
	if err != nil {
		return rejected(CoinScore{Symbol: symbol, Report: report}, RejectDataUnavailable, err.Error())
	}

	return sc.scorer.Score(report, primary)
}

// LastResult returns the most recent scan result, or nil before the
// first scan.
func (sc *Scanner) LastResult() *ScanResult {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastResult
}

// Best returns the highest scoring non-rejected symbol of the last
// scan; ok is false when every symbol was rejected or no scan has run.
func (sc *Scanner) Best() (CoinScore, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	if sc.lastResult == nil || len(sc.lastResult.Candidates) == 0 {
		return CoinScore{}, false
	}
	return sc.lastResult.Candidates[0], true
}
