// Package provider defines the boundary to the external data
// collaborator. The core never fetches candles from an exchange; series
// arrive already fetched, ordered and gap-free.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"market-analyzer/internal/market"
)

// ErrSeriesUnavailable indicates the collaborator has not supplied a
// series for the requested symbol/timeframe. Multi-symbol scans treat
// it as a per-symbol rejection, never a scan failure.
var ErrSeriesUnavailable = errors.New("series unavailable")

// CandleProvider supplies candle series per (symbol, timeframe)
type CandleProvider interface {
	Series(ctx context.Context, symbol string, timeframe market.Timeframe) (market.Series, error)
}

// MemoryProvider is an in-process CandleProvider fed through the ingest
// API. Series are validated on write and immutable afterward.
type MemoryProvider struct {
	mu     sync.RWMutex
	series map[string]map[market.Timeframe]market.Series
}

// NewMemoryProvider creates an empty provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		series: make(map[string]map[market.Timeframe]market.Series),
	}
}

// Put validates and stores a series, replacing any previous one for the
// same (symbol, timeframe). Invalid series are rejected as a whole.
func (mp *MemoryProvider) Put(s market.Series) error {
	if err := s.Validate(); err != nil {
		return err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.series[s.Symbol]; !ok {
		mp.series[s.Symbol] = make(map[market.Timeframe]market.Series)
	}
	mp.series[s.Symbol][s.Timeframe] = s
	return nil
}

// Series returns the stored series or ErrSeriesUnavailable
func (mp *MemoryProvider) Series(_ context.Context, symbol string, timeframe market.Timeframe) (market.Series, error) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	byTF, ok := mp.series[symbol]
	if !ok {
		return market.Series{}, fmt.Errorf("%w: %s %s", ErrSeriesUnavailable, symbol, timeframe)
	}
	s, ok := byTF[timeframe]
	if !ok {
		return market.Series{}, fmt.Errorf("%w: %s %s", ErrSeriesUnavailable, symbol, timeframe)
	}
	return s, nil
}

// Symbols returns every symbol with at least one stored series
func (mp *MemoryProvider) Symbols() []string {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	out := make([]string, 0, len(mp.series))
	for symbol := range mp.series {
		out = append(out, symbol)
	}
	return out
}
