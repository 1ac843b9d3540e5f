package scanner

import (
	"sync"
	"time"

	"market-analyzer/internal/aggregator"
)

type cachedReport struct {
	report    *aggregator.MarketReport
	expiresAt time.Time
}

// ReportCache holds recently composed market reports with a TTL so the
// API can serve repeat requests without rerunning the pipeline.
type ReportCache struct {
	mu    sync.RWMutex
	cache map[string]cachedReport
	ttl   time.Duration
}

// NewReportCache creates a cache with the given TTL
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{
		cache: make(map[string]cachedReport),
		ttl:   ttl,
	}
}

// Get returns the cached report for a symbol if it has not expired
func (rc *ReportCache) Get(symbol string) *aggregator.MarketReport {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	cached, ok := rc.cache[symbol]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil
	}
	return cached.report
}

// Set stores a report
func (rc *ReportCache) Set(symbol string, report *aggregator.MarketReport) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.cache[symbol] = cachedReport{
		report:    report,
		expiresAt: time.Now().Add(rc.ttl),
	}
}

// Invalidate drops a symbol's cached report, e.g. after new candles
// arrive for it.
func (rc *ReportCache) Invalidate(symbol string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.cache, symbol)
}

// CleanupExpired removes expired entries
func (rc *ReportCache) CleanupExpired() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := time.Now()
	for symbol, cached := range rc.cache {
		if now.After(cached.expiresAt) {
			delete(rc.cache, symbol)
		}
	}
}
