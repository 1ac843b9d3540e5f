package scanner

import (
	"testing"
	"time"

	"market-analyzer/internal/aggregator"
)

// TestReportCacheRoundTrip tests basic set/get behavior
func TestReportCacheRoundTrip(t *testing.T) {
	cache := NewReportCache(time.Minute)

	if cache.Get("BTCUSDT") != nil {
		t.Error("Expected miss on empty cache")
	}

	report := &aggregator.MarketReport{Symbol: "BTCUSDT", Status: aggregator.StatusOK}
	cache.Set("BTCUSDT", report)

	if got := cache.Get("BTCUSDT"); got != report {
		t.Error("Expected the cached report back")
	}
}

// TestReportCacheExpiry tests that entries expire after the TTL
func TestReportCacheExpiry(t *testing.T) {
	cache := NewReportCache(10 * time.Millisecond)

	cache.Set("BTCUSDT", &aggregator.MarketReport{Symbol: "BTCUSDT"})
	time.Sleep(20 * time.Millisecond)

	if cache.Get("BTCUSDT") != nil {
		t.Error("Expected expired entry to miss")
	}

	cache.CleanupExpired()
}

// TestReportCacheInvalidate tests explicit invalidation
func TestReportCacheInvalidate(t *testing.T) {
	cache := NewReportCache(time.Minute)

	cache.Set("BTCUSDT", &aggregator.MarketReport{Symbol: "BTCUSDT"})
	cache.Invalidate("BTCUSDT")

	if cache.Get("BTCUSDT") != nil {
		t.Error("Expected miss after invalidation")
	}
}
