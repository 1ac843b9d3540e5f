package provider

import (
	"context"
	"errors"
	"testing"

	"market-analyzer/internal/market"
)

func validSeries(symbol string, tf market.Timeframe) market.Series {
	return market.Series{
		Symbol:    symbol,
		Timeframe: tf,
		Candles: []market.Candle{
			{OpenTime: 1000, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 10},
			{OpenTime: 2000, Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 12},
		},
	}
}

// TestPutAndGet tests the store/fetch round trip
func TestPutAndGet(t *testing.T) {
	p := NewMemoryProvider()

	if err := p.Put(validSeries("BTCUSDT", market.TF1h)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	s, err := p.Series(context.Background(), "BTCUSDT", market.TF1h)
	if err != nil {
		t.Fatalf("Series failed: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 candles, got %d", s.Len())
	}
}

// TestMissingSeries tests the unavailable sentinel
func TestMissingSeries(t *testing.T) {
	p := NewMemoryProvider()
	p.Put(validSeries("BTCUSDT", market.TF1h))

	_, err := p.Series(context.Background(), "BTCUSDT", market.TF4h)
	if !errors.Is(err, ErrSeriesUnavailable) {
		t.Errorf("Expected ErrSeriesUnavailable for missing timeframe, got %v", err)
	}

	_, err = p.Series(context.Background(), "ETHUSDT", market.TF1h)
	if !errors.Is(err, ErrSeriesUnavailable) {
		t.Errorf("Expected ErrSeriesUnavailable for missing symbol, got %v", err)
	}
}

// TestPutRejectsInvalid tests that a bad series is rejected as a whole
func TestPutRejectsInvalid(t *testing.T) {
	p := NewMemoryProvider()

	bad := market.Series{
		Symbol:    "BTCUSDT",
		Timeframe: market.TF1h,
		Candles: []market.Candle{
			{OpenTime: 2000, Close: 100},
			{OpenTime: 1000, Close: 101},
		},
	}
	if err := p.Put(bad); err == nil {
		t.Fatal("Expected Put to reject an out-of-order series")
	}

	if _, err := p.Series(context.Background(), "BTCUSDT", market.TF1h); err == nil {
		t.Error("Rejected series must not be stored")
	}
}

// TestPutReplaces tests that a new series replaces the old one
func TestPutReplaces(t *testing.T) {
	p := NewMemoryProvider()
	p.Put(validSeries("BTCUSDT", market.TF1h))

	replacement := validSeries("BTCUSDT", market.TF1h)
	replacement.Candles = append(replacement.Candles,
		market.Candle{OpenTime: 3000, Open: 101, High: 103, Low: 100, Close: 102, Volume: 9})
	p.Put(replacement)

	s, _ := p.Series(context.Background(), "BTCUSDT", market.TF1h)
	if s.Len() != 3 {
		t.Errorf("Expected replacement with 3 candles, got %d", s.Len())
	}

	if symbols := p.Symbols(); len(symbols) != 1 {
		t.Errorf("Expected 1 symbol, got %d", len(symbols))
	}
}
