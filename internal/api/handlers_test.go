package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/events"
	"market-analyzer/internal/market"
	"market-analyzer/internal/provider"
	"market-analyzer/internal/scanner"
)

func newTestServer(t *testing.T, authCfg config.AuthConfig) (*Server, *provider.MemoryProvider) {
	t.Helper()

	analysisCfg := config.AnalysisConfig{
		Timeframes:         []string{"1h"},
		HTFTimeframe:       "1h",
		LTFTimeframe:       "1h",
		SwingWindow:        2,
		OrderBlockLookback: 10,
		LiquidityTolerance: 0.002,
		RSIPeriod:          14,
		ATRPeriod:          14,
		ADXPeriod:          14,
		EMAFastPeriod:      20,
		EMASlowPeriod:      50,
		MACDFastPeriod:     12,
		MACDSlowPeriod:     26,
		MACDSignalPeriod:   9,
		OrderFlowWindow:    20,
		LargeOrderMult:     2.0,
	}
	regimeCfg := config.RegimeConfig{
		TrendingADX: 25, RangingADX: 20,
		TrendingRatio: 15, RangingRatio: 10,
		VolatilePctl: 80, RangeLookback: 20, PercentileWindow: 30,
	}
	scorerCfg := config.ScorerConfig{
		TrendQualityWeight: 0.25, VolumeHealthWeight: 0.15,
		VolatilityHealthWeight: 0.15, MomentumWeight: 0.15,
		StructureQualityWeight: 0.15, LiquidityQualityWeight: 0.15,
		MinQuoteVolume: 1000, MaxRangeCandles: 40,
	}

	p := provider.NewMemoryProvider()
	bus := events.NewEventBus()
	ag := aggregator.New(p, analysisCfg, regimeCfg, zerolog.Nop())
	scorer := scanner.NewCoinScorer(scorerCfg, "1h")
	sc := scanner.New(ag, p, scorer, bus, config.ScannerConfig{WorkerCount: 2},
		30*time.Second, "1h", zerolog.Nop())

	server := NewServer(config.ServerConfig{ProductionMode: true}, authCfg, Deps{
		Provider:    p,
		Aggregator:  ag,
		Scanner:     sc,
		EventBus:    bus,
		ReportCache: scanner.NewReportCache(time.Minute),
	}, zerolog.Nop())

	return server, p
}

func ingestPayload(n int) []byte {
	candles := make([]market.Candle, n)
	for i := range candles {
		open := 100 + float64(i)
		candles[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     open,
			High:     open + 1.2,
			Low:      open - 0.2,
			Close:    open + 1,
			Volume:   1000,
		}
	}
	data, _ := json.Marshal(candles)
	return data
}

// TestHealthEndpoint tests the health probe
func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, config.AuthConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

// TestIngestSeries tests the candle ingest round trip
func TestIngestSeries(t *testing.T) {
	server, p := newTestServer(t, config.AuthConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/series/BTCUSDT/1h",
		bytes.NewReader(ingestPayload(60)))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	symbols := p.Symbols()
	if len(symbols) != 1 || symbols[0] != "BTCUSDT" {
		t.Errorf("Expected BTCUSDT stored, got %v", symbols)
	}
}

// TestIngestUnknownTimeframe tests rejection of a bad timeframe
func TestIngestUnknownTimeframe(t *testing.T) {
	server, _ := newTestServer(t, config.AuthConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/series/BTCUSDT/7m",
		bytes.NewReader(ingestPayload(10)))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown timeframe, got %d", w.Code)
	}
}

// TestIngestOutOfOrder tests rejection of a non-monotonic series
func TestIngestOutOfOrder(t *testing.T) {
	server, _ := newTestServer(t, config.AuthConfig{})

	candles := []market.Candle{
		{OpenTime: 2000, Open: 100, High: 101, Low: 99, Close: 100},
		{OpenTime: 1000, Open: 100, High: 101, Low: 99, Close: 100},
	}
	data, _ := json.Marshal(candles)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/series/BTCUSDT/1h",
		bytes.NewReader(data))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out-of-order series, got %d", w.Code)
	}
}

// TestAnalysisEndpoint tests the full report endpoint
func TestAnalysisEndpoint(t *testing.T) {
	server, p := newTestServer(t, config.AuthConfig{})
	seedSeries(t, p, "BTCUSDT")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analysis/BTCUSDT", nil)
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var report aggregator.MarketReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	if report.Symbol != "BTCUSDT" {
		t.Errorf("Expected symbol BTCUSDT, got %s", report.Symbol)
	}
	if report.Status != aggregator.StatusOK {
		t.Errorf("Expected status ok, got %s", report.Status)
	}
}

// TestScanEndpoints tests running a scan and reading it back
func TestScanEndpoints(t *testing.T) {
	server, p := newTestServer(t, config.AuthConfig{})
	seedSeries(t, p, "BTCUSDT")

	// No scan has run yet
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scan/latest", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before the first scan, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan",
		bytes.NewReader([]byte(`{"symbols": ["BTCUSDT"]}`)))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from scan, got %d: %s", w.Code, w.Body.String())
	}

	var result scanner.ScanResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse scan result: %v", err)
	}
	if result.SymbolsScanned != 1 {
		t.Errorf("Expected 1 symbol scanned, got %d", result.SymbolsScanned)
	}

	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scan/latest", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 after a scan, got %d", w.Code)
	}
}

// TestScanNoSymbols tests scanning with nothing ingested
func TestScanNoSymbols(t *testing.T) {
	server, _ := newTestServer(t, config.AuthConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", bytes.NewReader(nil))
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 with no symbols, got %d", w.Code)
	}
}

// TestScanHistoryDisabled tests the endpoint without a database
func TestScanHistoryDisabled(t *testing.T) {
	server, _ := newTestServer(t, config.AuthConfig{})

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scan/history", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("Expected 501 without a database, got %d", w.Code)
	}
}

// TestAuthMiddleware tests bearer-token protection of the API group
func TestAuthMiddleware(t *testing.T) {
	authCfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret"}
	server, _ := newTestServer(t, authCfg)

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", w.Code)
	}

	token, err := IssueToken("test-secret", "tester", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with a valid token, got %d: %s", w.Code, w.Body.String())
	}

	// A token signed with a different secret must be rejected
	badToken, err := IssueToken("other-secret", "tester", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil)
	req.Header.Set("Authorization", "Bearer "+badToken)
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for a forged token, got %d", w.Code)
	}

	// Health stays open even with auth enabled
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected open health endpoint, got %d", w.Code)
	}
}

func seedSeries(t *testing.T, p *provider.MemoryProvider, symbol string) {
	t.Helper()

	var candles []market.Candle
	if err := json.Unmarshal(ingestPayload(60), &candles); err != nil {
		t.Fatalf("Failed to build candles: %v", err)
	}
	series := market.Series{Symbol: symbol, Timeframe: market.TF1h, Candles: candles}
	if err := p.Put(series); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
}
