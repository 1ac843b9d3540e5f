package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"market-analyzer/internal/events"
	"market-analyzer/internal/market"
)

var validTimeframes = map[market.Timeframe]bool{
	market.TF1m:  true,
	market.TF5m:  true,
	market.TF15m: true,
	market.TF1h:  true,
	market.TF4h:  true,
	market.TF1d:  true,
}

// handleHealth reports process health and backend availability
func (s *Server) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":     "ok",
		"uptime":     time.Since(s.startedAt).String(),
		"symbols":    len(s.provider.Symbols()),
		"ws_clients": s.hub.ClientCount(),
	}
	if s.redisCache != nil {
		health["redis"] = s.redisCache.IsHealthy()
	}
	if s.scanHistory != nil {
		health["database"] = true
	}
	c.JSON(http.StatusOK, health)
}

// handleIngestSeries accepts a full candle series for a symbol and
// timeframe, replacing whatever was previously stored.
func (s *Server) handleIngestSeries(c *gin.Context) {
	symbol := c.Param("symbol")
	timeframe := market.Timeframe(c.Param("timeframe"))

	if !validTimeframes[timeframe] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timeframe: " + string(timeframe)})
		return
	}

	var candles []market.Candle
	if err := c.ShouldBindJSON(&candles); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid candle payload: " + err.Error()})
		return
	}

	series := market.Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Candles:   candles,
	}
	if err := s.provider.Put(series); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, market.ErrInsufficientData) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.reportCache.Invalidate(symbol)
	s.eventBus.PublishSeriesIngested(symbol, string(timeframe), len(candles))

	c.JSON(http.StatusOK, gin.H{
		"symbol":    symbol,
		"timeframe": timeframe,
		"candles":   len(candles),
	})
}

// handleSymbols lists symbols with stored candle data
func (s *Server) handleSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.provider.Symbols()})
}

// handleAnalysis returns the full multi-timeframe report for a symbol.
// Reports are served from cache when fresh; pass ?refresh=true to force
// recomputation.
func (s *Server) handleAnalysis(c *gin.Context) {
	symbol := c.Param("symbol")
	refresh := c.Query("refresh") == "true"

	if !refresh {
		if report := s.reportCache.Get(symbol); report != nil {
			c.JSON(http.StatusOK, report)
			return
		}
		if s.redisCache != nil {
			if report, err := s.redisCache.GetReport(c.Request.Context(), symbol); err == nil && report != nil {
				c.JSON(http.StatusOK, report)
				return
			}
		}
	}

	report := s.aggregator.Analyze(c.Request.Context(), symbol)
	s.reportCache.Set(symbol, report)
	if s.redisCache != nil {
		if err := s.redisCache.SetReport(c.Request.Context(), report); err != nil {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("redis report cache write failed")
		}
	}
	s.eventBus.Publish(events.Event{
		Type: events.EventAnalysisCompleted,
		Data: map[string]interface{}{
			"symbol": symbol,
			"status": string(report.Status),
		},
	})

	c.JSON(http.StatusOK, report)
}

type scanRequest struct {
	Symbols []string `json:"symbols"`
}

// handleScan runs a scoring scan. An empty symbol list scans every
// symbol with stored data.
func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scan request: " + err.Error()})
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = s.provider.Symbols()
	}
	if len(symbols) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no symbols to scan"})
		return
	}

	result := s.scanner.Scan(c.Request.Context(), symbols)

	if s.redisCache != nil {
		if err := s.redisCache.SetLatestScan(c.Request.Context(), result); err != nil {
			s.logger.Debug().Err(err).Msg("redis scan cache write failed")
		}
	}
	if s.scanHistory != nil {
		if err := s.scanHistory.SaveScan(c.Request.Context(), result); err != nil {
			s.logger.Warn().Err(err).Str("scan_id", result.ScanID).Msg("failed to persist scan")
		}
	}

	c.JSON(http.StatusOK, result)
}

// handleLatestScan returns the most recent scan result
func (s *Server) handleLatestScan(c *gin.Context) {
	if result := s.scanner.LastResult(); result != nil {
		c.JSON(http.StatusOK, result)
		return
	}

	if s.redisCache != nil {
		if result, err := s.redisCache.GetLatestScan(c.Request.Context()); err == nil && result != nil {
			c.JSON(http.StatusOK, result)
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "no scan has completed yet"})
}

// handleScanHistory lists persisted scan summaries, newest first
func (s *Server) handleScanHistory(c *gin.Context) {
	if s.scanHistory == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "scan history storage is not enabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	summaries, err := s.scanHistory.RecentScans(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": summaries})
}
