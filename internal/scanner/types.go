package scanner

import (
	"time"

	"market-analyzer/internal/aggregator"
)

// RejectionReason explains why a symbol was excluded from ranking
type RejectionReason string

const (
	RejectDataUnavailable   RejectionReason = "DATA_UNAVAILABLE"
	RejectInsufficientData  RejectionReason = "INSUFFICIENT_DATA"
	RejectInvalidSeries     RejectionReason = "INVALID_SERIES"
	RejectRangeBound        RejectionReason = "RANGE_BOUND"
	RejectLowVolume         RejectionReason = "LOW_VOLUME"
	RejectExtremeVolatility RejectionReason = "EXTREME_VOLATILITY"
)

// CriteriaScores holds the normalized sub-scores, each in [0,1]
type CriteriaScores struct {
	TrendQuality     float64 `json:"trend_quality"`
	VolumeHealth     float64 `json:"volume_health"`
	VolatilityHealth float64 `json:"volatility_health"`
	Momentum         float64 `json:"momentum"`
	StructureQuality float64 `json:"structure_quality"`
	LiquidityQuality float64 `json:"liquidity_quality"`
}

// CoinScore is the scoring outcome for one symbol. Rejected symbols
// keep their reason and are reported, never silently dropped.
type CoinScore struct {
	Symbol          string                   `json:"symbol"`
	Scores          CriteriaScores           `json:"scores"`
	TotalScore      float64                  `json:"total_score"`
	Rejected        bool                     `json:"rejected"`
	RejectionReason RejectionReason          `json:"rejection_reason,omitempty"`
	RejectionDetail string                   `json:"rejection_detail,omitempty"`
	Report          *aggregator.MarketReport `json:"report,omitempty"`
}

// ScanResult aggregates one multi-symbol scan
type ScanResult struct {
	ScanID         string        `json:"scan_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	SymbolsScanned int           `json:"symbols_scanned"`
	Candidates     []CoinScore   `json:"candidates"`
	Rejected       []CoinScore   `json:"rejected"`
}
