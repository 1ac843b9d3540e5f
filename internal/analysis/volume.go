package analysis

import (
	"market-analyzer/internal/market"
)

// VolumeSummary condenses recent volume behavior for the report
type VolumeSummary struct {
	Current      float64 `json:"current"`
	Average      float64 `json:"average"`
	Delta        float64 `json:"delta"`
	CVD          float64 `json:"cvd"`
	IsHighVolume bool    `json:"is_high_volume"`
	QuoteVolume  float64 `json:"quote_volume"`
}

// VolumeAnalyzer summarizes volume over a trailing average period
type VolumeAnalyzer struct {
	avgPeriod int
}

// NewVolumeAnalyzer creates an analyzer; the average period defaults to 20
func NewVolumeAnalyzer(avgPeriod int) *VolumeAnalyzer {
	if avgPeriod <= 0 {
		avgPeriod = 20
	}
	return &VolumeAnalyzer{avgPeriod: avgPeriod}
}

// Summarize reports the latest volume against its rolling average, the
// cumulative volume delta (volume signed by candle direction) over the
// whole series, and the close-weighted quote volume of the averaging
// window.
func (va *VolumeAnalyzer) Summarize(candles []market.Candle) VolumeSummary {
	var summary VolumeSummary
	if len(candles) == 0 {
		return summary
	}

	last := candles[len(candles)-1]
	summary.Current = last.Volume

	start := len(candles) - va.avgPeriod
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, c := range candles[start:] {
		sum += c.Volume
		summary.QuoteVolume += c.Close * c.Volume
	}
	summary.Average = sum / float64(len(candles)-start)
	summary.Delta = summary.Current - summary.Average
	summary.IsHighVolume = summary.Average > 0 && summary.Current >= summary.Average*2

	for _, c := range candles {
		if c.IsBullish() {
			summary.CVD += c.Volume
		} else if c.IsBearish() {
			summary.CVD -= c.Volume
		}
	}

	return summary
}
