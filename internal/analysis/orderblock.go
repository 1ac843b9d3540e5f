package analysis

import (
	"market-analyzer/internal/market"
)

// OrderBlock represents the last opposing candle before an impulsive
// structure-shift move, treated as a zone of institutional interest.
type OrderBlock struct {
	Direction   Direction `json:"direction"`
	Low         float64   `json:"low"`
	High        float64   `json:"high"`
	OriginIndex int       `json:"origin_index"`
	Mitigated   bool      `json:"mitigated"`
}

// OrderBlockDetector derives order blocks from structure shifts
type OrderBlockDetector struct {
	lookback int // how far behind a break index to search
}

// NewOrderBlockDetector creates a detector with the given backward
// search limit. An unbounded search would pin blocks to stale candles
// on one-sided series.
func NewOrderBlockDetector(lookback int) *OrderBlockDetector {
	if lookback <= 0 {
		lookback = 10
	}
	return &OrderBlockDetector{lookback: lookback}
}

// DetectBlocks finds, for each structure shift, the nearest prior
// candle of the opposite color before the break (a bearish candle for a
// bullish shift and vice versa). That candle's [low, high] becomes the
// block range. Mitigation is sticky: once a later candle closes back
// inside or through the range the block stays mitigated.
func (od *OrderBlockDetector) DetectBlocks(candles []market.Candle, shifts []StructureShift) []OrderBlock {
	var blocks []OrderBlock

	for _, shift := range shifts {
		idx := od.findOrigin(candles, shift)
		if idx < 0 {
			continue
		}

		block := OrderBlock{
			Direction:   shift.Direction,
			Low:         candles[idx].Low,
			High:        candles[idx].High,
			OriginIndex: idx,
		}

		for i := shift.BreakIndex + 1; i < len(candles); i++ {
			if blockMitigated(block, candles[i].Close) {
				block.Mitigated = true
				break
			}
		}

		blocks = append(blocks, block)
	}

	return blocks
}

func (od *OrderBlockDetector) findOrigin(candles []market.Candle, shift StructureShift) int {
	start := shift.BreakIndex - 1
	stop := shift.BreakIndex - od.lookback
	if stop < 0 {
		stop = 0
	}

	for i := start; i >= stop; i-- {
		if shift.Direction == Bullish && candles[i].IsBearish() {
			return i
		}
		if shift.Direction == Bearish && candles[i].IsBullish() {
			return i
		}
	}
	return -1
}

// blockMitigated reports whether a close trades back inside or through
// the block range: at or below the high of a bullish block, at or above
// the low of a bearish one.
func blockMitigated(block OrderBlock, close float64) bool {
	if block.Direction == Bullish {
		return close <= block.High
	}
	return close >= block.Low
}

// ActiveBlocks returns blocks that have not been mitigated
func ActiveBlocks(blocks []OrderBlock) []OrderBlock {
	var out []OrderBlock
	for _, b := range blocks {
		if !b.Mitigated {
			out = append(out, b)
		}
	}
	return out
}
