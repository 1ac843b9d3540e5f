package analysis

import (
	"market-analyzer/internal/market"
)

// Direction represents the direction of a structural event
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
)

// StructureShift represents a confirmed break of market structure (MSS)
type StructureShift struct {
	Direction  Direction  `json:"direction"`
	BreakLevel float64    `json:"break_level"`
	BreakIndex int        `json:"break_index"`
	Swing      SwingPoint `json:"confirming_swing"`
}

// StructureShiftDetector detects breaks of structure against confirmed
// swing levels. Confirmation uses the close, not the wick, so
// liquidity-sweep wicks that do not represent a genuine break are
// rejected.
type StructureShiftDetector struct {
	swingWindow int
}

// NewStructureShiftDetector creates a detector whose swing confirmation
// lag matches the swing detector window used to produce the inputs.
func NewStructureShiftDetector(swingWindow int) *StructureShiftDetector {
	if swingWindow <= 0 {
		swingWindow = 2
	}
	return &StructureShiftDetector{swingWindow: swingWindow}
}

// DetectShifts replays the series in order, tracking the most recent
// confirmed swing high and low. A swing at index i confirms once the
// candle at i+window has formed. The first close above the tracked
// swing high fires a BULLISH shift; symmetric for BEARISH against the
// tracked swing low. A fired level disarms until a fresh swing of that
// kind confirms, so consecutive closes beyond the same level never
// double-count.
func (sd *StructureShiftDetector) DetectShifts(candles []market.Candle, swings []SwingPoint) []StructureShift {
	var shifts []StructureShift
	if len(candles) == 0 || len(swings) == 0 {
		return shifts
	}

	var (
		lastHigh, lastLow   *SwingPoint
		highArmed, lowArmed bool
	)
	next := 0

	for i := range candles {
		// Confirm swings whose window has fully formed by candle i
		for next < len(swings) && swings[next].Index+sd.swingWindow <= i {
			s := swings[next]
			switch s.Kind {
			case SwingHigh:
				lastHigh = &swings[next]
				highArmed = true
			case SwingLow:
				lastLow = &swings[next]
				lowArmed = true
			}
			next++
		}

		if highArmed && lastHigh != nil && candles[i].Close > lastHigh.Price {
			shifts = append(shifts, StructureShift{
				Direction:  Bullish,
				BreakLevel: lastHigh.Price,
				BreakIndex: i,
				Swing:      *lastHigh,
			})
			highArmed = false
		}

		if lowArmed && lastLow != nil && candles[i].Close < lastLow.Price {
			shifts = append(shifts, StructureShift{
				Direction:  Bearish,
				BreakLevel: lastLow.Price,
				BreakIndex: i,
				Swing:      *lastLow,
			})
			lowArmed = false
		}
	}

	return shifts
}

// LastShift returns the most recent structure shift, or nil when none
// have been detected.
func LastShift(shifts []StructureShift) *StructureShift {
	if len(shifts) == 0 {
		return nil
	}
	return &shifts[len(shifts)-1]
}
