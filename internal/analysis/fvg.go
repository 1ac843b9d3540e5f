package analysis

import (
	"market-analyzer/internal/market"
)

// FillState tracks how much of a gap price has traded back through.
// Transitions are monotonic: OPEN -> PARTIALLY_FILLED -> FILLED.
type FillState string

const (
	FillOpen    FillState = "OPEN"
	FillPartial FillState = "PARTIALLY_FILLED"
	FillFull    FillState = "FILLED"
)

// FairValueGap represents a three-candle price imbalance
type FairValueGap struct {
	Direction   Direction `json:"direction"`
	Upper       float64   `json:"upper"`
	Lower       float64   `json:"lower"`
	OriginIndex int       `json:"origin_index"`
	FillState   FillState `json:"fill_state"`
}

// FVGDetector detects Fair Value Gaps and tracks their fill state
type FVGDetector struct {
	minGapPercent float64 // minimum gap size relative to price, in percent
}

// NewFVGDetector creates a detector; gaps smaller than minGapPercent of
// price are ignored. Zero-width gaps are never recorded.
func NewFVGDetector(minGapPercent float64) *FVGDetector {
	if minGapPercent < 0 {
		minGapPercent = 0
	}
	return &FVGDetector{minGapPercent: minGapPercent}
}

// DetectGaps scans every consecutive triple (A, B, C). A bullish gap
// exists when A.high < C.low, a bearish gap when A.low > C.high. Each
// gap is then replayed against all later candles in chronological
// order, so fill-state transitions are monotonic.
func (fd *FVGDetector) DetectGaps(candles []market.Candle) []FairValueGap {
	var gaps []FairValueGap
	if len(candles) < 3 {
		return gaps
	}

	for i := 0; i+2 < len(candles); i++ {
		a := candles[i]
		c := candles[i+2]

		if a.High < c.Low && fd.wideEnough(a.High, c.Low) {
			gap := FairValueGap{
				Direction:   Bullish,
				Upper:       c.Low,
				Lower:       a.High,
				OriginIndex: i,
				FillState:   FillOpen,
			}
			fd.replayFill(&gap, candles[i+3:])
			gaps = append(gaps, gap)
		}

		if a.Low > c.High && fd.wideEnough(c.High, a.Low) {
			gap := FairValueGap{
				Direction:   Bearish,
				Upper:       a.Low,
				Lower:       c.High,
				OriginIndex: i,
				FillState:   FillOpen,
			}
			fd.replayFill(&gap, candles[i+3:])
			gaps = append(gaps, gap)
		}
	}

	return gaps
}

func (fd *FVGDetector) wideEnough(lower, upper float64) bool {
	if upper <= lower {
		return false
	}
	if fd.minGapPercent == 0 {
		return true
	}
	return (upper-lower)/lower*100 >= fd.minGapPercent
}

// replayFill advances the gap's fill state against later candles. A
// candle whose range covers the whole gap fills it; one that only
// overlaps marks it partially filled. Partial fill is sticky: a later
// full cover still upgrades to FILLED, but the state never reverts.
func (fd *FVGDetector) replayFill(gap *FairValueGap, later []market.Candle) {
	for _, d := range later {
		if d.Low <= gap.Lower && d.High >= gap.Upper {
			gap.FillState = FillFull
			return
		}
		if d.Low <= gap.Upper && d.High >= gap.Lower {
			gap.FillState = FillPartial
		}
	}
}

// OpenGaps returns gaps that have not been fully filled
func OpenGaps(gaps []FairValueGap) []FairValueGap {
	var out []FairValueGap
	for _, g := range gaps {
		if g.FillState != FillFull {
			out = append(out, g)
		}
	}
	return out
}
