package analysis

import (
	"math"
	"sort"

	"market-analyzer/internal/market"
)

// LiquiditySide distinguishes the two pools of resting liquidity
type LiquiditySide string

const (
	// SellSide liquidity rests below current price
	SellSide LiquiditySide = "SSL"
	// BuySide liquidity rests above current price
	BuySide LiquiditySide = "BSL"
)

// ZoneStrength grades a pool by how many swings contribute to it
type ZoneStrength string

const (
	StrengthHigh   ZoneStrength = "HIGH"
	StrengthMedium ZoneStrength = "MED"
)

// LiquidityZone is a cluster of near-equal swing levels
type LiquidityZone struct {
	Level        float64       `json:"level"`
	Side         LiquiditySide `json:"side"`
	Strength     ZoneStrength  `json:"strength"`
	SwingIndices []int         `json:"swing_indices"`
	Swept        bool          `json:"swept"`
	DistanceATR  float64       `json:"distance_atr"`
}

// LiquidityMapper clusters near-equal swing highs/lows into liquidity
// pools. Real markets rarely print exactly-equal levels, so clustering
// uses a relative tolerance instead of exact matching.
type LiquidityMapper struct {
	tolerance float64 // relative price tolerance, e.g. 0.002
}

// NewLiquidityMapper creates a mapper with the given relative tolerance
func NewLiquidityMapper(tolerance float64) *LiquidityMapper {
	if tolerance <= 0 {
		tolerance = 0.002
	}
	return &LiquidityMapper{tolerance: tolerance}
}

// MapZones clusters swing highs and swing lows separately, keeping
// clusters of at least two swings. The zone level is the average of the
// clustered prices; zones above current price are BSL, below are SSL. A
// zone is swept once any candle after its last contributing swing
// trades through the level. atr, when positive, sizes the reported
// distance from current price.
func (lm *LiquidityMapper) MapZones(candles []market.Candle, swings []SwingPoint, currentPrice, atr float64) []LiquidityZone {
	var zones []LiquidityZone

	zones = append(zones, lm.clusterSide(candles, SwingHighs(swings), currentPrice, atr)...)
	zones = append(zones, lm.clusterSide(candles, SwingLows(swings), currentPrice, atr)...)

	sort.Slice(zones, func(i, j int) bool { return zones[i].Level < zones[j].Level })
	return zones
}

func (lm *LiquidityMapper) clusterSide(candles []market.Candle, swings []SwingPoint, currentPrice, atr float64) []LiquidityZone {
	if len(swings) < 2 {
		return nil
	}

	sorted := make([]SwingPoint, len(swings))
	copy(sorted, swings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	var zones []LiquidityZone
	cluster := []SwingPoint{sorted[0]}

	flush := func() {
		if len(cluster) >= 2 {
			zones = append(zones, lm.buildZone(candles, cluster, currentPrice, atr))
		}
	}

	for _, s := range sorted[1:] {
		last := cluster[len(cluster)-1]
		if math.Abs(s.Price-last.Price) < last.Price*lm.tolerance {
			cluster = append(cluster, s)
			continue
		}
		flush()
		cluster = []SwingPoint{s}
	}
	flush()

	return zones
}

func (lm *LiquidityMapper) buildZone(candles []market.Candle, cluster []SwingPoint, currentPrice, atr float64) LiquidityZone {
	sum := 0.0
	lastIndex := 0
	indices := make([]int, 0, len(cluster))
	for _, s := range cluster {
		sum += s.Price
		indices = append(indices, s.Index)
		if s.Index > lastIndex {
			lastIndex = s.Index
		}
	}
	sort.Ints(indices)
	level := sum / float64(len(cluster))

	zone := LiquidityZone{
		Level:        level,
		Side:         SellSide,
		Strength:     StrengthMedium,
		SwingIndices: indices,
	}
	if level > currentPrice {
		zone.Side = BuySide
	}
	if len(cluster) >= 3 {
		zone.Strength = StrengthHigh
	}
	if atr > 0 {
		zone.DistanceATR = math.Abs(currentPrice-level) / atr
	}

	for i := lastIndex + 1; i < len(candles); i++ {
		if candles[i].Low <= level && candles[i].High >= level {
			zone.Swept = true
			break
		}
	}

	return zone
}
