package analysis

import (
	"market-analyzer/internal/market"
)

// LargeOrderSide tags a volume spike by the direction of its candle
type LargeOrderSide string

const (
	LargeOrderBuy  LargeOrderSide = "BUY"
	LargeOrderSell LargeOrderSide = "SELL"
)

// LargeOrder marks a candle whose volume exceeded the rolling average
// by the configured multiple.
type LargeOrder struct {
	Side  LargeOrderSide `json:"side"`
	Size  float64        `json:"size"`
	Price float64        `json:"price"`
	Index int            `json:"index"`
}

// DepthApprox splits window volume into directional halves as a stand-in
// for order book depth.
type DepthApprox struct {
	BidVolume float64 `json:"bid_volume"`
	AskVolume float64 `json:"ask_volume"`
}

// OrderFlowEstimate approximates buy/sell pressure from candle shape
// and volume only. There is no real order-book access behind these
// numbers; the Approximation flag is always true and consumers must
// treat the estimate accordingly.
type OrderFlowEstimate struct {
	BidAskImbalance    float64      `json:"bid_ask_imbalance"`
	AggressiveBuyRatio float64      `json:"aggressive_buy_ratio"`
	LargeOrders        []LargeOrder `json:"large_orders"`
	Depth              DepthApprox  `json:"depth"`
	Approximation      bool         `json:"approximation"`
}

// OrderFlowEstimator derives the estimate over a trailing window
type OrderFlowEstimator struct {
	window         int
	largeOrderMult float64
}

// NewOrderFlowEstimator creates an estimator; window defaults to 20
// candles and the large-order threshold to 2x average volume.
func NewOrderFlowEstimator(window int, largeOrderMult float64) *OrderFlowEstimator {
	if window <= 0 {
		window = 20
	}
	if largeOrderMult <= 0 {
		largeOrderMult = 2.0
	}
	return &OrderFlowEstimator{window: window, largeOrderMult: largeOrderMult}
}

// Estimate computes the order-flow approximation over the most recent
// window. With fewer candles than the window the available history is
// used; an empty series yields a neutral estimate.
func (oe *OrderFlowEstimator) Estimate(candles []market.Candle) OrderFlowEstimate {
	est := OrderFlowEstimate{
		BidAskImbalance:    0.5,
		AggressiveBuyRatio: 0.5,
		Approximation:      true,
	}
	if len(candles) == 0 {
		return est
	}

	start := len(candles) - oe.window
	if start < 0 {
		start = 0
	}
	recent := candles[start:]

	bullish := 0
	rangedSum := 0.0
	rangedCount := 0
	volumeSum := 0.0
	for _, c := range recent {
		if c.IsBullish() {
			bullish++
			est.Depth.BidVolume += c.Volume
		} else {
			est.Depth.AskVolume += c.Volume
		}
		volumeSum += c.Volume
		if r := c.Range(); r > 0 {
			rangedSum += (c.Close - c.Low) / r
			rangedCount++
		}
	}

	est.BidAskImbalance = float64(bullish) / float64(len(recent))
	if rangedCount > 0 {
		est.AggressiveBuyRatio = rangedSum / float64(rangedCount)
	}

	avgVolume := volumeSum / float64(len(recent))
	if avgVolume > 0 {
		for i, c := range recent {
			if c.Volume > avgVolume*oe.largeOrderMult {
				side := LargeOrderSell
				if c.IsBullish() {
					side = LargeOrderBuy
				}
				est.LargeOrders = append(est.LargeOrders, LargeOrder{
					Side:  side,
					Size:  c.Volume,
					Price: c.Close,
					Index: start + i,
				})
			}
		}
	}

	return est
}
