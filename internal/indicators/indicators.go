package indicators

import (
	"math"

	"market-analyzer/internal/market"
)

// Indicator series are the same length as the input candles. Entries
// with insufficient history are NaN; callers must treat NaN as
// "undefined", never as zero.

// Defined reports whether an indicator value carries information
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// Latest returns the last value of an indicator series, or NaN when
// the series is empty.
func Latest(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// Closes extracts the close prices from a candle slice
func Closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// EMA calculates an exponential moving average over arbitrary values,
// seeded with the simple average of the first period entries.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i] * multiplier) + (ema * (1 - multiplier))
		out[i] = ema
	}

	return out
}

// EMAClose calculates the EMA of candle closes
func EMAClose(candles []market.Candle, period int) []float64 {
	return EMA(Closes(candles), period)
}

// RSI calculates the Relative Strength Index with Wilder smoothing.
// The first period entries are undefined.
func RSI(candles []market.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}

	// Seed with the simple average of the first period changes
	gains := 0.0
	losses := 0.0
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gain := 0.0
		loss := 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDResult holds the MACD line, signal line and histogram series
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates MACD = EMA(fast) - EMA(slow) plus a signal EMA of the
// MACD line. Defaults are 12/26/9.
func MACD(candles []market.Candle, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	n := len(candles)
	result := MACDResult{
		MACD:      nanSeries(n),
		Signal:    nanSeries(n),
		Histogram: nanSeries(n),
	}
	if n < slowPeriod || fastPeriod <= 0 || slowPeriod <= fastPeriod || signalPeriod <= 0 {
		return result
	}

	closes := Closes(candles)
	fast := EMA(closes, fastPeriod)
	slow := EMA(closes, slowPeriod)

	// MACD line is defined from the first index where both EMAs exist
	macdStart := slowPeriod - 1
	for i := macdStart; i < n; i++ {
		result.MACD[i] = fast[i] - slow[i]
	}

	// Signal is an EMA over the defined portion of the MACD line
	if n-macdStart >= signalPeriod {
		signal := EMA(result.MACD[macdStart:], signalPeriod)
		for i, v := range signal {
			result.Signal[macdStart+i] = v
			if Defined(v) {
				result.Histogram[macdStart+i] = result.MACD[macdStart+i] - v
			}
		}
	}

	return result
}

// TrueRanges returns the true range series: max(high-low,
// |high-prev_close|, |low-prev_close|). Index 0 uses high-low only.
func TrueRanges(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			out[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		out[i] = math.Max(c.High-c.Low,
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}
	return out
}

// ATR calculates the Wilder-smoothed Average True Range. The first
// period entries are undefined.
func ATR(candles []market.Candle, period int) []float64 {
	out := nanSeries(len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}

	tr := TrueRanges(candles)

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(candles); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}

	return out
}

// ADX calculates the Average Directional Index from smoothed +DM/-DM
// and true range. Requires at least 2*period candles; with less
// history every entry is undefined rather than a misleading number.
func ADX(candles []market.Candle, period int) []float64 {
	n := len(candles)
	out := nanSeries(n)
	if period <= 0 || n < 2*period {
		return out
	}

	tr := TrueRanges(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	// Wilder-smoothed sums seeded over the first period
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := nanSeries(n)
	dx[period] = dxValue(smPlus, smMinus, smTR)

	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		dx[i] = dxValue(smPlus, smMinus, smTR)
	}

	// ADX is the Wilder average of DX, first defined at 2*period
	sum := 0.0
	for i := period; i < 2*period; i++ {
		sum += dx[i]
	}
	adx := sum / float64(period)
	out[2*period-1] = adx

	for i := 2 * period; i < n; i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
		out[i] = adx
	}

	return out
}

func dxValue(plusDM, minusDM, trSum float64) float64 {
	if trSum == 0 {
		return 0
	}
	plusDI := 100 * (plusDM / trSum)
	minusDI := 100 * (minusDM / trSum)
	if plusDI+minusDI == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
}
