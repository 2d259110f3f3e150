// Package quant contains the pure numeric engines behind the analysis
// tasks: technical indicators, Black-Scholes Greeks, rolling alpha/beta
// and options-chain statistics.
package quant

import (
	"TradePulse/internal/domain/models"
	"TradePulse/pkg/util"
)

// Pivots computes classic floor-trader pivot points from the most recent
// session's candles. barsPerDay bounds the lookback window.
//
//	PP = (H + L + C) / 3
//	R1 = 2*PP - L, S1 = 2*PP - H
//	R2 = PP + (H - L), S2 = PP - (H - L)
//	R3 = H + 2*(PP - L), S3 = L - 2*(H - PP)
func Pivots(highs, lows, closes []float64, barsPerDay int) models.PivotPoints {
	if len(closes) == 0 || len(highs) == 0 || len(lows) == 0 {
		return models.PivotPoints{}
	}
	if barsPerDay <= 0 {
		barsPerDay = 78
	}

	h := maxTail(highs, barsPerDay)
	l := minTail(lows, barsPerDay)
	c := closes[len(closes)-1]

	pp := (h + l + c) / 3
	return models.PivotPoints{
		PP: util.Round2(pp),
		R1: util.Round2(2*pp - l),
		R2: util.Round2(pp + (h - l)),
		R3: util.Round2(h + 2*(pp-l)),
		S1: util.Round2(2*pp - h),
		S2: util.Round2(pp - (h - l)),
		S3: util.Round2(l - 2*(h-pp)),
	}
}

// RSI computes the Wilder-smoothed relative strength index. Returns the
// neutral 50 when there are fewer than period+1 closes, and 100 when the
// series has no losses.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) < period+1 {
		return 50.0
	}

	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains = append(gains, d)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -d)
		}
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA computes the exponential moving average's latest value, seeded with
// the SMA of the first period points. Falls back to the plain mean when
// the series is shorter than period.
func EMA(data []float64, period int) float64 {
	if len(data) == 0 {
		return 0
	}
	if len(data) < period {
		return mean(data)
	}

	k := 2.0 / float64(period+1)
	ema := mean(data[:period])
	for _, price := range data[period:] {
		ema = (price-ema)*k + ema
	}
	return ema
}

// Trend classifies price action from EMA crossover and the latest close.
func Trend(closes []float64, ema9, ema21 float64) string {
	if len(closes) < 2 {
		return "sideways"
	}
	current := closes[len(closes)-1]
	switch {
	case ema9 > ema21 && current > ema9:
		return "upward"
	case ema9 < ema21 && current < ema9:
		return "downward"
	default:
		return "sideways"
	}
}

// RSISignal maps an RSI reading to a trading signal.
func RSISignal(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	case rsi >= 60:
		return "bullish"
	case rsi <= 40:
		return "bearish"
	default:
		return "neutral"
	}
}

// VolumeStats compares the latest bar's volume against the series
// average, flagging ±20% deviations.
func VolumeStats(volumes []float64) models.VolumeStats {
	if len(volumes) == 0 {
		return models.VolumeStats{}
	}
	avg := mean(volumes)
	current := volumes[len(volumes)-1]

	ratio := 0.0
	if avg > 0 {
		ratio = current / avg
	}
	trend := "normal"
	switch {
	case current > avg*1.2:
		trend = "increasing"
	case current < avg*0.8:
		trend = "decreasing"
	}
	return models.VolumeStats{
		Current: current,
		Average: util.Round2(avg),
		Ratio:   util.Round2(ratio),
		Trend:   trend,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func maxTail(xs []float64, n int) float64 {
	start := len(xs) - n
	if start < 0 {
		start = 0
	}
	max := xs[start]
	for _, x := range xs[start+1:] {
		if x > max {
			max = x
		}
	}
	return max
}

func minTail(xs []float64, n int) float64 {
	start := len(xs) - n
	if start < 0 {
		start = 0
	}
	min := xs[start]
	for _, x := range xs[start+1:] {
		if x < min {
			min = x
		}
	}
	return min
}
