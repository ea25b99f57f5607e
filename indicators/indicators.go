// Package indicators implements the technical indicators used to score
// assets: moving averages, MACD, RSI, and Bollinger bands. All functions
// take a close-price series ordered oldest first and report ok=false when
// the series is too short.
package indicators

import "math"

// SMA returns the simple moving average of the last period values.
func SMA(xs []float64, period int) (float64, bool) {
	if period <= 0 || len(xs) < period {
		return 0, false
	}
	var sum float64
	for _, x := range xs[len(xs)-period:] {
		sum += x
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average over the whole series, seeded
// with the SMA of the first period values.
func EMA(xs []float64, period int) (float64, bool) {
	series, ok := emaSeries(xs, period)
	if !ok {
		return 0, false
	}
	return series[len(series)-1], true
}

// emaSeries returns EMA values aligned to xs[period-1:].
func emaSeries(xs []float64, period int) ([]float64, bool) {
	if period <= 0 || len(xs) < period {
		return nil, false
	}
	var seed float64
	for _, x := range xs[:period] {
		seed += x
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	series := make([]float64, 0, len(xs)-period+1)
	series = append(series, seed)
	ema := seed
	for _, x := range xs[period:] {
		ema = (x-ema)*k + ema
		series = append(series, ema)
	}
	return series, true
}

// MACD returns the 12/26 MACD line, its 9-period signal line, and the
// histogram (line minus signal).
func MACD(xs []float64) (line, signal, hist float64, ok bool) {
	const (
		fast       = 12
		slow       = 26
		signalSpan = 9
	)
	fastSeries, okFast := emaSeries(xs, fast)
	slowSeries, okSlow := emaSeries(xs, slow)
	if !okFast || !okSlow {
		return 0, 0, 0, false
	}

	// Align the two series on their tails.
	n := len(slowSeries)
	macd := make([]float64, n)
	for i := 0; i < n; i++ {
		macd[i] = fastSeries[len(fastSeries)-n+i] - slowSeries[i]
	}

	sigSeries, okSig := emaSeries(macd, signalSpan)
	if !okSig {
		return 0, 0, 0, false
	}

	line = macd[n-1]
	signal = sigSeries[len(sigSeries)-1]
	return line, signal, line - signal, true
}

// RSI returns the relative strength index over period using Wilder
// smoothing, in [0, 100].
func RSI(xs []float64, period int) (float64, bool) {
	if period <= 0 || len(xs) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := xs[i] - xs[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// Bollinger returns the period-SMA band with k standard deviations.
func Bollinger(xs []float64, period int, k float64) (upper, middle, lower float64, ok bool) {
	mid, okMid := SMA(xs, period)
	if !okMid {
		return 0, 0, 0, false
	}

	var variance float64
	for _, x := range xs[len(xs)-period:] {
		variance += (x - mid) * (x - mid)
	}
	sd := math.Sqrt(variance / float64(period))

	return mid + k*sd, mid, mid - k*sd, true
}

// PercentB is the position of the last price inside the Bollinger band:
// 0 at the lower band, 1 at the upper. Values outside [0,1] mean the price
// has broken out of the band.
func PercentB(xs []float64, period int, k float64) (float64, bool) {
	upper, _, lower, ok := Bollinger(xs, period, k)
	if !ok || upper == lower {
		return 0, false
	}
	last := xs[len(xs)-1]
	return (last - lower) / (upper - lower), true
}
