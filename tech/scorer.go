// Package tech turns candle history into per-asset technical signals.
package tech

import (
	"context"
	"fmt"
	"strings"

	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/indicators"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/signal"
)

// Scorer computes a weighted technical score per asset from five
// indicator checks: slow/fast SMA cross, EMA cross, MACD histogram, RSI
// extremes, and Bollinger %B extremes. Each check votes in [-1, 1] with a
// fixed weight; checks that cannot be computed abstain and reduce
// confidence.
type Scorer struct {
	feed      feed.Feed
	symbols   []string
	timeframe string
	lookback  int
}

const (
	smaFast, smaSlow = 36, 80
	emaFast, emaSlow = 16, 42
	rsiPeriod        = 28
	rsiOverbought    = 70.0
	rsiOversold      = 30.0
	bbPeriod         = 20
	bbWidth          = 2.0
	bbUpper, bbLower = 0.8, 0.2
)

// NewScorer builds a scorer over the given symbols. lookback is the number
// of candles fetched per asset; it must cover the slowest indicator.
func NewScorer(f feed.Feed, symbols []string, timeframe string, lookback int) *Scorer {
	if lookback < smaSlow+1 {
		lookback = smaSlow + 1
	}
	return &Scorer{feed: f, symbols: symbols, timeframe: timeframe, lookback: lookback}
}

// ComputeSignals scores every configured symbol. Assets whose candles
// cannot be fetched are skipped, never fatal.
func (s *Scorer) ComputeSignals(ctx context.Context) ([]signal.TechSignal, error) {
	var out []signal.TechSignal
	for _, sym := range s.symbols {
		candles, err := s.feed.Candles(ctx, sym, s.timeframe, s.lookback)
		if err != nil || len(candles) == 0 {
			continue
		}
		if ts, ok := Score(sym, market.Closes(candles)); ok {
			out = append(out, ts)
		}
	}
	return out, nil
}

type vote struct {
	weight float64
	dir    float64 // -1, 0, +1
	label  string
	ok     bool
}

// Score computes the technical signal for one close series. ok is false
// when no indicator could be computed at all.
func Score(asset string, closes []float64) (signal.TechSignal, bool) {
	votes := []vote{
		smaVote(0.25, closes),
		emaVote(0.25, closes),
		macdVote(0.20, closes),
		rsiVote(0.15, closes),
		bandVote(0.15, closes),
	}

	var score, weightUsed, weightTotal float64
	var parts []string
	for _, v := range votes {
		weightTotal += v.weight
		if !v.ok {
			continue
		}
		score += v.weight * v.dir
		weightUsed += v.weight
		if v.label != "" {
			parts = append(parts, v.label)
		}
	}
	if weightUsed == 0 {
		return signal.TechSignal{}, false
	}

	reason := strings.Join(parts, ", ")
	if reason == "" {
		reason = "indicators neutral"
	}
	return signal.TechSignal{
		Asset:      asset,
		Score:      score / weightUsed, // renormalized over computed checks
		Confidence: weightUsed / weightTotal,
		Reason:     reason,
	}, true
}

func smaVote(weight float64, closes []float64) vote {
	fast, okF := indicators.SMA(closes, smaFast)
	slow, okS := indicators.SMA(closes, smaSlow)
	if !okF || !okS {
		return vote{weight: weight}
	}
	switch {
	case fast > slow:
		return vote{weight: weight, dir: 1, label: fmt.Sprintf("sma%d above sma%d", smaFast, smaSlow), ok: true}
	case fast < slow:
		return vote{weight: weight, dir: -1, label: fmt.Sprintf("sma%d below sma%d", smaFast, smaSlow), ok: true}
	}
	return vote{weight: weight, ok: true}
}

func emaVote(weight float64, closes []float64) vote {
	fast, okF := indicators.EMA(closes, emaFast)
	slow, okS := indicators.EMA(closes, emaSlow)
	if !okF || !okS {
		return vote{weight: weight}
	}
	switch {
	case fast > slow:
		return vote{weight: weight, dir: 1, label: fmt.Sprintf("ema%d above ema%d", emaFast, emaSlow), ok: true}
	case fast < slow:
		return vote{weight: weight, dir: -1, label: fmt.Sprintf("ema%d below ema%d", emaFast, emaSlow), ok: true}
	}
	return vote{weight: weight, ok: true}
}

// macdVote votes on the sign of the MACD line, not the histogram: on a
// steady trend the histogram oscillates around zero while the line holds
// the trend's sign.
func macdVote(weight float64, closes []float64) vote {
	line, _, _, ok := indicators.MACD(closes)
	if !ok {
		return vote{weight: weight}
	}
	switch {
	case line > 0:
		return vote{weight: weight, dir: 1, label: "macd above zero", ok: true}
	case line < 0:
		return vote{weight: weight, dir: -1, label: "macd below zero", ok: true}
	}
	return vote{weight: weight, ok: true}
}

func rsiVote(weight float64, closes []float64) vote {
	rsi, ok := indicators.RSI(closes, rsiPeriod)
	if !ok {
		return vote{weight: weight}
	}
	switch {
	case rsi >= rsiOverbought:
		return vote{weight: weight, dir: -1, label: fmt.Sprintf("rsi %.0f overbought", rsi), ok: true}
	case rsi <= rsiOversold:
		return vote{weight: weight, dir: 1, label: fmt.Sprintf("rsi %.0f oversold", rsi), ok: true}
	}
	return vote{weight: weight, ok: true}
}

func bandVote(weight float64, closes []float64) vote {
	pb, ok := indicators.PercentB(closes, bbPeriod, bbWidth)
	if !ok {
		return vote{weight: weight}
	}
	switch {
	case pb > bbUpper:
		return vote{weight: weight, dir: -1, label: "price at upper band", ok: true}
	case pb < bbLower:
		return vote{weight: weight, dir: 1, label: "price at lower band", ok: true}
	}
	return vote{weight: weight, ok: true}
}
