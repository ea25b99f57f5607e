// Package signal defines the analysis outputs that feed trading decisions
// and the deterministic fusion rule that combines them.
package signal

import "time"

// Sentiment is the direction a news item leans.
type Sentiment string

const (
	Bullish Sentiment = "bullish"
	Bearish Sentiment = "bearish"
	Neutral Sentiment = "neutral"
)

// Sign maps the sentiment onto a score axis: +1, -1, or 0.
func (s Sentiment) Sign() float64 {
	switch s {
	case Bullish:
		return 1
	case Bearish:
		return -1
	}
	return 0
}

// TechSignal is one indicator-based read on an asset. Score is in [-1, 1],
// confidence in [0, 1].
type TechSignal struct {
	Asset      string
	Score      float64
	Confidence float64
	Reason     string
}

// NewsSignal is one sentiment read on an asset.
type NewsSignal struct {
	Asset      string
	Sentiment  Sentiment
	Confidence float64
	Reason     string
}

// Action is what a decision tells the ledger to do.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Decision is one order proposal. Size is a fraction of cash for buys and
// a fraction of the position for sells.
type Decision struct {
	Symbol string
	Action Action
	Size   float64
	Reason string
}

// Holding is the slice of portfolio state fusion needs to evaluate exits.
// It deliberately carries no quantity: exit rules act on prices and clocks.
type Holding struct {
	Symbol     string
	EntryPrice float64
	OpenTime   time.Time
	LastTrade  time.Time
}
