// journal/journal.go
package journal

import "time"

// Side is the direction of an executed order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRecord is an immutable fact about one executed order. It is written
// once and never mutated; the in-memory ledger remains the source of truth
// for the session (persistence is observability).
type TradeRecord struct {
	ID         string
	Time       time.Time
	Symbol     string
	Side       Side
	Quantity   float64
	Price      float64
	Fee        float64 // fee+slippage paid on this fill, account currency
	RealizedPL float64 // realized P&L attributable to this trade; 0 for buys
}

// EquitySnapshot captures the portfolio mark at the end of a decision cycle.
type EquitySnapshot struct {
	Time       time.Time
	Cash       float64
	Equity     float64
	Unrealized float64
	Realized   float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard drops every record. Used when persistence is disabled.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error     { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error                      { return nil }
