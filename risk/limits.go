package risk

import "time"

// Limits holds the position-sizing and cost parameters enforced by the
// ledger on every order.
type Limits struct {
	// Sizing
	MaxOrderFrac     float64 // max fraction of cash per order, e.g. 0.03
	MinTicket        float64 // minimum notional per order in account currency
	MaxPositionShare float64 // max position value as fraction of equity, e.g. 0.10

	// Execution cost, applied as price multipliers
	FeeRate      float64            // default fee, e.g. 0.001 = 10 bps
	SlippageRate float64            // modeled slippage, same units as FeeRate
	SymbolFees   map[string]float64 // per-symbol fee overrides

	// Churn suppression
	Cooldown time.Duration // no further trades on a symbol inside this window
}

// Fee returns the fee rate for symbol, falling back to the default.
func (l Limits) Fee(symbol string) float64 {
	if f, ok := l.SymbolFees[symbol]; ok {
		return f
	}
	return l.FeeRate
}

// CostRate returns the combined fee+slippage multiplier for symbol.
func (l Limits) CostRate(symbol string) float64 {
	return l.Fee(symbol) + l.SlippageRate
}

// DefaultLimits returns the standard paper-trading limits.
func DefaultLimits() Limits {
	return Limits{
		MaxOrderFrac:     0.03,
		MinTicket:        10,
		MaxPositionShare: 0.10,
		FeeRate:          0.001,
		SlippageRate:     0.0005,
		Cooldown:         15 * time.Minute,
	}
}
