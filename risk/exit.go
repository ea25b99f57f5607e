package risk

import (
	"fmt"
	"time"
)

// ExitPolicy decides when an open position must be force-closed.
type ExitPolicy struct {
	TakeProfit float64       // close when return >= this, e.g. 0.015
	StopLoss   float64       // close when return <= -this, e.g. 0.006
	MaxHold    time.Duration // close when held at least this long
	Cooldown   time.Duration // suppress exits right after an entry
}

// DefaultExitPolicy returns the standard exit thresholds.
func DefaultExitPolicy() ExitPolicy {
	return ExitPolicy{
		TakeProfit: 0.015,
		StopLoss:   0.006,
		MaxHold:    240 * time.Minute,
		Cooldown:   15 * time.Minute,
	}
}

// ExitCheck carries everything ShouldExit needs about one position.
type ExitCheck struct {
	EntryPrice float64
	OpenTime   time.Time
	LastTrade  time.Time // the symbol's cooldown clock
	Price      float64
	Now        time.Time
}

// ShouldExit reports whether the position must be liquidated, and why.
// It has no side effects; the caller is responsible for selling.
//
// An exit inside the cooldown window is suppressed to avoid churning a
// position that was just entered or resized.
func (p ExitPolicy) ShouldExit(c ExitCheck) (bool, string) {
	if c.EntryPrice <= 0 || c.Price <= 0 {
		return false, ""
	}
	if c.Now.Sub(c.LastTrade) < p.Cooldown {
		return false, ""
	}

	// The division can land a hair short of an exactly-at-threshold return
	// (entry 100, price 99.40 gives -0.005999999999999943), so thresholds
	// compare with a small tolerance.
	const eps = 1e-12

	delta := (c.Price - c.EntryPrice) / c.EntryPrice
	switch {
	case delta >= p.TakeProfit-eps:
		return true, fmt.Sprintf("take-profit %+.2f%%", delta*100)
	case delta <= -p.StopLoss+eps:
		return true, fmt.Sprintf("stop-loss %+.2f%%", delta*100)
	case c.Now.Sub(c.OpenTime) >= p.MaxHold:
		return true, fmt.Sprintf("max-hold %s elapsed", p.MaxHold)
	}
	return false, ""
}
