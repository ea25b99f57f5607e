// Package ledger owns the virtual portfolio: cash, open positions,
// realized P&L, the trade history, and the per-symbol cooldown clocks.
//
// Every order precondition failure (bad price, cooldown, insufficient cash,
// position-share cap) is a silent no-op, modeling real-exchange "order
// rejected" semantics: callers observe no state change and must not assume
// success. There is no error channel for rejections — the caller already
// holds the state it needs to inspect.
//
// Ledger state is restart-volatile by design (paper trading). Only the
// cooldown clocks are rehydrated from the journal at startup; positions are
// not persisted or restored.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/pkg/id"
	"github.com/rustyeddy/papertrade/risk"
)

// Position is one open holding. Entry price is the quantity-weighted
// average of all fills still open.
type Position struct {
	Quantity   float64
	EntryPrice float64
	OpenTime   time.Time
}

// HistoryEntry is one line of the append-only trade log.
type HistoryEntry struct {
	Time time.Time
	Msg  string
}

// fullCloseFrac treats a sell fraction at or above this as a full close,
// tolerating floating-point rounding in callers that pass qty ratios.
const fullCloseFrac = 0.999

type Ledger struct {
	mu sync.Mutex

	cash      float64
	positions map[string]Position
	realized  float64
	history   []HistoryEntry
	lastTrade map[string]time.Time // cooldown clocks

	limits  risk.Limits
	journal journal.Journal // fire-and-forget; never consulted for state

	now func() time.Time
}

// New creates a ledger with the given starting cash. The journal may be nil
// when persistence is not wanted (tests, dry runs).
func New(cash float64, limits risk.Limits, j journal.Journal) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]Position),
		lastTrade: make(map[string]time.Time),
		limits:    limits,
		journal:   j,
		now:       time.Now,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Realized returns the accumulated realized P&L.
func (l *Ledger) Realized() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realized
}

// TotalEquity is cash plus the mark-to-market value of all open positions.
// A symbol with no current price is valued at 0 (conservative).
func (l *Ledger) TotalEquity(prices market.Prices) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalEquityLocked(prices)
}

func (l *Ledger) totalEquityLocked(prices market.Prices) float64 {
	eq := l.cash
	for sym, pos := range l.positions {
		if px, ok := prices.Get(sym); ok {
			eq += pos.Quantity * px
		}
	}
	return eq
}

// UnrealizedPnl is the mark-to-market gain over entry cost across all open
// positions, with the same missing-price-as-zero policy as TotalEquity.
func (l *Ledger) UnrealizedPnl(prices market.Prices) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unrealizedLocked(prices)
}

func (l *Ledger) unrealizedLocked(prices market.Prices) float64 {
	var pnl float64
	for sym, pos := range l.positions {
		px, _ := prices.Get(sym) // missing price marks the position at 0
		pnl += (px - pos.EntryPrice) * pos.Quantity
	}
	return pnl
}

// Drawdown is the unrealized loss as a fraction of current equity,
// floored at zero.
func (l *Ledger) Drawdown(prices market.Prices) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drawdownLocked(prices)
}

func (l *Ledger) drawdownLocked(prices market.Prices) float64 {
	eq := l.totalEquityLocked(prices)
	if eq <= 0 {
		return 0
	}
	dd := -l.unrealizedLocked(prices) / eq
	if dd < 0 {
		return 0
	}
	return dd
}

// InCooldown reports whether symbol traded within the cooldown window.
func (l *Ledger) InCooldown(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inCooldownLocked(symbol, l.now())
}

func (l *Ledger) inCooldownLocked(symbol string, now time.Time) bool {
	last, ok := l.lastTrade[symbol]
	if !ok {
		return false
	}
	return now.Sub(last) < l.limits.Cooldown
}

// Buy opens or adds to a position, spending fraction of current cash
// (clamped to the per-order limit). Rejections are silent no-ops: bad
// price, cooldown, notional above available cash, position-share cap.
// The reported bool is a convenience for reason logs only.
func (l *Ledger) Buy(symbol string, price, fraction float64, prices market.Prices) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if price <= 0 || l.inCooldownLocked(symbol, now) {
		return false
	}

	if fraction > l.limits.MaxOrderFrac {
		fraction = l.limits.MaxOrderFrac
	}
	if fraction <= 0 {
		return false
	}

	notional := l.cash * fraction
	if notional < l.limits.MinTicket {
		notional = l.limits.MinTicket
	}
	if notional > l.cash {
		return false
	}

	cost := l.limits.CostRate(symbol)
	qty := notional / (price * (1 + cost))

	// Position-share cap against mark-to-market equity.
	curVal := l.positions[symbol].Quantity * price
	if curVal+qty*price > l.totalEquityLocked(prices)*l.limits.MaxPositionShare {
		return false
	}

	l.cash -= notional
	fee := qty * price * cost

	if pos, ok := l.positions[symbol]; ok {
		newQty := pos.Quantity + qty
		pos.EntryPrice = (pos.Quantity*pos.EntryPrice + qty*price) / newQty
		pos.Quantity = newQty
		l.positions[symbol] = pos
	} else {
		l.positions[symbol] = Position{
			Quantity:   qty,
			EntryPrice: price,
			OpenTime:   now,
		}
	}

	l.lastTrade[symbol] = now
	l.logLocked(now, fmt.Sprintf("BUY  %s %.6f @ %.2f", symbol, qty, price))
	l.recordLocked(journal.TradeRecord{
		ID:       id.New(),
		Time:     now,
		Symbol:   symbol,
		Side:     journal.SideBuy,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
	})
	return true
}

// Sell closes fraction of the open position at price. A fraction at or
// above 0.999 removes the position entirely; a smaller fraction reduces
// quantity in place, entry price unchanged. No-op when there is no
// position or the symbol is cooling down.
func (l *Ledger) Sell(symbol string, price, fraction float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	pos, ok := l.positions[symbol]
	if !ok || price <= 0 || fraction <= 0 || l.inCooldownLocked(symbol, now) {
		return false
	}
	if fraction > 1 {
		fraction = 1
	}

	qty := pos.Quantity * fraction
	cost := l.limits.CostRate(symbol)
	proceeds := qty * price * (1 - cost)
	fee := qty * price * cost
	delta := proceeds - qty*pos.EntryPrice

	l.cash += proceeds
	l.realized += delta

	if fraction >= fullCloseFrac {
		delete(l.positions, symbol)
	} else {
		pos.Quantity -= qty
		l.positions[symbol] = pos
	}

	l.lastTrade[symbol] = now
	l.logLocked(now, fmt.Sprintf("SELL %s %.6f @ %.2f P&L=%+.2f", symbol, qty, price, delta))
	l.recordLocked(journal.TradeRecord{
		ID:         id.New(),
		Time:       now,
		Symbol:     symbol,
		Side:       journal.SideSell,
		Quantity:   qty,
		Price:      price,
		Fee:        fee,
		RealizedPL: delta,
	})
	return true
}

// RecordEquity writes a cycle-end equity snapshot to the journal.
func (l *Ledger) RecordEquity(prices market.Prices) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.journal == nil {
		return
	}
	_ = l.journal.RecordEquity(journal.EquitySnapshot{
		Time:       l.now(),
		Cash:       l.cash,
		Equity:     l.totalEquityLocked(prices),
		Unrealized: l.unrealizedLocked(prices),
		Realized:   l.realized,
	})
}

// RestoreCooldowns replays persisted trades into the cooldown clocks.
// Positions are intentionally not reconstructed; paper-trading state does
// not survive a restart, but the cooldown suppression should.
func (l *Ledger) RestoreCooldowns(records []journal.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range records {
		if rec.Time.After(l.lastTrade[rec.Symbol]) {
			l.lastTrade[rec.Symbol] = rec.Time
		}
	}
}

func (l *Ledger) logLocked(now time.Time, msg string) {
	l.history = append(l.history, HistoryEntry{Time: now, Msg: msg})
}

// recordLocked hands the record to the journal. The journal is expected to
// be non-blocking (see journal.Async); a write failure never rolls back
// in-memory state.
func (l *Ledger) recordLocked(rec journal.TradeRecord) {
	if l.journal == nil {
		return
	}
	_ = l.journal.RecordTrade(rec)
}
