package ledger

import (
	"sort"
	"time"
)

// PositionView is a read-only copy of one open position.
type PositionView struct {
	Symbol     string
	Quantity   float64
	EntryPrice float64
	OpenTime   time.Time
	LastTrade  time.Time // cooldown clock for the symbol
}

// Snapshot is an immutable copy of the ledger for dashboard readers. It
// shares no memory with the live ledger, so readers can hold it across
// cycles without coordination.
type Snapshot struct {
	Cash      float64
	Realized  float64
	Positions []PositionView // sorted by symbol
	History   []HistoryEntry
}

// Snapshot copies the current state. Never mutates the ledger.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Cash:     l.cash,
		Realized: l.realized,
	}

	snap.Positions = make([]PositionView, 0, len(l.positions))
	for sym, pos := range l.positions {
		snap.Positions = append(snap.Positions, PositionView{
			Symbol:     sym,
			Quantity:   pos.Quantity,
			EntryPrice: pos.EntryPrice,
			OpenTime:   pos.OpenTime,
			LastTrade:  l.lastTrade[sym],
		})
	}
	sort.Slice(snap.Positions, func(i, j int) bool {
		return snap.Positions[i].Symbol < snap.Positions[j].Symbol
	})

	snap.History = make([]HistoryEntry, len(l.history))
	copy(snap.History, l.history)

	return snap
}

// Position returns a view of one open position, if any.
func (l *Ledger) Position(symbol string) (PositionView, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return PositionView{}, false
	}
	return PositionView{
		Symbol:     symbol,
		Quantity:   pos.Quantity,
		EntryPrice: pos.EntryPrice,
		OpenTime:   pos.OpenTime,
		LastTrade:  l.lastTrade[symbol],
	}, true
}
