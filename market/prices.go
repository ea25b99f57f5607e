package market

import "sort"

// Prices maps an asset symbol (e.g. "BTC") to its last traded price.
//
// A symbol may be absent after a transient feed failure; callers treat a
// missing price as "skip this symbol this cycle", never as fatal.
type Prices map[string]float64

// Get returns the price for symbol and whether one is known.
// A zero or negative stored price counts as unknown.
func (p Prices) Get(symbol string) (float64, bool) {
	px, ok := p[symbol]
	if !ok || px <= 0 {
		return 0, false
	}
	return px, true
}

// Symbols returns the known symbols in sorted order, for deterministic
// iteration (prompt rendering, logs).
func (p Prices) Symbols() []string {
	syms := make([]string, 0, len(p))
	for s := range p {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}
