package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldExitThresholds(t *testing.T) {
	p := DefaultExitPolicy()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	opened := now.Add(-time.Hour)
	last := now.Add(-time.Hour) // well outside cooldown

	cases := []struct {
		name  string
		price float64
		exit  bool
	}{
		{"flat", 100.00, false},
		{"just below take-profit", 101.49, false},
		{"at take-profit", 101.50, true},
		{"above take-profit", 102.00, true},
		{"just above stop-loss", 99.41, false},
		{"at stop-loss", 99.40, true},
		{"below stop-loss", 99.00, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := p.ShouldExit(ExitCheck{
				EntryPrice: 100,
				OpenTime:   opened,
				LastTrade:  last,
				Price:      tc.price,
				Now:        now,
			})
			assert.Equal(t, tc.exit, got)
		})
	}
}

func TestShouldExitBoundaryRounding(t *testing.T) {
	p := DefaultExitPolicy()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Entries whose exactly-at-threshold price is not representable: the
	// computed return lands a hair inside the threshold and must still exit.
	for _, entry := range []float64{3, 100, 4321.9} {
		exit, reason := p.ShouldExit(ExitCheck{
			EntryPrice: entry,
			OpenTime:   now.Add(-time.Hour),
			LastTrade:  now.Add(-time.Hour),
			Price:      entry * (1 - p.StopLoss),
			Now:        now,
		})
		assert.True(t, exit, "entry %v", entry)
		assert.Contains(t, reason, "stop-loss")

		exit, reason = p.ShouldExit(ExitCheck{
			EntryPrice: entry,
			OpenTime:   now.Add(-time.Hour),
			LastTrade:  now.Add(-time.Hour),
			Price:      entry * (1 + p.TakeProfit),
			Now:        now,
		})
		assert.True(t, exit, "entry %v", entry)
		assert.Contains(t, reason, "take-profit")
	}
}

func TestShouldExitMaxHold(t *testing.T) {
	p := DefaultExitPolicy()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	exit, reason := p.ShouldExit(ExitCheck{
		EntryPrice: 100,
		OpenTime:   now.Add(-p.MaxHold),
		LastTrade:  now.Add(-p.MaxHold),
		Price:      100, // no price move at all
		Now:        now,
	})
	assert.True(t, exit)
	assert.Contains(t, reason, "max-hold")

	exit, _ = p.ShouldExit(ExitCheck{
		EntryPrice: 100,
		OpenTime:   now.Add(-p.MaxHold + time.Minute),
		LastTrade:  now.Add(-time.Hour),
		Price:      100,
		Now:        now,
	})
	assert.False(t, exit)
}

func TestShouldExitSuppressedDuringCooldown(t *testing.T) {
	p := DefaultExitPolicy()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Massive gain, but the position traded one minute ago.
	exit, _ := p.ShouldExit(ExitCheck{
		EntryPrice: 100,
		OpenTime:   now.Add(-10 * time.Minute),
		LastTrade:  now.Add(-time.Minute),
		Price:      120,
		Now:        now,
	})
	assert.False(t, exit)
}

func TestLimitsFeeLookup(t *testing.T) {
	l := DefaultLimits()
	l.SymbolFees = map[string]float64{"BTC": 0.002}

	assert.Equal(t, 0.002, l.Fee("BTC"))
	assert.Equal(t, l.FeeRate, l.Fee("ETH"))
	assert.InDelta(t, 0.002+l.SlippageRate, l.CostRate("BTC"), 1e-12)
}
