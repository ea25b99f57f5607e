package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/ledger"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/risk"
	"github.com/rustyeddy/papertrade/signal"
)

type stubReasoner struct {
	replies []string
	err     error
	calls   int
}

func (s *stubReasoner) Decide(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

// wideExit keeps take-profit, stop-loss and max-hold out of the way so a
// test can exercise one mechanism at a time.
func wideExit() risk.ExitPolicy {
	return risk.ExitPolicy{
		TakeProfit: 0.50,
		StopLoss:   0.50,
		MaxHold:    240 * time.Hour,
		Cooldown:   0,
	}
}

func testLimits() risk.Limits {
	return risk.Limits{
		MaxOrderFrac:     0.5,
		MinTicket:        1,
		MaxPositionShare: 1.0,
		FeeRate:          0,
		SlippageRate:     0,
		Cooldown:         0,
	}
}

func newTestPipeline(r Reasoner, exit risk.ExitPolicy) (*Pipeline, *ledger.Ledger) {
	l := ledger.New(10000, testLimits(), nil)
	p := New(l, signal.NewFuser(exit), r)
	p.pause = 0
	p.sleep = func(time.Duration) {}
	return p, l
}

func TestRunExternalDecision(t *testing.T) {
	r := &stubReasoner{replies: []string{
		`[{"asset":"BTC","action":"BUY","size_pct":0.05,"reason":"breakout"}]`,
	}}
	p, l := newTestPipeline(r, wideExit())
	prices := market.Prices{"BTC": 50000}

	res := p.Run(context.Background(), prices, nil, nil)

	assert.Equal(t, TagExternal, res.Tag)
	assert.Equal(t, 1, r.calls)
	_, ok := l.Position("BTC")
	assert.True(t, ok)
	require.NotEmpty(t, res.Reasons)
	assert.Contains(t, res.Reasons[0], "BUY BTC")
	assert.Contains(t, res.Reasons[0], "breakout")
}

func TestRunExternalSellClosesFullPosition(t *testing.T) {
	// Any size on a SELL order is ignored; the whole position goes.
	r := &stubReasoner{replies: []string{
		`[{"asset":"BTC","action":"SELL","size_pct":0.05,"reason":"cut exposure"}]`,
	}}
	p, l := newTestPipeline(r, wideExit())
	prices := market.Prices{"BTC": 100}

	require.True(t, l.Buy("BTC", 100, 0.2, prices))

	res := p.Run(context.Background(), prices, nil, nil)

	assert.Equal(t, TagExternal, res.Tag)
	_, ok := l.Position("BTC")
	assert.False(t, ok)
	assert.InDelta(t, 10000.0, l.Cash(), 1e-9)
}

func TestRunFallsBackAfterTwoBadReplies(t *testing.T) {
	r := &stubReasoner{replies: []string{"sorry, I panicked", "still no JSON"}}
	p, l := newTestPipeline(r, wideExit())

	var pauses int
	p.sleep = func(time.Duration) { pauses++ }

	tech := []signal.TechSignal{{Asset: "BTC", Score: 0.8, Confidence: 0.9, Reason: "trend"}}
	res := p.Run(context.Background(), market.Prices{"BTC": 50000}, tech, nil)

	assert.Equal(t, TagFallback, res.Tag)
	assert.Equal(t, 2, r.calls)
	assert.Equal(t, 1, pauses, "one pause between the two attempts")

	// Fusion: score 0.8 with no news clears the threshold.
	_, ok := l.Position("BTC")
	assert.True(t, ok)
}

func TestRunEmptyOrderListFallsBack(t *testing.T) {
	r := &stubReasoner{replies: []string{"[]", "[]"}}
	p, _ := newTestPipeline(r, wideExit())

	res := p.Run(context.Background(), market.Prices{"BTC": 50000}, nil, nil)

	assert.Equal(t, TagFallback, res.Tag)
	assert.Equal(t, 2, r.calls)
}

func TestRunReasonerErrorFallsBack(t *testing.T) {
	r := &stubReasoner{err: errors.New("upstream down")}
	p, _ := newTestPipeline(r, wideExit())

	res := p.Run(context.Background(), market.Prices{"BTC": 50000}, nil, nil)
	assert.Equal(t, TagFallback, res.Tag)
}

func TestRunNilReasonerIsRuleBased(t *testing.T) {
	p, _ := newTestPipeline(nil, wideExit())
	res := p.Run(context.Background(), market.Prices{"BTC": 50000}, nil, nil)
	assert.Equal(t, TagFallback, res.Tag)
}

func TestFallbackOrdersEqualFusionOutput(t *testing.T) {
	exit := wideExit()
	p, _ := newTestPipeline(nil, exit)

	prices := market.Prices{"BTC": 50000, "ETH": 3000}
	tech := []signal.TechSignal{
		{Asset: "BTC", Score: 0.8, Confidence: 0.9, Reason: "up"},
		{Asset: "ETH", Score: -0.9, Confidence: 0.9, Reason: "down"},
	}

	want := signal.NewFuser(exit).Fuse(time.Now(), prices, tech, nil, nil)
	orders, tag := p.decide(context.Background(), prices, tech, nil)

	assert.Equal(t, TagFallback, tag)
	require.Len(t, orders, len(want))
	for i := range want {
		assert.Equal(t, want[i].Symbol, orders[i].Symbol)
		assert.Equal(t, want[i].Action, orders[i].Action)
		assert.Equal(t, want[i].Size, orders[i].Size)
	}
}

func TestRunSkipsOrderWithoutPrice(t *testing.T) {
	r := &stubReasoner{replies: []string{
		`[{"asset":"DOGE","action":"BUY","size_pct":0.05,"reason":"vibes"}]`,
	}}
	p, l := newTestPipeline(r, wideExit())

	res := p.Run(context.Background(), market.Prices{"BTC": 50000}, nil, nil)

	assert.Equal(t, 10000.0, l.Cash())
	require.NotEmpty(t, res.Reasons)
	assert.Contains(t, res.Reasons[0], "no price")
}

func TestRunForcedExitClosesPosition(t *testing.T) {
	// HOLD from the reasoner keeps fusion out of the cycle; the exit policy
	// alone must close the winner.
	r := &stubReasoner{replies: []string{
		`[{"asset":"BTC","action":"HOLD","reason":"wait"}]`,
	}}
	exit := risk.DefaultExitPolicy()
	exit.Cooldown = 0
	p, l := newTestPipeline(r, exit)

	require.True(t, l.Buy("BTC", 100, 0.2, market.Prices{"BTC": 100}))

	// +4% is past the take-profit threshold.
	res := p.Run(context.Background(), market.Prices{"BTC": 104}, nil, nil)

	_, ok := l.Position("BTC")
	assert.False(t, ok)
	assert.Contains(t, res.Reasons, "HOLD BTC: wait")

	found := false
	for _, why := range res.Reasons {
		if strings.HasPrefix(why, "EXIT BTC") {
			found = true
			assert.Contains(t, why, "take-profit")
		}
	}
	assert.True(t, found, "expected an EXIT reason, got %v", res.Reasons)
}

func TestDeriskSweepHaltsAtStopThreshold(t *testing.T) {
	p, l := newTestPipeline(nil, wideExit())
	prices := market.Prices{"AAA": 100, "BBB": 100}

	// 20 units of AAA (2000 of 10000 cash), then 16 of BBB (20% of the
	// remaining 8000).
	require.True(t, l.Buy("AAA", 100, 0.2, prices))
	require.True(t, l.Buy("BBB", 100, 0.2, prices))

	// AAA drops 2.8%: drawdown 56/9944 = 0.56%, above the 0.5% trigger.
	// Halving AAA leaves drawdown 28/9944 = 0.28%, below the 0.3% stop.
	marked := market.Prices{"AAA": 97.2, "BBB": 100}
	res := p.Run(context.Background(), marked, nil, nil)

	aaa, ok := l.Position("AAA")
	require.True(t, ok)
	assert.InDelta(t, 10.0, aaa.Quantity, 1e-9)

	bbb, ok := l.Position("BBB")
	require.True(t, ok)
	assert.InDelta(t, 16.0, bbb.Quantity, 1e-9, "sweep must stop before the second position")

	assert.LessOrEqual(t, res.Drawdown, 0.003)
	require.NotEmpty(t, res.Reasons)
	assert.Contains(t, res.Reasons[0], "DERISK AAA")
}

func TestDeriskSweepProceedsToNextPosition(t *testing.T) {
	p, l := newTestPipeline(nil, wideExit())
	prices := market.Prices{"AAA": 100, "BBB": 100}

	require.True(t, l.Buy("AAA", 100, 0.2, prices))
	require.True(t, l.Buy("BBB", 100, 0.2, prices))

	// Both underwater: one halving is not enough, the sweep moves on.
	marked := market.Prices{"AAA": 96, "BBB": 98}
	_ = p.Run(context.Background(), marked, nil, nil)

	aaa, _ := l.Position("AAA")
	bbb, _ := l.Position("BBB")
	assert.InDelta(t, 10.0, aaa.Quantity, 1e-9)
	assert.InDelta(t, 8.0, bbb.Quantity, 1e-9)
}

func TestDeriskSweepTiesBrokenByOpenTime(t *testing.T) {
	p, l := newTestPipeline(nil, wideExit())
	prices := market.Prices{"ZZZ": 100, "AAA": 100}

	// ZZZ opened before AAA; symbol order alone would put AAA first.
	require.True(t, l.Buy("ZZZ", 100, 0.2, prices))
	require.True(t, l.Buy("AAA", 100, 0.2, prices))

	// Both down the same 2.8%: equal returns, the older position goes first.
	marked := market.Prices{"ZZZ": 97.2, "AAA": 97.2}
	res := p.Run(context.Background(), marked, nil, nil)

	require.GreaterOrEqual(t, len(res.Reasons), 2)
	assert.Contains(t, res.Reasons[0], "DERISK ZZZ")
	assert.Contains(t, res.Reasons[1], "DERISK AAA")
}

func TestDeriskSweepIdleBelowTrigger(t *testing.T) {
	p, l := newTestPipeline(nil, wideExit())
	prices := market.Prices{"AAA": 100}

	require.True(t, l.Buy("AAA", 100, 0.2, prices))

	// -0.1% on the position: drawdown well under the trigger.
	res := p.Run(context.Background(), market.Prices{"AAA": 99.9}, nil, nil)

	aaa, _ := l.Position("AAA")
	assert.InDelta(t, 20.0, aaa.Quantity, 1e-9)
	for _, why := range res.Reasons {
		assert.NotContains(t, why, "DERISK")
	}
}
