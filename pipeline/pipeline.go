// Package pipeline runs one decision cycle end to end: ask the external
// reasoner for orders, fall back to deterministic signal fusion when the
// reasoner fails, execute against the ledger, then apply forced exits and
// the drawdown de-risking sweep.
//
// Cycles are strictly sequential; the pipeline is not safe for concurrent
// Run calls. A cycle always runs through to Emit even when every order in
// it was rejected.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/papertrade/ledger"
	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/reason"
	"github.com/rustyeddy/papertrade/risk"
	"github.com/rustyeddy/papertrade/signal"
)

// Cycle tags, surfaced in logs and metrics.
const (
	TagExternal = "external decision"
	TagFallback = "fallback rule-based"
)

// Reasoner produces a free-form reply to a decision prompt. The reply is
// parsed defensively; any error or garbage falls back to signal fusion.
type Reasoner interface {
	Decide(ctx context.Context, prompt string) (string, error)
}

// Pipeline orchestrates decision cycles over one ledger.
type Pipeline struct {
	ledger *ledger.Ledger
	fuser  signal.Fuser
	exit   risk.ExitPolicy

	reasoner Reasoner // nil means always fall back

	attempts int
	pause    time.Duration

	sweepTrigger float64
	sweepStop    float64

	sleep func(time.Duration)
	now   func() time.Time
}

// CycleResult is what one cycle emits for observers.
type CycleResult struct {
	Tag      string
	Equity   float64
	Drawdown float64
	Reasons  []string
	Snapshot ledger.Snapshot
}

// New builds a pipeline. reasoner may be nil, in which case every cycle is
// rule-based.
func New(l *ledger.Ledger, fuser signal.Fuser, reasoner Reasoner) *Pipeline {
	return &Pipeline{
		ledger:       l,
		fuser:        fuser,
		exit:         fuser.Exit,
		reasoner:     reasoner,
		attempts:     2,
		pause:        time.Second,
		sweepTrigger: 0.005,
		sweepStop:    0.003,
		sleep:        time.Sleep,
		now:          time.Now,
	}
}

// Run executes one full decision cycle.
func (p *Pipeline) Run(ctx context.Context, prices market.Prices, tech []signal.TechSignal, news []signal.NewsSignal) CycleResult {
	var reasons []string

	orders, tag := p.decide(ctx, prices, tech, news)
	reasons = append(reasons, p.execute(orders, prices)...)
	reasons = append(reasons, p.forcedExits(prices)...)
	reasons = append(reasons, p.derisk(prices)...)

	p.ledger.RecordEquity(prices)

	return CycleResult{
		Tag:      tag,
		Equity:   p.ledger.TotalEquity(prices),
		Drawdown: p.ledger.Drawdown(prices),
		Reasons:  reasons,
		Snapshot: p.ledger.Snapshot(),
	}
}

// decide obtains the cycle's orders: up to two reasoner attempts, then the
// fusion fallback. A valid but empty order list also falls back.
func (p *Pipeline) decide(ctx context.Context, prices market.Prices, tech []signal.TechSignal, news []signal.NewsSignal) ([]reason.Order, string) {
	if p.reasoner != nil {
		prompt := reason.BuildPrompt(reason.PromptState{
			Cash:      p.ledger.Cash(),
			Positions: p.holdings(),
			Prices:    prices,
			Tech:      tech,
			News:      news,
		})
		for attempt := 0; attempt < p.attempts; attempt++ {
			if attempt > 0 {
				p.sleep(p.pause)
			}
			reply, err := p.reasoner.Decide(ctx, prompt)
			if err != nil {
				continue
			}
			orders, err := reason.ParseOrders(reply)
			if err != nil || len(orders) == 0 {
				continue
			}
			return orders, TagExternal
		}
	}

	decisions := p.fuser.Fuse(p.now(), prices, tech, news, p.holdings())
	orders := make([]reason.Order, 0, len(decisions))
	for _, d := range decisions {
		orders = append(orders, reason.Order{
			Symbol: d.Symbol,
			Action: d.Action,
			Size:   d.Size,
			Reason: d.Reason,
		})
	}
	return orders, TagFallback
}

// execute applies the orders to the ledger. Orders for symbols with no
// current price or in cooldown are skipped; the ledger enforces its own
// clamps on top.
func (p *Pipeline) execute(orders []reason.Order, prices market.Prices) []string {
	var reasons []string
	for _, o := range orders {
		px, ok := prices.Get(o.Symbol)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s %s skipped: no price", o.Action, o.Symbol))
			continue
		}
		if p.ledger.InCooldown(o.Symbol) {
			reasons = append(reasons, fmt.Sprintf("%s %s skipped: cooldown", o.Action, o.Symbol))
			continue
		}

		switch o.Action {
		case signal.ActionBuy:
			if o.Size <= 0 {
				reasons = append(reasons, fmt.Sprintf("BUY %s skipped: zero size", o.Symbol))
				continue
			}
			if p.ledger.Buy(o.Symbol, px, o.Size, prices) {
				reasons = append(reasons, fmt.Sprintf("BUY %s: %s", o.Symbol, o.Reason))
			} else {
				reasons = append(reasons, fmt.Sprintf("BUY %s rejected", o.Symbol))
			}
		case signal.ActionSell:
			// A SELL always closes the whole position; any size on the
			// order is ignored.
			if p.ledger.Sell(o.Symbol, px, 1.0) {
				reasons = append(reasons, fmt.Sprintf("SELL %s: %s", o.Symbol, o.Reason))
			} else {
				reasons = append(reasons, fmt.Sprintf("SELL %s rejected", o.Symbol))
			}
		default:
			reasons = append(reasons, fmt.Sprintf("HOLD %s: %s", o.Symbol, o.Reason))
		}
	}
	return reasons
}

// forcedExits closes every open position the exit policy flags at the live
// price.
func (p *Pipeline) forcedExits(prices market.Prices) []string {
	var reasons []string
	for _, h := range p.holdings() {
		px, ok := prices.Get(h.Symbol)
		if !ok {
			continue
		}
		hit, why := p.exit.ShouldExit(risk.ExitCheck{
			EntryPrice: h.EntryPrice,
			OpenTime:   h.OpenTime,
			LastTrade:  h.LastTrade,
			Price:      px,
			Now:        p.now(),
		})
		if !hit {
			continue
		}
		if p.ledger.Sell(h.Symbol, px, 1.0) {
			reasons = append(reasons, fmt.Sprintf("EXIT %s: %s", h.Symbol, why))
		}
	}
	return reasons
}

// derisk is the monotonic drawdown sweep. When drawdown exceeds the trigger
// it sells half of each open position, worst unrealized percentage first,
// re-evaluating after every sale and stopping at or below the stop
// threshold. Positions whose sell is rejected (cooldown) are passed over.
func (p *Pipeline) derisk(prices market.Prices) []string {
	dd := p.ledger.Drawdown(prices)
	if dd <= p.sweepTrigger {
		return nil
	}

	var reasons []string
	for _, h := range p.worstFirst(prices) {
		if dd <= p.sweepStop {
			break
		}
		px, ok := prices.Get(h.Symbol)
		if !ok {
			continue
		}
		if p.ledger.Sell(h.Symbol, px, 0.5) {
			dd = p.ledger.Drawdown(prices)
			reasons = append(reasons, fmt.Sprintf(
				"DERISK %s: sold half, drawdown %.2f%%", h.Symbol, dd*100))
		}
	}
	return reasons
}

// worstFirst orders open positions by unrealized percentage return, worst
// first. Equal returns are broken by open time, oldest first, keeping the
// sweep deterministic.
func (p *Pipeline) worstFirst(prices market.Prices) []ledger.PositionView {
	views := p.ledger.Snapshot().Positions
	ret := func(v ledger.PositionView) float64 {
		px, ok := prices.Get(v.Symbol)
		if !ok {
			return 0
		}
		return (px - v.EntryPrice) / v.EntryPrice
	}
	sort.SliceStable(views, func(i, j int) bool {
		ri, rj := ret(views[i]), ret(views[j])
		if ri != rj {
			return ri < rj
		}
		return views[i].OpenTime.Before(views[j].OpenTime)
	})
	return views
}

func (p *Pipeline) holdings() []signal.Holding {
	views := p.ledger.Snapshot().Positions
	hs := make([]signal.Holding, 0, len(views))
	for _, v := range views {
		hs = append(hs, signal.Holding{
			Symbol:     v.Symbol,
			EntryPrice: v.EntryPrice,
			OpenTime:   v.OpenTime,
			LastTrade:  v.LastTrade,
		})
	}
	return hs
}
