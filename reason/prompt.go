package reason

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/signal"
)

// maxPromptLen keeps the prompt inside a safe context budget regardless of
// how many signals a cycle produced.
const maxPromptLen = 4000

const promptHeader = `You are the execution desk of a paper-trading account.
Given the portfolio and signals below, reply with ONLY a JSON array of
orders. Each order is an object with keys: "asset", "action" (BUY, SELL
or HOLD), "size_pct" (fraction of cash to spend on a BUY, e.g. 0.05; a
SELL always closes the whole position) and "reason". Reply with [] if
nothing should be done.`

// PromptState is everything the reasoner is shown about the current cycle.
type PromptState struct {
	Cash      float64
	Positions []signal.Holding
	Prices    market.Prices
	Tech      []signal.TechSignal
	News      []signal.NewsSignal
}

// BuildPrompt renders the cycle state into the order-request prompt.
// Symbols are listed in sorted order so identical states render identically,
// and the result is hard-capped at 4000 characters.
func BuildPrompt(st PromptState) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Cash: %.2f\n", st.Cash)

	if len(st.Positions) > 0 {
		holdings := make([]signal.Holding, len(st.Positions))
		copy(holdings, st.Positions)
		sortHoldings(holdings)

		b.WriteString("Positions:\n")
		for _, h := range holdings {
			px, _ := st.Prices.Get(h.Symbol)
			fmt.Fprintf(&b, "  %s entry %.2f now %.2f opened %s\n",
				h.Symbol, h.EntryPrice, px, h.OpenTime.Format("2006-01-02 15:04"))
		}
	}

	b.WriteString("Prices:\n")
	for _, sym := range st.Prices.Symbols() {
		px, _ := st.Prices.Get(sym)
		fmt.Fprintf(&b, "  %s %.2f\n", sym, px)
	}

	if len(st.Tech) > 0 {
		b.WriteString("Technical signals:\n")
		for _, ts := range st.Tech {
			fmt.Fprintf(&b, "  %s score %+.2f conf %.2f: %s\n",
				ts.Asset, ts.Score, ts.Confidence, ts.Reason)
		}
	}

	if len(st.News) > 0 {
		b.WriteString("News sentiment:\n")
		for _, ns := range st.News {
			fmt.Fprintf(&b, "  %s %s conf %.2f: %s\n",
				ns.Asset, ns.Sentiment, ns.Confidence, ns.Reason)
		}
	}

	out := b.String()
	if len(out) > maxPromptLen {
		out = out[:maxPromptLen]
	}
	return out
}

// sortHoldings orders holdings by symbol in place, for deterministic prompts.
func sortHoldings(hs []signal.Holding) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Symbol < hs[j].Symbol })
}
