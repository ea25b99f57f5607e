package signal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/risk"
)

// Fuser combines technical and news signals into order decisions with a
// fixed, deterministic rule. It is the fallback brain when no external
// reasoner is available, and the baseline the reasoner is judged against.
type Fuser struct {
	TechWeight float64 // weight of the technical score
	NewsWeight float64 // weight of the news score
	Threshold  float64 // |combined| must clear this to act
	OrderSize  float64 // buy size as a fraction of cash
	Exit       risk.ExitPolicy
}

// NewFuser returns a fuser with the standard weights: 60/40 tech/news,
// act beyond 0.55, buy 5% of cash.
func NewFuser(exit risk.ExitPolicy) Fuser {
	return Fuser{
		TechWeight: 0.6,
		NewsWeight: 0.4,
		Threshold:  0.55,
		OrderSize:  0.05,
		Exit:       exit,
	}
}

// Fuse produces decisions for one cycle. Exit sells for open holdings come
// first, in holding order, so they are executed before any new entries.
// Entries then follow the tech signals in order: the news score for an
// asset is the mean of sign times confidence over its news items, and the
// combined score is the weighted sum. When an asset has no news at all the
// full weight shifts to the technical score.
func (f Fuser) Fuse(now time.Time, prices market.Prices, tech []TechSignal, news []NewsSignal, holdings []Holding) []Decision {
	var decisions []Decision
	exited := make(map[string]bool)

	for _, h := range holdings {
		px, ok := prices.Get(h.Symbol)
		if !ok {
			continue
		}
		hit, why := f.Exit.ShouldExit(risk.ExitCheck{
			EntryPrice: h.EntryPrice,
			OpenTime:   h.OpenTime,
			LastTrade:  h.LastTrade,
			Price:      px,
			Now:        now,
		})
		if hit {
			decisions = append(decisions, Decision{
				Symbol: h.Symbol,
				Action: ActionSell,
				Size:   1.0,
				Reason: why,
			})
			exited[h.Symbol] = true
		}
	}

	newsScores := newsScoreByAsset(news)

	for _, ts := range tech {
		if exited[ts.Asset] {
			continue
		}
		if _, ok := prices.Get(ts.Asset); !ok {
			continue
		}

		combined := f.TechWeight * ts.Score
		if ns, ok := newsScores[ts.Asset]; ok {
			combined += f.NewsWeight * ns
		} else {
			// No news coverage: the tech score carries the full weight.
			combined = ts.Score
		}

		switch {
		case combined >= f.Threshold:
			decisions = append(decisions, Decision{
				Symbol: ts.Asset,
				Action: ActionBuy,
				Size:   f.OrderSize,
				Reason: fmt.Sprintf("fused score %.2f: %s", combined, ts.Reason),
			})
		case combined <= -f.Threshold:
			decisions = append(decisions, Decision{
				Symbol: ts.Asset,
				Action: ActionSell,
				Size:   1.0,
				Reason: fmt.Sprintf("fused score %.2f: %s", combined, ts.Reason),
			})
		default:
			decisions = append(decisions, Decision{
				Symbol: ts.Asset,
				Action: ActionHold,
				Reason: fmt.Sprintf("fused score %.2f inside threshold: %s", combined, ts.Reason),
			})
		}
	}

	return decisions
}

// newsScoreByAsset averages sign*confidence per asset. Assets with no news
// are absent from the map, which is distinct from a zero score.
func newsScoreByAsset(news []NewsSignal) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, ns := range news {
		sums[ns.Asset] += ns.Sentiment.Sign() * ns.Confidence
		counts[ns.Asset]++
	}
	scores := make(map[string]float64, len(sums))
	for asset, sum := range sums {
		scores[asset] = sum / float64(counts[asset])
	}
	return scores
}
