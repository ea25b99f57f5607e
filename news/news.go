// Package news supplies per-asset sentiment signals. Items are cached in
// SQLite so restarts and rate-limited upstreams do not blind the desk, and
// reads are pre-filtered to a recency window and de-duplicated to the
// highest-confidence item per asset.
package news

import (
	"context"
	"time"

	"github.com/rustyeddy/papertrade/signal"
)

// default recency window for sentiment reads.
const DefaultWindow = 6 * time.Hour

// Item is one classified news fact about an asset.
type Item struct {
	Asset      string
	Sentiment  signal.Sentiment
	Confidence float64
	Headline   string
	Time       time.Time
}

// Source provides the sentiment signals for a decision cycle.
type Source interface {
	LatestSentiment(ctx context.Context) ([]signal.NewsSignal, error)
}

// Static serves a fixed signal list. Useful for dry runs and tests.
type Static struct {
	Signals []signal.NewsSignal
}

func (s *Static) LatestSentiment(ctx context.Context) ([]signal.NewsSignal, error) {
	out := make([]signal.NewsSignal, len(s.Signals))
	copy(out, s.Signals)
	return out, nil
}
