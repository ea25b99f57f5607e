// Package feed provides market data: latest prices and OHLCV candles.
package feed

import (
	"context"

	"github.com/rustyeddy/papertrade/market"
)

// Feed is the market-data source for a trading loop. Implementations may
// omit a symbol from LatestPrices on transient failure; callers treat a
// missing price as "skip this symbol this cycle".
type Feed interface {
	LatestPrices(ctx context.Context) (market.Prices, error)
	Candles(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error)
}
