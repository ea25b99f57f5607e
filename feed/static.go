package feed

import (
	"context"

	"github.com/rustyeddy/papertrade/market"
)

// Static serves fixed prices and candles. Useful for dry runs and tests.
type Static struct {
	PriceMap  market.Prices
	CandleMap map[string][]market.Candle
}

func (s *Static) LatestPrices(ctx context.Context) (market.Prices, error) {
	out := make(market.Prices, len(s.PriceMap))
	for sym, px := range s.PriceMap {
		out[sym] = px
	}
	return out, nil
}

func (s *Static) Candles(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error) {
	cs := s.CandleMap[symbol]
	if len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	out := make([]market.Candle, len(cs))
	copy(out, cs)
	return out, nil
}
