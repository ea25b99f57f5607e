package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/papertrade/market"
)

const defaultBinanceURL = "https://api.binance.com"

// Binance fetches spot prices and klines from the public Binance REST API.
// No API key is needed for market data.
type Binance struct {
	baseURL string
	symbols []string
	http    *http.Client
}

// NewBinance builds a feed for the given symbols (exchange notation, e.g.
// BTCUSDT). An empty baseURL selects the public endpoint.
func NewBinance(baseURL string, symbols []string) *Binance {
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	return &Binance{
		baseURL: baseURL,
		symbols: symbols,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// LatestPrices fetches the current price for each configured symbol. A
// symbol that fails to fetch or parse is omitted from the result rather
// than failing the whole call; the error is non-nil only when every
// symbol failed.
func (b *Binance) LatestPrices(ctx context.Context) (market.Prices, error) {
	prices := make(market.Prices, len(b.symbols))
	var lastErr error

	for _, sym := range b.symbols {
		var tp tickerPrice
		err := b.get(ctx, "/api/v3/ticker/price", url.Values{"symbol": {sym}}, &tp)
		if err != nil {
			lastErr = err
			continue
		}
		px, err := strconv.ParseFloat(tp.Price, 64)
		if err != nil || px <= 0 {
			lastErr = fmt.Errorf("ticker %s: bad price %q", sym, tp.Price)
			continue
		}
		prices[sym] = px
	}

	if len(prices) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return prices, nil
}

// Candles fetches up to count klines for symbol at the given interval
// (Binance notation: 1m, 15m, 1h, ...), oldest first.
func (b *Binance) Candles(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error) {
	var rows [][]json.RawMessage
	err := b.get(ctx, "/api/v3/klines", url.Values{
		"symbol":   {symbol},
		"interval": {timeframe},
		"limit":    {strconv.Itoa(count)},
	}, &rows)
	if err != nil {
		return nil, err
	}

	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("klines %s: %w", symbol, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// parseKline decodes one kline row. Binance packs each candle as a
// mixed-type array: [openTime, open, high, low, close, volume, ...] with
// the prices as strings.
func parseKline(row []json.RawMessage) (market.Candle, error) {
	if len(row) < 6 {
		return market.Candle{}, fmt.Errorf("kline row has %d fields", len(row))
	}

	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return market.Candle{}, err
	}

	var c market.Candle
	c.Time = time.UnixMilli(openMs).UTC()

	for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return market.Candle{}, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, err
		}
		*dst = v
	}
	return c, nil
}

func (b *Binance) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		b.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance %s: status %d", path, resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
