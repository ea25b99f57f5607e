package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrade/market"
	"github.com/rustyeddy/papertrade/risk"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testFuser() Fuser {
	return NewFuser(risk.DefaultExitPolicy())
}

func TestFuseStrongTechNoNewsBuys(t *testing.T) {
	f := testFuser()
	prices := market.Prices{"BTC": 50000}
	tech := []TechSignal{{Asset: "BTC", Score: 0.8, Confidence: 0.9, Reason: "momentum up"}}

	ds := f.Fuse(t0, prices, tech, nil, nil)

	require.Len(t, ds, 1)
	assert.Equal(t, ActionBuy, ds[0].Action)
	assert.Equal(t, "BTC", ds[0].Symbol)
	assert.Equal(t, 0.05, ds[0].Size)
}

func TestFuseWeakTechNoNewsHolds(t *testing.T) {
	f := testFuser()
	tech := []TechSignal{{Asset: "BTC", Score: 0.4, Confidence: 0.9}}

	ds := f.Fuse(t0, market.Prices{"BTC": 50000}, tech, nil, nil)
	require.Len(t, ds, 1)
	assert.Equal(t, ActionHold, ds[0].Action)
	assert.Contains(t, ds[0].Reason, "inside threshold")
}

func TestFuseActsExactlyAtThreshold(t *testing.T) {
	f := testFuser()
	prices := market.Prices{"BTC": 50000, "ETH": 3000}
	tech := []TechSignal{
		{Asset: "BTC", Score: 0.55, Confidence: 0.9},
		{Asset: "ETH", Score: -0.55, Confidence: 0.9},
	}

	// The threshold is inclusive on both sides.
	ds := f.Fuse(t0, prices, tech, nil, nil)
	require.Len(t, ds, 2)
	assert.Equal(t, ActionBuy, ds[0].Action)
	assert.Equal(t, ActionSell, ds[1].Action)
}

func TestFuseSkipsAssetWithoutPrice(t *testing.T) {
	f := testFuser()
	tech := []TechSignal{{Asset: "DOGE", Score: 0.9, Confidence: 0.9}}

	// No current price for the asset: no decision at all, not even HOLD.
	ds := f.Fuse(t0, market.Prices{"BTC": 50000}, tech, nil, nil)
	assert.Empty(t, ds)
}

func TestFuseNewsDragsScoreBelowThreshold(t *testing.T) {
	f := testFuser()
	tech := []TechSignal{{Asset: "BTC", Score: 0.8, Confidence: 0.9}}
	news := []NewsSignal{
		{Asset: "BTC", Sentiment: Bearish, Confidence: 0.9},
		{Asset: "BTC", Sentiment: Neutral, Confidence: 0.5},
	}

	// combined = 0.6*0.8 + 0.4*mean(-0.9, 0) = 0.48 - 0.18 = 0.30
	ds := f.Fuse(t0, market.Prices{"BTC": 50000}, tech, news, nil)
	require.Len(t, ds, 1)
	assert.Equal(t, ActionHold, ds[0].Action)
}

func TestFuseNewsConfirmsBuy(t *testing.T) {
	f := testFuser()
	tech := []TechSignal{{Asset: "ETH", Score: 0.7, Confidence: 0.8}}
	news := []NewsSignal{{Asset: "ETH", Sentiment: Bullish, Confidence: 0.9}}

	// combined = 0.6*0.7 + 0.4*0.9 = 0.78
	ds := f.Fuse(t0, market.Prices{"ETH": 3000}, tech, news, nil)
	require.Len(t, ds, 1)
	assert.Equal(t, ActionBuy, ds[0].Action)
}

func TestFuseBearishScoreSells(t *testing.T) {
	f := testFuser()
	tech := []TechSignal{{Asset: "BTC", Score: -0.9, Confidence: 0.9, Reason: "momentum down"}}

	ds := f.Fuse(t0, market.Prices{"BTC": 50000}, tech, nil, nil)
	require.Len(t, ds, 1)
	assert.Equal(t, ActionSell, ds[0].Action)
	assert.Equal(t, 1.0, ds[0].Size)
}

func TestFuseExitSellsComeFirst(t *testing.T) {
	f := testFuser()
	prices := market.Prices{"BTC": 52000, "ETH": 3000}
	holdings := []Holding{{
		Symbol:     "BTC",
		EntryPrice: 50000, // +4%, past take-profit
		OpenTime:   t0.Add(-time.Hour),
		LastTrade:  t0.Add(-time.Hour),
	}}
	tech := []TechSignal{
		{Asset: "ETH", Score: 0.9, Confidence: 0.9},
		{Asset: "BTC", Score: 0.9, Confidence: 0.9},
	}

	ds := f.Fuse(t0, prices, tech, nil, holdings)

	require.Len(t, ds, 2)
	assert.Equal(t, ActionSell, ds[0].Action)
	assert.Equal(t, "BTC", ds[0].Symbol)
	assert.Contains(t, ds[0].Reason, "take-profit")

	// The exited symbol is not re-bought in the same cycle.
	assert.Equal(t, ActionBuy, ds[1].Action)
	assert.Equal(t, "ETH", ds[1].Symbol)
}

func TestFuseExitSuppressedInCooldown(t *testing.T) {
	f := testFuser()
	holdings := []Holding{{
		Symbol:     "BTC",
		EntryPrice: 50000,
		OpenTime:   t0.Add(-time.Hour),
		LastTrade:  t0.Add(-time.Minute), // fresh trade, cooling down
	}}

	ds := f.Fuse(t0, market.Prices{"BTC": 60000}, nil, nil, holdings)
	assert.Empty(t, ds)
}

func TestSentimentSign(t *testing.T) {
	assert.Equal(t, 1.0, Bullish.Sign())
	assert.Equal(t, -1.0, Bearish.Sign())
	assert.Equal(t, 0.0, Neutral.Sign())
	assert.Equal(t, 0.0, Sentiment("garbled").Sign())
}
