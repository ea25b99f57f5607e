// Package monitoring exposes Prometheus metrics for the trading loop.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_trades_total",
		Help: "Executed trades by symbol and side",
	}, []string{"symbol", "side"})

	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "papertrade_cycles_total",
		Help: "Completed decision cycles by tag",
	}, []string{"tag"})

	reasonerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "papertrade_reasoner_failures_total",
		Help: "Reasoning attempts that errored or failed to parse",
	})

	equityGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_equity",
		Help: "Cash plus mark-to-market value of open positions",
	})

	cashGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_cash",
		Help: "Available cash",
	})

	realizedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_realized_pnl",
		Help: "Accumulated realized P&L",
	})

	drawdownGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_drawdown",
		Help: "Unrealized loss as a fraction of equity",
	})

	journalDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_journal_dropped_total",
		Help: "Journal records dropped because the write buffer was full",
	})

	journalErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "papertrade_journal_errors_total",
		Help: "Journal records the backing store failed to write",
	})
)

// RecordTrade counts one executed trade.
func RecordTrade(symbol, side string) {
	tradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordCycle publishes the outcome of one decision cycle.
func RecordCycle(tag string, equity, drawdown float64) {
	cyclesTotal.WithLabelValues(tag).Inc()
	equityGauge.Set(equity)
	drawdownGauge.Set(drawdown)
}

// RecordAccount publishes cash and realized P&L.
func RecordAccount(cash, realized float64) {
	cashGauge.Set(cash)
	realizedGauge.Set(realized)
}

// RecordReasonerFailure counts one failed reasoning attempt.
func RecordReasonerFailure() {
	reasonerFailures.Inc()
}

// RecordJournalHealth publishes the async journal's loss counters.
func RecordJournalHealth(dropped, errors uint64) {
	journalDropped.Set(float64(dropped))
	journalErrors.Set(float64(errors))
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
