package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "An automated crypto paper-trading desk",
	Long: `Papertrade runs a simulated trading desk against live market data.

Each decision cycle it:
  - Fetches current prices and candles
  - Scores assets with technical indicators
  - Aggregates cached news sentiment
  - Asks an external reasoning model for orders, falling back to a
    deterministic fusion rule when the model is unavailable or unparseable
  - Applies take-profit/stop-loss/max-hold exits and a drawdown sweep
  - Journals every trade and equity snapshot to SQLite or CSV

No real orders are ever routed; the ledger is entirely virtual.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
