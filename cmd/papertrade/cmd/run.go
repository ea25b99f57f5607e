package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/feed"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/rustyeddy/papertrade/ledger"
	"github.com/rustyeddy/papertrade/monitoring"
	"github.com/rustyeddy/papertrade/news"
	"github.com/rustyeddy/papertrade/pipeline"
	"github.com/rustyeddy/papertrade/reason"
	"github.com/rustyeddy/papertrade/tech"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop from a config file",
	Long: `Run the paper-trading loop using settings from a configuration file.

The config file specifies the account, risk limits, exit policy, fusion
weights, market-data symbols, and journal backend. The OpenRouter API key
is read from the OPENROUTER_API_KEY environment variable (a .env file in
the working directory is loaded if present); without a key every cycle
uses the rule-based fallback.

Example:
  papertrade run -f desk.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runCycles     int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().IntVarP(&runCycles, "cycles", "n", 0, "stop after N cycles (0 = run until interrupted)")
}

func runRun(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := loadConfig(runConfigPath)
	if err != nil {
		return err
	}

	fmt.Printf("Starting desk: $%.2f over %v, cycle %s\n",
		cfg.Account.StartingCash, cfg.Account.Symbols, cfg.Interval())

	j, restore, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	async := journal.NewAsync(monitoring.WrapJournal(j), cfg.Journal.Buffer)
	defer async.Close()

	l := ledger.New(cfg.Account.StartingCash, cfg.Limits(), async)
	if restore != nil {
		records, err := restore.ListTradesSince(time.Now().Add(-cfg.Limits().Cooldown))
		if err == nil {
			l.RestoreCooldowns(records)
		}
	}

	f := feed.NewBinance(cfg.Feed.BaseURL, cfg.Account.Symbols)
	scorer := tech.NewScorer(f, cfg.Account.Symbols, cfg.Feed.Timeframe, cfg.Feed.CandleCount)

	store, err := news.NewStore(cfg.News.DBPath, cfg.NewsWindow())
	if err != nil {
		return fmt.Errorf("open news store: %w", err)
	}
	defer store.Close()

	var reasoner pipeline.Reasoner
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		reasoner = meteredReasoner{reason.NewClient(cfg.Reason.BaseURL, key, cfg.Reason.Model)}
		fmt.Printf("Reasoner: %s\n", cfg.Reason.Model)
	} else {
		fmt.Println("OPENROUTER_API_KEY not set; running rule-based only")
	}

	if cfg.Cycle.MetricsAddr != "" {
		go serveMetrics(cfg.Cycle.MetricsAddr)
	}

	p := pipeline.New(l, cfg.Fuser(), reasoner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	for n := 0; runCycles == 0 || n < runCycles; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				fmt.Println("\nShutting down")
				return nil
			case <-ticker.C:
			}
		}
		runCycle(ctx, p, f, scorer, store, async)
	}
	return nil
}

func runCycle(ctx context.Context, p *pipeline.Pipeline, f feed.Feed, scorer *tech.Scorer, src news.Source, async *journal.Async) {
	prices, err := f.LatestPrices(ctx)
	if err != nil || len(prices) == 0 {
		fmt.Printf("%s  no prices this cycle: %v\n", time.Now().Format("15:04:05"), err)
		return
	}

	techSignals, _ := scorer.ComputeSignals(ctx)
	newsSignals, err := src.LatestSentiment(ctx)
	if err != nil {
		fmt.Printf("news sentiment unavailable: %v\n", err)
	}

	res := p.Run(ctx, prices, techSignals, newsSignals)

	monitoring.RecordCycle(res.Tag, res.Equity, res.Drawdown)
	monitoring.RecordJournalHealth(async.Dropped(), async.Errors())

	fmt.Printf("%s  [%s] equity=%.2f cash=%.2f drawdown=%.2f%% positions=%d\n",
		time.Now().Format("15:04:05"), res.Tag, res.Equity,
		res.Snapshot.Cash, res.Drawdown*100, len(res.Snapshot.Positions))
	for _, why := range res.Reasons {
		fmt.Printf("    %s\n", why)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		fmt.Println("No config given; using defaults")
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildJournal returns the configured backend plus, for SQLite, the handle
// used to rehydrate cooldown clocks at startup.
func buildJournal(cfg *config.Config) (journal.Journal, *journal.SQLite, error) {
	switch cfg.Journal.Backend {
	case "sqlite":
		sq, err := journal.NewSQLite(cfg.Journal.Path)
		if err != nil {
			return nil, nil, err
		}
		return sq, sq, nil
	case "csv":
		base := strings.TrimSuffix(cfg.Journal.Path, ".csv")
		c, err := journal.NewCSV(base+"_trades.csv", base+"_equity.csv")
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		return journal.Discard{}, nil, nil
	}
}

// meteredReasoner counts transport-level reasoning failures.
type meteredReasoner struct {
	inner pipeline.Reasoner
}

func (m meteredReasoner) Decide(ctx context.Context, prompt string) (string, error) {
	reply, err := m.inner.Decide(ctx, prompt)
	if err != nil {
		monitoring.RecordReasonerFailure()
	}
	return reply, err
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	fmt.Printf("Metrics on http://%s/metrics\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Printf("metrics server: %v\n", err)
	}
}
