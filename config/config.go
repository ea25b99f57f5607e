// Package config loads and validates the desk configuration from YAML or
// JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/papertrade/risk"
	"github.com/rustyeddy/papertrade/signal"
)

// Config is the full desk configuration.
type Config struct {
	Account AccountConfig `yaml:"account" json:"account"`
	Risk    RiskConfig    `yaml:"risk" json:"risk"`
	Exit    ExitConfig    `yaml:"exit" json:"exit"`
	Fusion  FusionConfig  `yaml:"fusion" json:"fusion"`
	Reason  ReasonConfig  `yaml:"reason" json:"reason"`
	Feed    FeedConfig    `yaml:"feed" json:"feed"`
	News    NewsConfig    `yaml:"news" json:"news"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
	Cycle   CycleConfig   `yaml:"cycle" json:"cycle"`
}

type AccountConfig struct {
	StartingCash float64  `yaml:"starting_cash" json:"starting_cash"`
	Symbols      []string `yaml:"symbols" json:"symbols"`
}

type RiskConfig struct {
	MaxOrderFrac     float64            `yaml:"max_order_frac" json:"max_order_frac"`
	MinTicket        float64            `yaml:"min_ticket" json:"min_ticket"`
	MaxPositionShare float64            `yaml:"max_position_share" json:"max_position_share"`
	FeeRate          float64            `yaml:"fee_rate" json:"fee_rate"`
	SlippageRate     float64            `yaml:"slippage_rate" json:"slippage_rate"`
	SymbolFees       map[string]float64 `yaml:"symbol_fees,omitempty" json:"symbol_fees,omitempty"`
	CooldownMinutes  int                `yaml:"cooldown_minutes" json:"cooldown_minutes"`
}

type ExitConfig struct {
	TakeProfit     float64 `yaml:"take_profit" json:"take_profit"`
	StopLoss       float64 `yaml:"stop_loss" json:"stop_loss"`
	MaxHoldMinutes int     `yaml:"max_hold_minutes" json:"max_hold_minutes"`
}

type FusionConfig struct {
	TechWeight float64 `yaml:"tech_weight" json:"tech_weight"`
	NewsWeight float64 `yaml:"news_weight" json:"news_weight"`
	Threshold  float64 `yaml:"threshold" json:"threshold"`
	OrderSize  float64 `yaml:"order_size" json:"order_size"`
}

type ReasonConfig struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Model   string `yaml:"model" json:"model"`
}

type FeedConfig struct {
	BaseURL     string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Timeframe   string `yaml:"timeframe" json:"timeframe"`
	CandleCount int    `yaml:"candle_count" json:"candle_count"`
}

type NewsConfig struct {
	DBPath      string `yaml:"db_path" json:"db_path"`
	WindowHours int    `yaml:"window_hours" json:"window_hours"`
}

type JournalConfig struct {
	Backend string `yaml:"backend" json:"backend"` // sqlite, csv or none
	Path    string `yaml:"path" json:"path"`
	Buffer  int    `yaml:"buffer" json:"buffer"`
}

type CycleConfig struct {
	IntervalSeconds int    `yaml:"interval_seconds" json:"interval_seconds"`
	MetricsAddr     string `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
}

// Default returns a runnable configuration for a small crypto paper desk.
func Default() *Config {
	limits := risk.DefaultLimits()
	exit := risk.DefaultExitPolicy()
	return &Config{
		Account: AccountConfig{
			StartingCash: 10000,
			Symbols:      []string{"BTCUSDT", "ETHUSDT"},
		},
		Risk: RiskConfig{
			MaxOrderFrac:     limits.MaxOrderFrac,
			MinTicket:        limits.MinTicket,
			MaxPositionShare: limits.MaxPositionShare,
			FeeRate:          limits.FeeRate,
			SlippageRate:     limits.SlippageRate,
			CooldownMinutes:  int(limits.Cooldown / time.Minute),
		},
		Exit: ExitConfig{
			TakeProfit:     exit.TakeProfit,
			StopLoss:       exit.StopLoss,
			MaxHoldMinutes: int(exit.MaxHold / time.Minute),
		},
		Fusion: FusionConfig{
			TechWeight: 0.6,
			NewsWeight: 0.4,
			Threshold:  0.55,
			OrderSize:  0.05,
		},
		Reason: ReasonConfig{
			Model: "openai/gpt-4o-mini",
		},
		Feed: FeedConfig{
			Timeframe:   "1h",
			CandleCount: 120,
		},
		News: NewsConfig{
			DBPath:      "news.db",
			WindowHours: 6,
		},
		Journal: JournalConfig{
			Backend: "sqlite",
			Path:    "trades.db",
			Buffer:  256,
		},
		Cycle: CycleConfig{
			IntervalSeconds: 300,
		},
	}
}

// LoadFromFile reads a config file, YAML or JSON by extension.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the config, YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ranges and cross-field consistency.
func (c *Config) Validate() error {
	if c.Account.StartingCash <= 0 {
		return fmt.Errorf("account: starting_cash must be positive")
	}
	if len(c.Account.Symbols) == 0 {
		return fmt.Errorf("account: at least one symbol required")
	}
	if c.Risk.MaxOrderFrac <= 0 || c.Risk.MaxOrderFrac > 1 {
		return fmt.Errorf("risk: max_order_frac must be in (0, 1]")
	}
	if c.Risk.MaxPositionShare <= 0 || c.Risk.MaxPositionShare > 1 {
		return fmt.Errorf("risk: max_position_share must be in (0, 1]")
	}
	if c.Risk.FeeRate < 0 || c.Risk.SlippageRate < 0 {
		return fmt.Errorf("risk: fee and slippage rates must not be negative")
	}
	if c.Exit.TakeProfit <= 0 || c.Exit.StopLoss <= 0 {
		return fmt.Errorf("exit: take_profit and stop_loss must be positive")
	}
	if c.Exit.MaxHoldMinutes <= 0 {
		return fmt.Errorf("exit: max_hold_minutes must be positive")
	}
	if c.Fusion.Threshold <= 0 || c.Fusion.Threshold > 1 {
		return fmt.Errorf("fusion: threshold must be in (0, 1]")
	}
	// Order size may exceed max_order_frac; the ledger clamps per order.
	if c.Fusion.OrderSize <= 0 || c.Fusion.OrderSize > 1 {
		return fmt.Errorf("fusion: order_size must be in (0, 1]")
	}
	switch c.Journal.Backend {
	case "sqlite", "csv", "none":
	default:
		return fmt.Errorf("journal: unknown backend %q", c.Journal.Backend)
	}
	if c.Journal.Backend != "none" && c.Journal.Path == "" {
		return fmt.Errorf("journal: path required for backend %q", c.Journal.Backend)
	}
	if c.Cycle.IntervalSeconds <= 0 {
		return fmt.Errorf("cycle: interval_seconds must be positive")
	}
	return nil
}

// Limits maps the risk section onto ledger limits.
func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		MaxOrderFrac:     c.Risk.MaxOrderFrac,
		MinTicket:        c.Risk.MinTicket,
		MaxPositionShare: c.Risk.MaxPositionShare,
		FeeRate:          c.Risk.FeeRate,
		SlippageRate:     c.Risk.SlippageRate,
		SymbolFees:       c.Risk.SymbolFees,
		Cooldown:         time.Duration(c.Risk.CooldownMinutes) * time.Minute,
	}
}

// ExitPolicy maps the exit section onto the policy type.
func (c *Config) ExitPolicy() risk.ExitPolicy {
	return risk.ExitPolicy{
		TakeProfit: c.Exit.TakeProfit,
		StopLoss:   c.Exit.StopLoss,
		MaxHold:    time.Duration(c.Exit.MaxHoldMinutes) * time.Minute,
		Cooldown:   time.Duration(c.Risk.CooldownMinutes) * time.Minute,
	}
}

// Fuser maps the fusion section onto a fuser.
func (c *Config) Fuser() signal.Fuser {
	return signal.Fuser{
		TechWeight: c.Fusion.TechWeight,
		NewsWeight: c.Fusion.NewsWeight,
		Threshold:  c.Fusion.Threshold,
		OrderSize:  c.Fusion.OrderSize,
		Exit:       c.ExitPolicy(),
	}
}

// Interval is the cycle period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Cycle.IntervalSeconds) * time.Second
}

// NewsWindow is the sentiment recency window.
func (c *Config) NewsWindow() time.Duration {
	return time.Duration(c.News.WindowHours) * time.Hour
}
