// Package config loads the bot's configuration from a YAML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Trading TradingConfig `json:"trading" yaml:"trading"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Notify  NotifyConfig  `json:"notify" yaml:"notify"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// TradingConfig drives the polling loop and the buy/sell rules.
type TradingConfig struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	FeeRate      float64 `json:"fee_rate" yaml:"fee_rate"`
	TargetPct    float64 `json:"target_pct" yaml:"target_pct"`
	BuyDipPct    float64 `json:"buy_dip_pct" yaml:"buy_dip_pct"`
	BuyQuantity  float64 `json:"buy_quantity" yaml:"buy_quantity"`
	PollInterval string  `json:"poll_interval" yaml:"poll_interval"`

	// Minimum order sizes by base currency; unlisted currencies use
	// MinOrderDefault.
	MinOrderDefault float64            `json:"min_order_default" yaml:"min_order_default"`
	MinOrderSizes   map[string]float64 `json:"min_order_sizes,omitempty" yaml:"min_order_sizes,omitempty"`

	// TrendFilter enables the SMA buy veto with the given window.
	TrendFilterPeriod int     `json:"trend_filter_period,omitempty" yaml:"trend_filter_period,omitempty"`
	TrendFilterPct    float64 `json:"trend_filter_pct,omitempty" yaml:"trend_filter_pct,omitempty"`
}

func (t TradingConfig) ParsePollInterval() (time.Duration, error) {
	if t.PollInterval == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(t.PollInterval)
}

// LedgerConfig locates the position file and sets the recovery behavior.
type LedgerConfig struct {
	Path string `json:"path" yaml:"path"`

	// Recovery is "reset" (start empty on a bad file, logged) or "fail"
	// (refuse to start). Reset trades integrity for availability and is
	// the default.
	Recovery string `json:"recovery" yaml:"recovery"`
}

// JournalConfig selects the fill journal backend.
type JournalConfig struct {
	Type      string `json:"type" yaml:"type"` // "csv" or "sqlite"
	FillsFile string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	DBPath    string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type RiskConfig struct {
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	MaxOpenQuantity float64 `json:"max_open_quantity" yaml:"max_open_quantity"`
	MaxOpenLots     int     `json:"max_open_lots" yaml:"max_open_lots"`
	MaxDailyLoss    float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
}

type NotifyConfig struct {
	WebhookURL string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty"`
	BotName    string `json:"bot_name,omitempty" yaml:"bot_name,omitempty"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, YAML for .yaml/.yml paths and
// indented JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if !strings.Contains(c.Trading.Symbol, "-") {
		return fmt.Errorf("trading.symbol must be BASE-QUOTE, got %q", c.Trading.Symbol)
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeRate >= 1 {
		return fmt.Errorf("trading.fee_rate must be in [0, 1)")
	}
	if c.Trading.TargetPct <= 0 {
		return fmt.Errorf("trading.target_pct must be positive")
	}
	if c.Trading.BuyDipPct <= 0 {
		return fmt.Errorf("trading.buy_dip_pct must be positive")
	}
	if c.Trading.BuyQuantity <= 0 {
		return fmt.Errorf("trading.buy_quantity must be positive")
	}
	if _, err := c.Trading.ParsePollInterval(); err != nil {
		return fmt.Errorf("trading.poll_interval: %w", err)
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	switch c.Ledger.Recovery {
	case "", "reset", "fail":
	default:
		return fmt.Errorf("ledger.recovery must be 'reset' or 'fail', got %q", c.Ledger.Recovery)
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.FillsFile == "" {
			return fmt.Errorf("journal.fills_file required for csv journal")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite', got %q", c.Journal.Type)
	}
	if c.Risk.StopLossPct < 0 || c.Risk.StopLossPct >= 1 {
		return fmt.Errorf("risk.stop_loss_pct must be in [0, 1)")
	}
	return nil
}

// Default returns a configuration with sensible defaults for a BTC-USD
// paper run.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Symbol:          "BTC-USD",
			FeeRate:         0.001,
			TargetPct:       0.015,
			BuyDipPct:       0.01,
			BuyQuantity:     0.001,
			PollInterval:    "30s",
			MinOrderDefault: 0.0001,
		},
		Ledger: LedgerConfig{
			Path:     "./ledger-btc-usd.json",
			Recovery: "reset",
		},
		Journal: JournalConfig{
			Type:      "csv",
			FillsFile: "./fills.csv",
		},
		Risk: RiskConfig{
			StopLossPct: 0.05,
			MaxOpenLots: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
