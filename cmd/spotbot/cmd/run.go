package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/spotbot/bot"
	"github.com/rustyeddy/spotbot/config"
	"github.com/rustyeddy/spotbot/exchange"
	"github.com/rustyeddy/spotbot/exchange/paper"
	"github.com/rustyeddy/spotbot/internal/logging"
	"github.com/rustyeddy/spotbot/notify"
	"github.com/rustyeddy/spotbot/risk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop from a config file",
	Long: `Run the polling trade loop using settings from a configuration file.

The paper exchange fills orders at the price set with --start-price and is
meant for dry runs; point the bot at a real venue by wiring an Exchange
implementation.

Example:
  spotbot run --config spotbot.yaml --start-price 50000 --quote-balance 10000`,
	RunE: runRun,
}

var (
	runConfigPath   string
	runStartPrice   float64
	runQuoteBalance float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().Float64Var(&runStartPrice, "start-price", 0, "initial paper-exchange price (required)")
	runCmd.Flags().Float64Var(&runQuoteBalance, "quote-balance", 10000, "starting quote-currency balance on the paper exchange")
	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("start-price")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer log.Sync()

	led, err := openLedger(cfg, log)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	_, quote := exchange.SplitSymbol(cfg.Trading.Symbol)
	ex := paper.New(
		map[string]float64{quote: runQuoteBalance},
		cfg.Trading.FeeRate,
		exchange.MinimumSizes{
			Default:     cfg.Trading.MinOrderDefault,
			PerCurrency: cfg.Trading.MinOrderSizes,
		},
	)
	ex.SetPrice(cfg.Trading.Symbol, runStartPrice)

	b, err := bot.New(bot.Options{
		Trading: cfg.Trading,
		Limits: risk.Limits{
			StopLossPct:     cfg.Risk.StopLossPct,
			MaxOpenQuantity: cfg.Risk.MaxOpenQuantity,
			MaxOpenLots:     cfg.Risk.MaxOpenLots,
			MaxDailyLoss:    cfg.Risk.MaxDailyLoss,
		},
		Ledger:   led,
		Journal:  j,
		Exchange: ex,
		Notifier: notify.NewSender(webhookURL(cfg), cfg.Notify.BotName, log),
		Logger:   log,
	})
	if err != nil {
		return fmt.Errorf("build bot: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
