package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/spotbot/config"
	"github.com/rustyeddy/spotbot/engine"
)

var checkCmd = &cobra.Command{
	Use:   "check <price>",
	Short: "One-shot sell/hold decision at a hypothetical price",
	Long: `Evaluate the sell decision for the current position against a given
price without touching the ledger or placing any order.

Example:
  spotbot check 51250.5 --config spotbot.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var checkConfigPath string

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkConfigPath, "config", "f", "", "path to config file (required)")
	checkCmd.MarkFlagRequired("config")
}

func runCheck(cmd *cobra.Command, args []string) error {
	var price float64
	if _, err := fmt.Sscanf(args[0], "%f", &price); err != nil || price <= 0 {
		return fmt.Errorf("price must be a positive number, got %q", args[0])
	}

	cfg, err := config.LoadFromFile(checkConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	led, err := openLedger(cfg, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	d := engine.ShouldSell(led, price, cfg.Trading.TargetPct)
	if d.ShouldSell {
		fmt.Printf("SELL: %s\n", d.Reason)
		fmt.Printf("  estimated profit: %.6f\n", d.EstimatedProfit)
	} else {
		fmt.Printf("HOLD: %s\n", d.Reason)
	}
	if d.BreakEvenPrice > 0 {
		fmt.Printf("  break-even: %.6f  target: %.6f\n", d.BreakEvenPrice, d.TargetPrice)
	}
	return nil
}
