package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/spotbot/config"
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show the open position and its cost basis",
	Long: `Print the open lots, aggregate cost basis, and — when --price is
given — the mark-to-market value and unrealized P/L.

Example:
  spotbot position --config spotbot.yaml --price 51250.5`,
	RunE: runPosition,
}

var (
	positionConfigPath string
	positionPrice      float64
)

func init() {
	rootCmd.AddCommand(positionCmd)

	positionCmd.Flags().StringVarP(&positionConfigPath, "config", "f", "", "path to config file (required)")
	positionCmd.Flags().Float64Var(&positionPrice, "price", 0, "current price for mark-to-market fields")
	positionCmd.MarkFlagRequired("config")
}

func runPosition(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(positionConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	led, err := openLedger(cfg, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	s := led.Summarize(positionPrice)
	fmt.Printf("Position: %s\n", cfg.Trading.Symbol)
	fmt.Printf("  Open lots: %d\n", s.LotCount)
	fmt.Printf("  Quantity: %v\n", s.TotalQuantity)
	fmt.Printf("  Total cost: %.6f\n", s.TotalCost)
	if s.LotCount > 0 {
		fmt.Printf("  Average buy price: %.6f\n", s.AverageBuyPrice)
	}
	if positionPrice > 0 && s.LotCount > 0 {
		fmt.Printf("  Current value: %.6f\n", s.CurrentValue)
		fmt.Printf("  Unrealized P/L: %.6f (%.2f%%)\n", s.UnrealizedPL, 100*s.UnrealizedPLPct)
	}

	if s.LotCount > 0 {
		fmt.Println("\nLots (FIFO order):")
		for _, lot := range led.Lots() {
			fmt.Printf("  %s  buy %.6f x %v  break-even %.6f  %s\n",
				lot.ID, lot.BuyPrice, lot.Quantity, lot.BreakEvenPrice,
				lot.Timestamp.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}
