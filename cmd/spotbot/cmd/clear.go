package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/spotbot/config"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard all open lots (destructive)",
	Long: `Discard every open lot and persist the empty ledger.

This erases the bot's cost-basis history for the pair and is meant for
manual recovery only. Requires --yes.`,
	RunE: runClear,
}

var (
	clearConfigPath string
	clearConfirmed  bool
)

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringVarP(&clearConfigPath, "config", "f", "", "path to config file (required)")
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "confirm the destructive reset")
	clearCmd.MarkFlagRequired("config")
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearConfirmed {
		return fmt.Errorf("refusing to clear the ledger without --yes")
	}

	cfg, err := config.LoadFromFile(clearConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	led, err := openLedger(cfg, zap.NewNop())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	dropped := led.Summarize(0).LotCount
	if err := led.Clear(); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	fmt.Printf("Cleared %d open lots for %s\n", dropped, cfg.Trading.Symbol)
	return nil
}
