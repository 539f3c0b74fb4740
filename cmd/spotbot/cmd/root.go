package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "spotbot",
	Short: "A single-pair crypto spot-trading bot with FIFO lot accounting",
	Long: `Spotbot polls an exchange for one trading pair, buys dips, and sells
when the oldest open lot clears its fee-adjusted profit target.

It provides tools for:
  - Running the polling trade loop from a config file
  - Inspecting the open position and its cost basis
  - Querying the append-only fill journal
  - One-shot sell/hold decisions at a hypothetical price`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for webhook URLs and exchange credentials.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
