package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/spotbot/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the fill journal",
	Long: `Query and display fill records from a SQLite journal.

Subcommands:
  order  - Get the fill for a specific exchange order id
  today  - List fills recorded today
  day    - List fills recorded on a specific day

Examples:
  spotbot journal order <order-id>
  spotbot journal today
  spotbot journal day 2025-03-01`,
}

var journalOrderCmd = &cobra.Command{
	Use:   "order <order-id>",
	Short: "Get the fill for a specific order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrder,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List fills recorded today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List fills recorded on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalOrderCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./fills.db", "path to SQLite journal DB")
}

func runJournalOrder(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetFillByOrder(args[0])
	if err != nil {
		return fmt.Errorf("get fill: %w", err)
	}

	printFill(rec)
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	loc := time.Local
	return listDay(time.Now().In(loc).Format("2006-01-02"), loc)
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0], time.Local)
}

func listDay(day string, loc *time.Location) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListFillsBetween(start, end)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}
	for _, rec := range recs {
		printFill(rec)
	}

	s, err := j.SummarizeDay(start, end)
	if err != nil {
		return fmt.Errorf("summarize day: %w", err)
	}
	fmt.Printf("\n%d fills, %d sells, realized P/L %.6f\n", s.Fills, s.Sells, s.RealizedProfit)
	return nil
}

func printFill(rec journal.Fill) {
	line := fmt.Sprintf("%s  %-14s %-10s qty %v @ %.6f total %.6f  %s",
		rec.Time.Format(time.RFC3339), rec.Action, rec.Status,
		rec.Quantity, rec.Price, rec.Total, rec.OrderID)
	if rec.Profit != nil {
		line += fmt.Sprintf("  profit %.6f", *rec.Profit)
	}
	fmt.Println(line)
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	// AddDate ticks over to the next calendar midnight even on DST
	// transition days, where the day is not 24h long.
	return start, start.AddDate(0, 0, 1), nil
}
