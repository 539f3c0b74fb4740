package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/rustyeddy/spotbot/config"
	"github.com/rustyeddy/spotbot/journal"
	"github.com/rustyeddy/spotbot/ledger"
)

// openLedger builds the ledger from config, honoring the recovery policy.
func openLedger(cfg *config.Config, log *zap.Logger) (*ledger.Ledger, error) {
	policy := ledger.ResetToEmpty
	if cfg.Ledger.Recovery == "fail" {
		policy = ledger.FailFast
	}

	return ledger.Open(ledger.Options{
		Path:    cfg.Ledger.Path,
		Symbol:  cfg.Trading.Symbol,
		FeeRate: cfg.Trading.FeeRate,
		Policy:  policy,
		Logger:  log,
	})
}

// openJournal builds the configured fill journal backend.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.FillsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

// webhookURL prefers the environment over the config file so secrets stay
// out of checked-in configs.
func webhookURL(cfg *config.Config) string {
	if url := os.Getenv("SPOTBOT_WEBHOOK_URL"); url != "" {
		return url
	}
	return cfg.Notify.WebhookURL
}
