package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/spotbot/config"
	"github.com/rustyeddy/spotbot/exchange"
	"github.com/rustyeddy/spotbot/exchange/paper"
	"github.com/rustyeddy/spotbot/journal"
	"github.com/rustyeddy/spotbot/ledger"
	"github.com/rustyeddy/spotbot/risk"
)

// memJournal collects fills in memory for assertions.
type memJournal struct {
	fills []journal.Fill
}

func (m *memJournal) RecordFill(rec journal.Fill) error {
	m.fills = append(m.fills, rec)
	return nil
}

func (m *memJournal) Close() error { return nil }

type fixture struct {
	bot     *Bot
	ledger  *ledger.Ledger
	journal *memJournal
	ex      *paper.Exchange
}

func newFixture(t *testing.T, mutate func(*config.TradingConfig, *risk.Limits)) *fixture {
	t.Helper()

	trading := config.TradingConfig{
		Symbol:      "BTC-USD",
		FeeRate:     0.001,
		TargetPct:   0.015,
		BuyDipPct:   0.01,
		BuyQuantity: 1.0,
	}
	limits := risk.Limits{}
	if mutate != nil {
		mutate(&trading, &limits)
	}

	l, err := ledger.Open(ledger.Options{
		Path:    filepath.Join(t.TempDir(), "ledger.json"),
		Symbol:  "BTC-USD",
		FeeRate: trading.FeeRate,
	})
	require.NoError(t, err)

	j := &memJournal{}
	ex := paper.New(
		map[string]float64{"USD": 1_000_000, "BTC": 0},
		trading.FeeRate,
		exchange.MinimumSizes{Default: 0.0001},
	)

	b, err := New(Options{
		Trading:  trading,
		Limits:   limits,
		Ledger:   l,
		Journal:  j,
		Exchange: ex,
	})
	require.NoError(t, err)

	return &fixture{bot: b, ledger: l, journal: j, ex: ex}
}

func (fx *fixture) tick(t *testing.T, price float64) TickResult {
	t.Helper()

	fx.ex.SetPrice("BTC-USD", price)
	res, err := fx.bot.Tick(context.Background(), price)
	require.NoError(t, err)
	return res
}

func TestHoldWithoutDipOrPosition(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	res := fx.tick(t, 100.0)

	assert.Equal(t, "HOLD", res.Action)
	assert.Equal(t, "no open positions", res.Decision.Reason)
	assert.Empty(t, fx.journal.fills)
}

func TestBuysTheDip(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.tick(t, 100.0)          // establishes the reference high
	res := fx.tick(t, 98.5)    // 1.5% below reference
	assert.Equal(t, "BUY", res.Action)
	assert.NotEmpty(t, res.OrderID)

	// Lot exists only after the fill.
	head, ok := fx.ledger.Head()
	require.True(t, ok)
	assert.InDelta(t, 98.5, head.BuyPrice, 1e-9)
	assert.InDelta(t, 1.0, head.Quantity, 1e-9)

	require.Len(t, fx.journal.fills, 1)
	assert.Equal(t, journal.ActionBuy, fx.journal.fills[0].Action)
	assert.Equal(t, journal.StatusSuccess, fx.journal.fills[0].Status)
	assert.Equal(t, res.OrderID, fx.journal.fills[0].OrderID)
}

func TestSellsAtTarget(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.tick(t, 100.0)
	fx.tick(t, 98.5) // buy: break-even 98.697, target ≈ 100.177

	res := fx.tick(t, 101.0)
	assert.Equal(t, "SELL", res.Action)

	// Position fully drained.
	assert.Zero(t, fx.ledger.SellableQuantity())

	require.Len(t, fx.journal.fills, 2)
	sell := fx.journal.fills[1]
	assert.Equal(t, journal.ActionSell, sell.Action)
	require.NotNil(t, sell.Profit)
	assert.Positive(t, *sell.Profit)

	// Return is gain over the consumed lot's cost basis, not over the
	// sell proceeds.
	basis := 98.5 * 1.0 * (1 + 0.001)
	proceeds := 101.0 * 1.0 * (1 - 0.001)
	wantProfit := proceeds - basis
	assert.InDelta(t, wantProfit, *sell.Profit, 1e-9)
	require.NotNil(t, sell.ProfitPct)
	assert.InDelta(t, wantProfit/basis, *sell.ProfitPct, 1e-9)
}

func TestHoldsBetweenBreakEvenAndTarget(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	fx.tick(t, 100.0)
	fx.tick(t, 98.5) // buy at 98.5

	// Above break-even (98.697) but below target (≈100.177).
	res := fx.tick(t, 99.5)
	assert.Equal(t, "HOLD", res.Action)
	assert.True(t, res.Decision.WaitForBetter)
	assert.InDelta(t, 1.0, fx.ledger.SellableQuantity(), 1e-9)
}

func TestStopLossSell(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(cfg *config.TradingConfig, lim *risk.Limits) {
		lim.StopLossPct = 0.05
	})

	fx.tick(t, 100.0)
	fx.tick(t, 98.5) // buy at 98.5, stop at 93.575

	res := fx.tick(t, 93.0)
	assert.Equal(t, "SELL_STOP_LOSS", res.Action)
	assert.Zero(t, fx.ledger.SellableQuantity())

	require.Len(t, fx.journal.fills, 2)
	sell := fx.journal.fills[1]
	assert.Equal(t, journal.ActionSellStopLoss, sell.Action)
	require.NotNil(t, sell.Profit)
	assert.Negative(t, *sell.Profit)
}

func TestFailedStopLossKeepsQualifier(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(cfg *config.TradingConfig, lim *risk.Limits) {
		lim.StopLossPct = 0.05
	})

	// A lot the venue never filled: the paper account holds no BTC, so
	// the stop-loss order is rejected.
	_, err := fx.ledger.AddLot(98.5, 1.0, "ord-stale", time.Time{})
	require.NoError(t, err)

	fx.ex.SetPrice("BTC-USD", 93.0)
	_, err = fx.bot.Tick(context.Background(), 93.0)
	require.Error(t, err)

	// The rejection is journaled under the stop-loss action, not a
	// plain sell.
	require.Len(t, fx.journal.fills, 1)
	fill := fx.journal.fills[0]
	assert.Equal(t, journal.ActionSellStopLoss, fill.Action)
	assert.Equal(t, journal.StatusFailed, fill.Status)

	// The inventory is untouched.
	assert.InDelta(t, 1.0, fx.ledger.SellableQuantity(), 1e-9)
}

func TestMinSizeRejectionIsJournaled(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(cfg *config.TradingConfig, lim *risk.Limits) {
		cfg.BuyQuantity = 0.00001
	})

	fx.tick(t, 100.0)
	fx.ex.SetPrice("BTC-USD", 98.5)
	_, err := fx.bot.Tick(context.Background(), 98.5)
	require.Error(t, err)

	require.Len(t, fx.journal.fills, 1)
	assert.Equal(t, journal.StatusFailedMinSize, fx.journal.fills[0].Status)
	assert.Zero(t, fx.ledger.SellableQuantity())
}

func TestRiskLimitBlocksBuy(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(cfg *config.TradingConfig, lim *risk.Limits) {
		lim.MaxOpenLots = 1
	})

	fx.tick(t, 100.0)
	fx.tick(t, 98.5) // first buy fills

	// Another dip from the new reference (98.5); cap blocks it.
	res := fx.tick(t, 97.0)
	assert.Equal(t, "HOLD", res.Action)
	assert.Contains(t, res.Reason, "open lots")
	assert.Len(t, fx.journal.fills, 1)
}

func TestTrendFilterVetoesBuy(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(cfg *config.TradingConfig, lim *risk.Limits) {
		cfg.TrendFilterPeriod = 3
		cfg.TrendFilterPct = 0.01
	})

	fx.tick(t, 100.0)
	fx.tick(t, 100.0)
	fx.tick(t, 100.0) // SMA warm at 100

	// Deep dip, but the market is falling: SMA veto.
	res := fx.tick(t, 95.0)
	assert.Equal(t, "HOLD", res.Action)
	assert.Contains(t, res.Reason, "trend filter")
	assert.Empty(t, fx.journal.fills)
}

func TestTickRejectsNonPositivePrice(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	_, err := fx.bot.Tick(context.Background(), 0)
	assert.Error(t, err)
}
