// Package bot runs the polling loop: fetch a price, decide, execute, then
// record. All trading state lives in the ledger and journal; each tick
// works from an explicit snapshot rather than fields mutated across
// iterations, so a tick can be replayed in tests with nothing but a price.
//
// Ledger mutations happen strictly after an exchange fill is confirmed.
// The decision engine saying "sell" never touches the ledger; only a fill
// does. A failed order therefore cannot drift local accounting away from
// the exchange.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/spotbot/config"
	"github.com/rustyeddy/spotbot/engine"
	"github.com/rustyeddy/spotbot/exchange"
	"github.com/rustyeddy/spotbot/indicators"
	"github.com/rustyeddy/spotbot/journal"
	"github.com/rustyeddy/spotbot/ledger"
	"github.com/rustyeddy/spotbot/notify"
	"github.com/rustyeddy/spotbot/pkg/id"
	"github.com/rustyeddy/spotbot/risk"
)

// Bot owns one trading pair. Not safe for concurrent use; one polling loop
// is the only driver.
type Bot struct {
	trading config.TradingConfig
	limits  risk.Limits

	ledger  *ledger.Ledger
	journal journal.Journal
	ex      exchange.Exchange
	sma     *indicators.SMA
	notify  *notify.Sender
	limiter *rate.Limiter
	log     *zap.Logger

	// reference is the trailing high the dip-buy rule measures from. It
	// rises with the market and resets to the fill price on every buy.
	reference float64

	// day-realized circuit-breaker bookkeeping
	day         time.Time
	dayRealized float64
}

// Options wires a Bot. Journal and Exchange are required; Notifier and the
// trend filter are optional.
type Options struct {
	Trading  config.TradingConfig
	Limits   risk.Limits
	Ledger   *ledger.Ledger
	Journal  journal.Journal
	Exchange exchange.Exchange
	Notifier *notify.Sender
	Logger   *zap.Logger
}

func New(opts Options) (*Bot, error) {
	if opts.Ledger == nil || opts.Journal == nil || opts.Exchange == nil {
		return nil, fmt.Errorf("ledger, journal and exchange are required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewSender("", "", opts.Logger)
	}

	b := &Bot{
		trading: opts.Trading,
		limits:  opts.Limits,
		ledger:  opts.Ledger,
		journal: opts.Journal,
		ex:      opts.Exchange,
		notify:  opts.Notifier,
		// Polling is interval-driven; the limiter only guards against a
		// misconfigured sub-second interval hammering the venue.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
		log:     opts.Logger,
	}
	if opts.Trading.TrendFilterPeriod > 0 {
		b.sma = indicators.NewSMA(opts.Trading.TrendFilterPeriod)
	}
	return b, nil
}

// Run polls the exchange on the configured interval until the context is
// canceled.
func (b *Bot) Run(ctx context.Context) error {
	interval, err := b.trading.ParsePollInterval()
	if err != nil {
		return fmt.Errorf("poll interval: %w", err)
	}

	b.log.Info("bot starting",
		zap.String("symbol", b.trading.Symbol),
		zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopping", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			if err := b.limiter.Wait(ctx); err != nil {
				return err
			}
			price, err := b.ex.GetPrice(ctx, b.trading.Symbol)
			if err != nil {
				b.log.Warn("price fetch failed", zap.Error(err))
				continue
			}
			res, err := b.Tick(ctx, price)
			if err != nil {
				b.log.Error("tick failed", zap.Error(err))
				continue
			}
			b.log.Debug("tick",
				zap.Float64("price", price),
				zap.String("action", res.Action),
				zap.String("reason", res.Reason))
		}
	}
}

// TickResult summarizes what one polling iteration did.
type TickResult struct {
	Action   string // HOLD, BUY, SELL, SELL_STOP_LOSS, SKIP
	Reason   string
	Decision engine.Decision
	OrderID  string
}

// tickState is everything a single iteration decides from, assembled up
// front so the decision path reads from one immutable snapshot.
type tickState struct {
	price     float64
	reference float64
	head      ledger.Lot
	hasHead   bool
	decision  engine.Decision
}

// Tick runs one iteration of the decision loop against the given price.
// Exposed so tests and replay tools can drive the bot without a ticker.
func (b *Bot) Tick(ctx context.Context, price float64) (TickResult, error) {
	if price <= 0 {
		return TickResult{}, fmt.Errorf("non-positive price %v", price)
	}

	b.rollDay(time.Now().UTC())
	if b.sma != nil {
		b.sma.Update(price)
	}
	if b.reference == 0 || price > b.reference {
		b.reference = price
	}

	st := tickState{
		price:     price,
		reference: b.reference,
		decision:  engine.ShouldSell(b.ledger, price, b.trading.TargetPct),
	}
	st.head, st.hasHead = b.ledger.Head()

	// Exits first: stop-loss overrides the profit target.
	if st.hasHead && risk.StopLossHit(b.limits, st.head.BuyPrice, price) {
		return b.sell(ctx, st, journal.ActionSellStopLoss,
			fmt.Sprintf("stop loss: price %.6f below %.2f%% of head buy %.6f",
				price, 100*(1-b.limits.StopLossPct), st.head.BuyPrice))
	}
	if st.decision.ShouldSell {
		return b.sell(ctx, st, journal.ActionSell, st.decision.Reason)
	}

	// Entry: buy the dip from the trailing high.
	if price <= st.reference*(1-b.trading.BuyDipPct) {
		return b.buy(ctx, st)
	}

	return TickResult{Action: "HOLD", Reason: st.decision.Reason, Decision: st.decision}, nil
}

// sell liquidates the head lot's quantity. The ledger is consumed only
// after the exchange confirms the fill, and the fill is journaled even if
// profit accounting fails afterwards.
func (b *Bot) sell(ctx context.Context, st tickState, action journal.Action, reason string) (TickResult, error) {
	qty := st.head.Quantity

	res, err := b.ex.PlaceOrder(ctx, b.trading.Symbol, exchange.Sell, qty)
	if err != nil {
		b.recordFailure(action, qty, st.price, err)
		return TickResult{Action: "SKIP", Reason: reason, Decision: st.decision},
			fmt.Errorf("sell order: %w", err)
	}

	fill := journal.Fill{
		ID:       id.New(),
		Time:     res.Time,
		Symbol:   res.Symbol,
		Action:   action,
		Quantity: res.Quantity,
		Price:    res.Price,
		Total:    res.Total,
		OrderID:  res.OrderID,
		Status:   journal.StatusSuccess,
	}

	consumed, cerr := b.ledger.Consume(res.Quantity, res.Price, res.OrderID)
	if cerr != nil {
		// The exchange fill is real regardless; journal it without profit
		// rather than lose it.
		b.log.Error("ledger consume failed after fill", zap.Error(cerr))
	} else {
		profit := consumed.RealizedProfit
		fill.Profit = &profit
		// Cost basis of the consumed inventory: net proceeds minus the
		// realized gain on them.
		if basis := res.Total - res.Fee - profit; basis > 0 {
			pct := profit / basis
			fill.ProfitPct = &pct
		}
		b.dayRealized += profit
	}

	if err := b.journal.RecordFill(fill); err != nil {
		return TickResult{}, fmt.Errorf("journal sell fill: %w", err)
	}

	msg := fmt.Sprintf("%s %v %s @ %.6f", action, res.Quantity, res.Symbol, res.Price)
	if fill.Profit != nil {
		msg += fmt.Sprintf(" (profit %.6f)", *fill.Profit)
	}
	b.notify.Send(ctx, msg)
	b.log.Info("sold",
		zap.String("action", string(action)),
		zap.Float64("quantity", res.Quantity),
		zap.Float64("price", res.Price),
		zap.String("order_id", res.OrderID))

	return TickResult{Action: string(action), Reason: reason, Decision: st.decision, OrderID: res.OrderID}, cerr
}

func (b *Bot) buy(ctx context.Context, st tickState) (TickResult, error) {
	reason := fmt.Sprintf("price %.6f dipped %.2f%% below reference %.6f",
		st.price, 100*b.trading.BuyDipPct, st.reference)

	if b.sma != nil && b.sma.Falling(st.price, b.trading.TrendFilterPct) {
		return TickResult{Action: "HOLD", Reason: "trend filter: falling market", Decision: st.decision}, nil
	}

	advice := risk.EvaluateBuy(b.limits, risk.BuyExposure{
		OpenQuantity: b.ledger.SellableQuantity(),
		OpenLots:     len(b.ledger.Lots()),
		BuyQuantity:  b.trading.BuyQuantity,
		DayRealized:  b.dayRealized,
	})
	if !advice.Allowed {
		v := advice.Violations[0]
		b.log.Warn("buy blocked by risk limits", zap.String("code", v.Code), zap.String("msg", v.Msg))
		return TickResult{Action: "HOLD", Reason: v.Msg, Decision: st.decision}, nil
	}

	res, err := b.ex.PlaceOrder(ctx, b.trading.Symbol, exchange.Buy, b.trading.BuyQuantity)
	if err != nil {
		b.recordFailure(journal.ActionBuy, b.trading.BuyQuantity, st.price, err)
		return TickResult{Action: "SKIP", Reason: reason, Decision: st.decision},
			fmt.Errorf("buy order: %w", err)
	}

	// Fill confirmed: now the lot exists.
	if _, err := b.ledger.AddLot(res.Price, res.Quantity, res.OrderID, res.Time); err != nil {
		b.log.Error("ledger add failed after fill", zap.Error(err))
	}
	b.reference = res.Price

	if err := b.journal.RecordFill(journal.Fill{
		ID:       id.New(),
		Time:     res.Time,
		Symbol:   res.Symbol,
		Action:   journal.ActionBuy,
		Quantity: res.Quantity,
		Price:    res.Price,
		Total:    res.Total,
		OrderID:  res.OrderID,
		Status:   journal.StatusSuccess,
	}); err != nil {
		return TickResult{}, fmt.Errorf("journal buy fill: %w", err)
	}

	b.notify.Send(ctx, fmt.Sprintf("BUY %v %s @ %.6f", res.Quantity, res.Symbol, res.Price))
	b.log.Info("bought",
		zap.Float64("quantity", res.Quantity),
		zap.Float64("price", res.Price),
		zap.String("order_id", res.OrderID))

	return TickResult{Action: "BUY", Reason: reason, Decision: st.decision, OrderID: res.OrderID}, nil
}

// recordFailure journals a rejected order. Min-size rejections get their
// own status so operators can tune quantities.
func (b *Bot) recordFailure(action journal.Action, qty, price float64, cause error) {
	status := journal.StatusFailed
	if errors.Is(cause, exchange.ErrBelowMinimum) {
		status = journal.StatusFailedMinSize
	}

	if err := b.journal.RecordFill(journal.Fill{
		ID:       id.New(),
		Time:     time.Now().UTC(),
		Symbol:   b.trading.Symbol,
		Action:   action,
		Quantity: qty,
		Price:    price,
		Total:    qty * price,
		Status:   status,
	}); err != nil {
		b.log.Error("journal failed-order record", zap.Error(err))
	}
}

// rollDay resets the daily realized-loss counter at UTC midnight.
func (b *Bot) rollDay(now time.Time) {
	day := now.Truncate(24 * time.Hour)
	if !day.Equal(b.day) {
		b.day = day
		b.dayRealized = 0
	}
}
