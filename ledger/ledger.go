// Package ledger tracks the open purchase lots of a single trading pair as
// a durable FIFO queue. Every mutation is persisted synchronously before it
// is reported back to the caller, so the on-disk position history never
// trails the in-memory one.
//
// Exactly one process may own a ledger file. Writes go through an atomic
// temp-file rename, which protects against torn files on crash but not
// against two concurrent writers; sharing a path between processes is a
// misconfiguration.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/spotbot/costbasis"
)

var (
	// ErrInvalidArgument rejects non-positive prices or quantities at the
	// boundary.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientInventory rejects a consume request that exceeds the
	// total open quantity. Over-consumption fails loudly before any lot is
	// touched; it is never clamped.
	ErrInsufficientInventory = errors.New("insufficient inventory")
)

// RecoveryPolicy controls what Open does when the persisted state is
// missing, malformed, or tagged for a different symbol.
type RecoveryPolicy int

const (
	// ResetToEmpty starts with an empty ledger and logs a warning. This
	// favors availability over strict integrity: a corrupted file silently
	// loses position history rather than halting trading.
	ResetToEmpty RecoveryPolicy = iota

	// FailFast surfaces the load error instead of trading without history.
	FailFast
)

// Options configures a ledger instance.
type Options struct {
	Path    string
	Symbol  string
	FeeRate float64
	Policy  RecoveryPolicy
	Logger  *zap.Logger
}

// Ledger is the FIFO queue of open lots for one symbol. Not safe for
// concurrent use; the single polling loop is the only intended caller.
type Ledger struct {
	path    string
	symbol  string
	feeRate float64
	lots    []*Lot
	log     *zap.Logger
}

// Open loads the persisted ledger for a symbol, applying the recovery
// policy when the file is absent, unreadable, or belongs to another symbol.
// A missing file is always a clean start, not an error.
func Open(opts Options) (*Ledger, error) {
	if opts.Path == "" || opts.Symbol == "" {
		return nil, fmt.Errorf("%w: ledger path and symbol are required", ErrInvalidArgument)
	}
	if opts.FeeRate < 0 {
		return nil, fmt.Errorf("%w: fee rate must not be negative", ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Ledger{
		path:    opts.Path,
		symbol:  opts.Symbol,
		feeRate: opts.FeeRate,
		log:     opts.Logger,
	}

	lots, err := loadState(opts.Path, opts.Symbol)
	if err != nil {
		if opts.Policy == FailFast {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
		l.log.Warn("ledger state unusable, resetting to empty",
			zap.String("path", opts.Path),
			zap.String("symbol", opts.Symbol),
			zap.Error(err))
		lots = nil
	}
	l.lots = lots

	return l, nil
}

// Symbol returns the trading pair this ledger tracks.
func (l *Ledger) Symbol() string { return l.symbol }

// FeeRate returns the per-side fee rate used for cost-basis math.
func (l *Ledger) FeeRate() float64 { return l.feeRate }

// AddLot appends a new purchase lot at the tail of the FIFO queue and
// persists the ledger before returning. The returned Lot is a copy; the
// ledger keeps sole ownership of its internal state.
func (l *Ledger) AddLot(price, quantity float64, orderID string, ts time.Time) (Lot, error) {
	if price <= 0 {
		return Lot{}, fmt.Errorf("%w: buy price must be positive, got %v", ErrInvalidArgument, price)
	}
	if quantity <= 0 {
		return Lot{}, fmt.Errorf("%w: quantity must be positive, got %v", ErrInvalidArgument, quantity)
	}

	lot := newLot(price, quantity, l.feeRate, orderID, ts)
	l.lots = append(l.lots, lot)

	if err := l.save(); err != nil {
		// Roll back so memory matches disk: a lot the caller believes
		// recorded but that would vanish on restart desynchronizes
		// accounting from the exchange.
		l.lots = l.lots[:len(l.lots)-1]
		return Lot{}, fmt.Errorf("persist ledger after add: %w", err)
	}

	l.log.Info("lot added",
		zap.String("lot_id", lot.ID),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
		zap.Float64("break_even", lot.BreakEvenPrice))

	return *lot, nil
}

// ConsumptionRecord reports one allocation of a sell fill against a lot.
type ConsumptionRecord struct {
	LotID        string
	QuantitySold float64
	SellPrice    float64
	Profit       float64
}

// ConsumeResult aggregates a sell fill's FIFO allocations.
type ConsumeResult struct {
	Consumed       []ConsumptionRecord
	RealizedProfit float64
	OpenLots       int
}

// Consume drains quantity from the oldest open lots first, computing the
// realized profit of each allocation with buy fees prorated to the portion
// sold. Fully consumed lots are pruned from the ledger; their history lives
// only in the returned records and whatever the caller journals.
//
// Requesting more than SellableQuantity fails with ErrInsufficientInventory
// before any mutation.
func (l *Ledger) Consume(quantity, sellPrice float64, orderID string) (ConsumeResult, error) {
	_ = orderID // recorded by the caller's journal entry, not stored here

	if quantity <= 0 {
		return ConsumeResult{}, fmt.Errorf("%w: quantity must be positive, got %v", ErrInvalidArgument, quantity)
	}
	if sellPrice <= 0 {
		return ConsumeResult{}, fmt.Errorf("%w: sell price must be positive, got %v", ErrInvalidArgument, sellPrice)
	}

	available := l.SellableQuantity()
	if quantity > available+Epsilon {
		return ConsumeResult{}, fmt.Errorf("%w: requested %v, open %v",
			ErrInsufficientInventory, quantity, available)
	}

	// Snapshot for rollback if the persist fails after mutation.
	before := make([]Lot, len(l.lots))
	for i, lot := range l.lots {
		before[i] = *lot
	}

	remaining := quantity
	res := ConsumeResult{}

	for _, lot := range l.lots {
		if remaining <= Epsilon {
			break
		}
		if !lot.Open() {
			continue
		}

		sold := math.Min(remaining, lot.Quantity)
		profit := costbasis.Profit(costbasis.ProfitInputs{
			BuyPrice:    lot.BuyPrice,
			BuyFees:     lot.Fees,
			OriginalQty: lot.OriginalQuantity,
			SellPrice:   sellPrice,
			QtySold:     sold,
			FeeRate:     l.feeRate,
		})

		res.Consumed = append(res.Consumed, ConsumptionRecord{
			LotID:        lot.ID,
			QuantitySold: sold,
			SellPrice:    sellPrice,
			Profit:       profit,
		})
		res.RealizedProfit += profit

		lot.Quantity -= sold
		remaining -= sold
		if lot.Quantity <= Epsilon {
			lot.Quantity = 0
			lot.Status = StatusClosed
		}
		// Keep the persisted cost in step with what is left. Fees and
		// OriginalQuantity stay fixed so future prorations keep the
		// same per-unit fee share.
		lot.TotalCost = lot.BuyPrice*lot.Quantity + lot.Fees*lot.Quantity/lot.OriginalQuantity
	}

	// Only open lots are retained.
	open := l.lots[:0]
	for _, lot := range l.lots {
		if lot.Open() {
			open = append(open, lot)
		}
	}
	l.lots = open
	res.OpenLots = len(l.lots)

	if err := l.save(); err != nil {
		restored := make([]*Lot, len(before))
		for i := range before {
			lot := before[i]
			restored[i] = &lot
		}
		l.lots = restored
		return ConsumeResult{}, fmt.Errorf("persist ledger after consume: %w", err)
	}

	l.log.Info("lots consumed",
		zap.Float64("quantity", quantity),
		zap.Float64("sell_price", sellPrice),
		zap.Float64("realized_profit", res.RealizedProfit),
		zap.Int("open_lots", res.OpenLots))

	return res, nil
}

// Summary is a point-in-time view of the open position. The mark-to-market
// fields are only populated when Summarize was given a positive price.
type Summary struct {
	LotCount        int
	TotalQuantity   float64
	TotalCost       float64
	AverageBuyPrice float64
	CurrentValue    float64
	UnrealizedPL    float64
	UnrealizedPLPct float64
}

// Summarize aggregates the open lots without mutating anything. Pass a
// non-positive currentPrice to skip the mark-to-market fields.
func (l *Ledger) Summarize(currentPrice float64) Summary {
	var s Summary
	for _, lot := range l.lots {
		if !lot.Open() {
			continue
		}
		s.LotCount++
		s.TotalQuantity += lot.Quantity
		s.TotalCost += lot.TotalCost
	}
	if s.TotalQuantity > 0 {
		s.AverageBuyPrice = s.TotalCost / s.TotalQuantity
	}
	if currentPrice > 0 && s.TotalQuantity > 0 {
		s.CurrentValue = currentPrice * s.TotalQuantity
		s.UnrealizedPL = s.CurrentValue - s.TotalCost
		s.UnrealizedPLPct = s.UnrealizedPL / s.TotalCost
	}
	return s
}

// SellableQuantity returns the total quantity across all open lots.
func (l *Ledger) SellableQuantity() float64 {
	sum := 0.0
	for _, lot := range l.lots {
		if lot.Open() {
			sum += lot.Quantity
		}
	}
	return sum
}

// Head returns a copy of the oldest open lot. The second return is false
// when the ledger has no open position.
func (l *Ledger) Head() (Lot, bool) {
	for _, lot := range l.lots {
		if lot.Open() {
			return *lot, true
		}
	}
	return Lot{}, false
}

// Lots returns copies of all open lots in FIFO order.
func (l *Ledger) Lots() []Lot {
	out := make([]Lot, 0, len(l.lots))
	for _, lot := range l.lots {
		if lot.Open() {
			out = append(out, *lot)
		}
	}
	return out
}

// Clear discards every lot and persists the empty state. Destructive;
// meant for manual recovery, the CLI gates it behind a confirm flag.
func (l *Ledger) Clear() error {
	old := l.lots
	l.lots = nil
	if err := l.save(); err != nil {
		l.lots = old
		return fmt.Errorf("persist ledger after clear: %w", err)
	}
	l.log.Warn("ledger cleared", zap.String("symbol", l.symbol), zap.Int("dropped_lots", len(old)))
	return nil
}
