// Package paper is an in-process exchange that fills orders instantly at
// the last set price. It backs dry runs and tests; the bot drives it
// through the same interface as a real venue.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/spotbot/exchange"
	"github.com/rustyeddy/spotbot/pkg/id"
)

type Exchange struct {
	mu       sync.Mutex
	prices   map[string]float64
	balances map[string]float64
	feeRate  float64
	minimums exchange.MinimumSizes
	now      func() time.Time
}

// New creates a paper exchange with starting balances keyed by currency.
func New(balances map[string]float64, feeRate float64, minimums exchange.MinimumSizes) *Exchange {
	b := make(map[string]float64, len(balances))
	for k, v := range balances {
		b[k] = v
	}
	return &Exchange{
		prices:   make(map[string]float64),
		balances: b,
		feeRate:  feeRate,
		minimums: minimums,
		now:      time.Now,
	}
}

// SetPrice publishes the current market price for a symbol.
func (e *Exchange) SetPrice(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[symbol] = price
}

// SetClock overrides the fill timestamp source. Tests use this to get
// deterministic times.
func (e *Exchange) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *Exchange) GetPrice(ctx context.Context, symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", exchange.ErrNoPrice, symbol)
	}
	return p, nil
}

func (e *Exchange) GetBalances(ctx context.Context) (map[string]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]float64, len(e.balances))
	for k, v := range e.balances {
		out[k] = v
	}
	return out, nil
}

// PlaceOrder fills a market order at the last published price. Fees are
// charged in quote currency on both sides, mirroring how spot venues quote
// taker fees.
func (e *Exchange) PlaceOrder(ctx context.Context, symbol string, side exchange.Side, quantity float64) (exchange.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	price, ok := e.prices[symbol]
	if !ok {
		return exchange.OrderResult{}, fmt.Errorf("%w: %s", exchange.ErrNoPrice, symbol)
	}

	base, quote := exchange.SplitSymbol(symbol)
	if quantity < e.minimums.For(base) {
		return exchange.OrderResult{}, fmt.Errorf("%w: %v %s below minimum %v",
			exchange.ErrBelowMinimum, quantity, base, e.minimums.For(base))
	}

	total := price * quantity
	fee := total * e.feeRate

	switch side {
	case exchange.Buy:
		if e.balances[quote] < total+fee {
			return exchange.OrderResult{}, fmt.Errorf("%w: need %v %s, have %v",
				exchange.ErrInsufficientFunds, total+fee, quote, e.balances[quote])
		}
		e.balances[quote] -= total + fee
		e.balances[base] += quantity
	case exchange.Sell:
		if e.balances[base] < quantity {
			return exchange.OrderResult{}, fmt.Errorf("%w: need %v %s, have %v",
				exchange.ErrInsufficientFunds, quantity, base, e.balances[base])
		}
		e.balances[base] -= quantity
		e.balances[quote] += total - fee
	default:
		return exchange.OrderResult{}, fmt.Errorf("unknown order side %q", side)
	}

	return exchange.OrderResult{
		OrderID:  id.New(),
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    price,
		Total:    total,
		Fee:      fee,
		Time:     e.now().UTC(),
	}, nil
}
