// Package exchange defines the capability the bot consumes from a trading
// venue. The core never touches the network itself; an implementation
// resolves prices, balances and orders however it likes.
package exchange

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNoPrice means no market data is available for the symbol.
	ErrNoPrice = errors.New("no price for symbol")

	// ErrBelowMinimum means the order quantity is under the venue's
	// minimum size for the base currency.
	ErrBelowMinimum = errors.New("order below minimum size")

	// ErrInsufficientFunds means the account cannot cover the order.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderResult reports an executed fill. Quantity is in base currency, fee
// in quote.
type OrderResult struct {
	OrderID  string
	Symbol   string
	Side     Side
	Quantity float64
	Price    float64
	Total    float64
	Fee      float64
	Time     time.Time
}

type Exchange interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetBalances(ctx context.Context) (map[string]float64, error)
	PlaceOrder(ctx context.Context, symbol string, side Side, quantity float64) (OrderResult, error)
}

// MinimumSizes maps base currencies to the venue's minimum order quantity.
// Unlisted currencies fall back to Default.
type MinimumSizes struct {
	Default     float64
	PerCurrency map[string]float64
}

func (m MinimumSizes) For(currency string) float64 {
	if v, ok := m.PerCurrency[currency]; ok {
		return v
	}
	return m.Default
}

// SplitSymbol breaks a "BASE-QUOTE" pair into its currencies. A symbol
// without a separator is returned as base with an empty quote.
func SplitSymbol(symbol string) (base, quote string) {
	base, quote, _ = strings.Cut(symbol, "-")
	return base, quote
}
