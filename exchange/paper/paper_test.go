package paper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/spotbot/exchange"
)

func newTestExchange() *Exchange {
	return New(
		map[string]float64{"USD": 10000, "BTC": 0},
		0.001,
		exchange.MinimumSizes{Default: 0.0001},
	)
}

func TestGetPrice(t *testing.T) {
	t.Parallel()

	e := newTestExchange()
	ctx := context.Background()

	_, err := e.GetPrice(ctx, "BTC-USD")
	assert.ErrorIs(t, err, exchange.ErrNoPrice)

	e.SetPrice("BTC-USD", 50000)
	p, err := e.GetPrice(ctx, "BTC-USD")
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, p, 1e-9)
}

func TestBuyMovesBalances(t *testing.T) {
	t.Parallel()

	e := newTestExchange()
	e.SetPrice("BTC-USD", 50000)
	ctx := context.Background()

	res, err := e.PlaceOrder(ctx, "BTC-USD", exchange.Buy, 0.1)
	require.NoError(t, err)

	assert.NotEmpty(t, res.OrderID)
	assert.InDelta(t, 5000.0, res.Total, 1e-9)
	assert.InDelta(t, 5.0, res.Fee, 1e-9)

	bal, err := e.GetBalances(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000-5000-5, bal["USD"], 1e-9)
	assert.InDelta(t, 0.1, bal["BTC"], 1e-9)
}

func TestSellMovesBalances(t *testing.T) {
	t.Parallel()

	e := New(map[string]float64{"USD": 0, "BTC": 1}, 0.001, exchange.MinimumSizes{Default: 0.0001})
	e.SetPrice("BTC-USD", 52000)
	ctx := context.Background()

	res, err := e.PlaceOrder(ctx, "BTC-USD", exchange.Sell, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, 26000.0, res.Total, 1e-9)
	assert.InDelta(t, 26.0, res.Fee, 1e-9)

	bal, err := e.GetBalances(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, bal["BTC"], 1e-9)
	assert.InDelta(t, 26000-26, bal["USD"], 1e-9)
}

func TestRejectsBelowMinimum(t *testing.T) {
	t.Parallel()

	e := New(
		map[string]float64{"USD": 10000},
		0.001,
		exchange.MinimumSizes{Default: 0.0001, PerCurrency: map[string]float64{"BTC": 0.01}},
	)
	e.SetPrice("BTC-USD", 50000)

	_, err := e.PlaceOrder(context.Background(), "BTC-USD", exchange.Buy, 0.005)
	assert.ErrorIs(t, err, exchange.ErrBelowMinimum)
}

func TestRejectsInsufficientFunds(t *testing.T) {
	t.Parallel()

	e := New(map[string]float64{"USD": 100, "BTC": 0}, 0.001, exchange.MinimumSizes{Default: 0.0001})
	e.SetPrice("BTC-USD", 50000)
	ctx := context.Background()

	_, err := e.PlaceOrder(ctx, "BTC-USD", exchange.Buy, 1.0)
	assert.ErrorIs(t, err, exchange.ErrInsufficientFunds)

	_, err = e.PlaceOrder(ctx, "BTC-USD", exchange.Sell, 1.0)
	assert.ErrorIs(t, err, exchange.ErrInsufficientFunds)
}

func TestMinimumSizesFallback(t *testing.T) {
	t.Parallel()

	m := exchange.MinimumSizes{Default: 0.001, PerCurrency: map[string]float64{"BTC": 0.0001}}
	assert.InDelta(t, 0.0001, m.For("BTC"), 1e-12)
	assert.InDelta(t, 0.001, m.For("DOGE"), 1e-12)
}
