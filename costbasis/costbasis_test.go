package costbasis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakEven(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 100.2, BreakEven(100.0, 0.001), 1e-9)
	assert.InDelta(t, 110.22, BreakEven(110.0, 0.001), 1e-9)
	assert.InDelta(t, 50.0, BreakEven(50.0, 0), 1e-9)
}

func TestProfitFullLot(t *testing.T) {
	t.Parallel()

	// Lot bought at 100 x 2.0 with 0.1% fees, sold entirely at 106.106.
	got := Profit(ProfitInputs{
		BuyPrice:    100.0,
		BuyFees:     0.2,
		OriginalQty: 2.0,
		SellPrice:   106.106,
		QtySold:     2.0,
		FeeRate:     0.001,
	})

	sellFees := 106.106 * 2.0 * 0.001
	want := (106.106*2.0 - sellFees) - (100.0*2.0 + 0.2)
	assert.InDelta(t, want, got, 1e-9)
	assert.Positive(t, got)
}

func TestProfitProratesBuyFees(t *testing.T) {
	t.Parallel()

	// Selling exactly half the original quantity must carry exactly half
	// of the buy fee in the cost basis.
	in := ProfitInputs{
		BuyPrice:    200.0,
		BuyFees:     0.8,
		OriginalQty: 4.0,
		SellPrice:   210.0,
		QtySold:     2.0,
		FeeRate:     0.001,
	}
	got := Profit(in)

	sellFees := 210.0 * 2.0 * 0.001
	want := (210.0*2.0 - sellFees) - (200.0*2.0 + 0.4)
	assert.InDelta(t, want, got, 1e-9)
}

func TestProfitAtBreakEvenIsZero(t *testing.T) {
	t.Parallel()

	// Selling the whole lot exactly at break-even recovers the cost basis
	// to within fee rounding of the compounded sell fee.
	buy, qty, rate := 100.0, 2.0, 0.001
	be := BreakEven(buy, rate)

	got := Profit(ProfitInputs{
		BuyPrice:    buy,
		BuyFees:     buy * qty * rate,
		OriginalQty: qty,
		SellPrice:   be,
		QtySold:     qty,
		FeeRate:     rate,
	})

	// break-even uses the linear 2*feeRate approximation, so the exact
	// result is a tiny negative (sell fee on the inflated price).
	assert.InDelta(t, 0, got, 1e-3)
}

func TestTargetFor(t *testing.T) {
	t.Parallel()

	tgt := TargetFor(TargetInputs{
		BuyPrice:       100.0,
		BuyFees:        0.2,
		OriginalQty:    2.0,
		Quantity:       2.0,
		BreakEvenPrice: 100.2,
		TargetPct:      0.015,
		FeeRate:        0.001,
	})

	assert.InDelta(t, 100.2, tgt.BreakEvenPrice, 1e-9)
	assert.InDelta(t, 100.2*1.015, tgt.TargetPrice, 1e-9)
	assert.Positive(t, tgt.PotentialProfit)
}
