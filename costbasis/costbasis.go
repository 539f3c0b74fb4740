// Package costbasis holds the pure profitability math for purchase lots:
// fee-aware realized profit and break-even / target pricing. No I/O, no
// mutation; the ledger and decision engine both build on these functions.
package costbasis

// BreakEven returns the price at which selling a lot bought at buyPrice
// recovers its full round-trip cost: the buy fee already paid plus the sell
// fee that a future liquidation will incur.
func BreakEven(buyPrice, feeRate float64) float64 {
	return buyPrice * (1 + 2*feeRate)
}

// ProfitInputs describes one allocation of a sell fill against a single lot.
// BuyFees is the total fee paid for the lot's original quantity at buy time;
// it is prorated by QtySold/OriginalQty so partial sales carry their fair
// share of the entry cost.
type ProfitInputs struct {
	BuyPrice    float64
	BuyFees     float64
	OriginalQty float64
	SellPrice   float64
	QtySold     float64
	FeeRate     float64
}

// Profit returns realized profit for the allocation: sell proceeds net of
// the sell fee, minus the prorated cost basis.
func Profit(in ProfitInputs) float64 {
	sellFees := in.SellPrice * in.QtySold * in.FeeRate
	proceeds := in.SellPrice*in.QtySold - sellFees

	basis := in.BuyPrice * in.QtySold
	if in.OriginalQty > 0 {
		basis += in.BuyFees * in.QtySold / in.OriginalQty
	}
	return proceeds - basis
}

// Target is the sell threshold derived from a single lot. The decision
// engine only ever evaluates the FIFO head lot; blending break-evens across
// lots is intentionally not modeled.
type Target struct {
	BreakEvenPrice  float64
	TargetPrice     float64
	PotentialProfit float64
}

// TargetInputs carries the head lot's cost data plus the desired margin.
type TargetInputs struct {
	BuyPrice       float64
	BuyFees        float64
	OriginalQty    float64
	Quantity       float64
	BreakEvenPrice float64
	TargetPct      float64
	FeeRate        float64
}

// TargetFor inflates the lot's break-even price by the target margin and
// estimates the profit of liquidating the lot's remaining quantity exactly
// at that price.
func TargetFor(in TargetInputs) Target {
	target := in.BreakEvenPrice * (1 + in.TargetPct)

	return Target{
		BreakEvenPrice: in.BreakEvenPrice,
		TargetPrice:    target,
		PotentialProfit: Profit(ProfitInputs{
			BuyPrice:    in.BuyPrice,
			BuyFees:     in.BuyFees,
			OriginalQty: in.OriginalQty,
			SellPrice:   target,
			QtySold:     in.Quantity,
			FeeRate:     in.FeeRate,
		}),
	}
}
