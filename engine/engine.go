// Package engine decides whether the current price justifies liquidating
// the position. The decision is pure: it reads the ledger's FIFO head lot
// and never mutates anything. Executing the sell — and only then consuming
// lots — is the caller's job, so a failed order can never drift the ledger
// away from the exchange.
package engine

import (
	"fmt"

	"github.com/rustyeddy/spotbot/costbasis"
	"github.com/rustyeddy/spotbot/ledger"
)

// Decision is the engine's verdict for one price observation.
//
// Three price regions exist relative to the head lot: below break-even
// (AtLoss), between break-even and target (WaitForBetter), and at or above
// target (ShouldSell). With no open lots the decision is a plain hold with
// Reason "no open positions" — a normal terminal state, not an error.
type Decision struct {
	ShouldSell      bool
	Reason          string
	EstimatedProfit float64
	BreakEvenPrice  float64
	TargetPrice     float64
	AtLoss          bool
	WaitForBetter   bool
}

// ShouldSell evaluates the FIFO head lot against currentPrice with the
// desired profit margin. Only the head lot's break-even matters; the profit
// estimate covers the head lot's remaining quantity at the current price.
func ShouldSell(l *ledger.Ledger, currentPrice, targetPct float64) Decision {
	head, ok := l.Head()
	if !ok {
		return Decision{Reason: "no open positions"}
	}

	tgt := costbasis.TargetFor(costbasis.TargetInputs{
		BuyPrice:       head.BuyPrice,
		BuyFees:        head.Fees,
		OriginalQty:    head.OriginalQuantity,
		Quantity:       head.Quantity,
		BreakEvenPrice: head.BreakEvenPrice,
		TargetPct:      targetPct,
		FeeRate:        l.FeeRate(),
	})

	d := Decision{
		BreakEvenPrice: tgt.BreakEvenPrice,
		TargetPrice:    tgt.TargetPrice,
		EstimatedProfit: costbasis.Profit(costbasis.ProfitInputs{
			BuyPrice:    head.BuyPrice,
			BuyFees:     head.Fees,
			OriginalQty: head.OriginalQuantity,
			SellPrice:   currentPrice,
			QtySold:     head.Quantity,
			FeeRate:     l.FeeRate(),
		}),
	}

	switch {
	case currentPrice < tgt.BreakEvenPrice:
		d.AtLoss = true
		d.Reason = fmt.Sprintf("at a loss: price %.6f below break-even %.6f", currentPrice, tgt.BreakEvenPrice)
	case currentPrice < tgt.TargetPrice:
		d.WaitForBetter = true
		d.Reason = fmt.Sprintf("above break-even %.6f but below target %.6f, waiting", tgt.BreakEvenPrice, tgt.TargetPrice)
	default:
		d.ShouldSell = true
		d.Reason = fmt.Sprintf("price %.6f at or above target %.6f", currentPrice, tgt.TargetPrice)
	}
	return d
}
