// Package risk holds the advisory checks the bot consults before acting:
// a stop-loss trigger on the head lot and exposure limits on new buys.
// Everything here is pure; the bot decides what to do with a violation.
package risk

import "fmt"

// Limits are the operator-configured guard rails.
type Limits struct {
	// StopLossPct closes the position when the head lot has drawn down by
	// this fraction of its buy price. Zero disables the stop.
	StopLossPct float64

	// Exposure caps for new buys. Zero means unlimited.
	MaxOpenQuantity float64
	MaxOpenLots     int

	// MaxDailyLoss halts buying once the day's realized losses reach this
	// amount of quote currency. Zero disables the breaker.
	MaxDailyLoss float64
}

type Violation struct {
	Code string
	Msg  string
}

// Advice is the outcome of an exposure evaluation.
type Advice struct {
	Allowed    bool
	Violations []Violation
}

func (a *Advice) add(code, msg string) {
	a.Violations = append(a.Violations, Violation{Code: code, Msg: msg})
	a.Allowed = false
}

// StopLossHit reports whether the head lot's drawdown breaches the stop.
func StopLossHit(lim Limits, headBuyPrice, currentPrice float64) bool {
	if lim.StopLossPct <= 0 || headBuyPrice <= 0 {
		return false
	}
	return currentPrice <= headBuyPrice*(1-lim.StopLossPct)
}

// BuyExposure describes the position at the moment a buy is considered.
type BuyExposure struct {
	OpenQuantity float64
	OpenLots     int
	BuyQuantity  float64
	DayRealized  float64
}

// EvaluateBuy checks a prospective buy against the exposure limits.
func EvaluateBuy(lim Limits, exp BuyExposure) Advice {
	a := Advice{Allowed: true}

	if lim.MaxOpenQuantity > 0 && exp.OpenQuantity+exp.BuyQuantity > lim.MaxOpenQuantity {
		a.add("MAX_OPEN_QUANTITY",
			fmt.Sprintf("open %v + buy %v exceeds max %v",
				exp.OpenQuantity, exp.BuyQuantity, lim.MaxOpenQuantity))
	}
	if lim.MaxOpenLots > 0 && exp.OpenLots >= lim.MaxOpenLots {
		a.add("MAX_OPEN_LOTS",
			fmt.Sprintf("open lots %d >= max %d", exp.OpenLots, lim.MaxOpenLots))
	}
	if lim.MaxDailyLoss > 0 && exp.DayRealized <= -lim.MaxDailyLoss {
		a.add("DAILY_LOSS_LIMIT",
			fmt.Sprintf("day realized %.2f <= limit -%.2f", exp.DayRealized, lim.MaxDailyLoss))
	}

	return a
}
