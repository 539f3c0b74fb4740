// Package journal is the append-only record of every fill the bot
// executes. Records are durable before RecordFill returns and are never
// mutated or deleted; the journal is the audit trail for reconciling
// exchange-reported fills against local profit accounting.
package journal

import "time"

type Action string

const (
	ActionBuy          Action = "BUY"
	ActionSell         Action = "SELL"
	ActionSellStopLoss Action = "SELL_STOP_LOSS"
)

type Status string

const (
	StatusSuccess       Status = "SUCCESS"
	StatusFailed        Status = "FAILED"
	StatusFailedMinSize Status = "FAILED_MIN_SIZE"
)

// Fill is one journal entry. Profit and ProfitPct are only meaningful on
// sells and are pointers so a sell whose profit calculation failed can
// still be recorded; losing a fill over a side error is never acceptable.
type Fill struct {
	ID        string
	Time      time.Time
	Symbol    string
	Action    Action
	Quantity  float64
	Price     float64
	Total     float64
	OrderID   string
	Status    Status
	Profit    *float64
	ProfitPct *float64
}

type Journal interface {
	RecordFill(Fill) error
	Close() error
}
