package ledger

import (
	"time"

	"github.com/rustyeddy/spotbot/costbasis"
	"github.com/rustyeddy/spotbot/pkg/id"
)

// Epsilon is the quantity tolerance below which a lot counts as fully
// consumed. Float allocation arithmetic never lands exactly on zero.
const Epsilon = 1e-6

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Lot is one buy fill's remaining inventory together with its own cost
// basis. Quantity and TotalCost are decremented as sells consume the
// lot; Fees and OriginalQuantity always refer to the original fill so
// partial sales can prorate against them.
type Lot struct {
	ID               string    `json:"id"`
	BuyPrice         float64   `json:"buyPrice"`
	Quantity         float64   `json:"quantity"`
	OriginalQuantity float64   `json:"originalQuantity"`
	Fees             float64   `json:"fees"`
	BreakEvenPrice   float64   `json:"breakEvenPrice"`
	TotalCost        float64   `json:"totalCost"`
	OrderID          string    `json:"orderId,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Status           Status    `json:"status"`
}

func newLot(price, quantity, feeRate float64, orderID string, ts time.Time) *Lot {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	fees := price * quantity * feeRate
	return &Lot{
		ID:               id.New(),
		BuyPrice:         price,
		Quantity:         quantity,
		OriginalQuantity: quantity,
		Fees:             fees,
		BreakEvenPrice:   costbasis.BreakEven(price, feeRate),
		TotalCost:        price*quantity + fees,
		OrderID:          orderID,
		Timestamp:        ts,
		Status:           StatusOpen,
	}
}

// Open reports whether the lot still has sellable quantity.
func (l *Lot) Open() bool {
	return l.Status == StatusOpen && l.Quantity > Epsilon
}
