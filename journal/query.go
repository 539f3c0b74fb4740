package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetFillByOrder returns the fill recorded for an exchange order id.
func (j *SQLite) GetFillByOrder(orderID string) (Fill, error) {
	row := j.db.QueryRow(`
		SELECT id, time, symbol, action, quantity, price, total, order_id, status, profit, profit_pct
		FROM fills
		WHERE order_id = ?`, orderID)

	rec, err := scanFill(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Fill{}, fmt.Errorf("no fill for order %q", orderID)
		}
		return Fill{}, err
	}
	return rec, nil
}

// ListFillsBetween returns fills whose time is within [start, end), oldest
// first.
func (j *SQLite) ListFillsBetween(start, end time.Time) ([]Fill, error) {
	rows, err := j.db.Query(`
		SELECT id, time, symbol, action, quantity, price, total, order_id, status, profit, profit_pct
		FROM fills
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fill
	for rows.Next() {
		rec, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListFillsBySymbol returns every fill for a symbol, oldest first.
func (j *SQLite) ListFillsBySymbol(symbol string) ([]Fill, error) {
	rows, err := j.db.Query(`
		SELECT id, time, symbol, action, quantity, price, total, order_id, status, profit, profit_pct
		FROM fills
		WHERE symbol = ?
		ORDER BY time ASC`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fill
	for rows.Next() {
		rec, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DaySummary aggregates realized profit over successful sells in
// [start, end).
type DaySummary struct {
	Fills          int
	Sells          int
	RealizedProfit float64
}

func (j *SQLite) SummarizeDay(start, end time.Time) (DaySummary, error) {
	var s DaySummary
	err := j.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN action != 'BUY' THEN 1 END),
		       COALESCE(SUM(CASE WHEN action != 'BUY' THEN profit END), 0)
		FROM fills
		WHERE time >= ? AND time < ? AND status = 'SUCCESS'`, start, end).
		Scan(&s.Fills, &s.Sells, &s.RealizedProfit)
	if err != nil {
		return DaySummary{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFill(row rowScanner) (Fill, error) {
	var (
		rec       Fill
		action    string
		status    string
		profit    sql.NullFloat64
		profitPct sql.NullFloat64
	)

	err := row.Scan(
		&rec.ID,
		&rec.Time,
		&rec.Symbol,
		&action,
		&rec.Quantity,
		&rec.Price,
		&rec.Total,
		&rec.OrderID,
		&status,
		&profit,
		&profitPct,
	)
	if err != nil {
		return Fill{}, err
	}

	rec.Action = Action(action)
	rec.Status = Status(status)
	if profit.Valid {
		v := profit.Float64
		rec.Profit = &v
	}
	if profitPct.Valid {
		v := profitPct.Float64
		rec.ProfitPct = &v
	}
	return rec, nil
}
