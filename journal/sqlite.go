package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores fills in a local SQLite database. SQLite commits each
// INSERT before Exec returns, which satisfies the durability contract
// without extra flushing.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordFill(rec Fill) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(id, time, symbol, action, quantity, price, total, order_id, status, profit, profit_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time, rec.Symbol, string(rec.Action), rec.Quantity, rec.Price,
		rec.Total, rec.OrderID, string(rec.Status), nullF(rec.Profit), nullF(rec.ProfitPct),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func nullF(x *float64) sql.NullFloat64 {
	if x == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *x, Valid: true}
}
