package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal appends fills to a single CSV file. The file is opened in
// append mode and each record is flushed and fsynced before RecordFill
// returns, so a crash right after a fill cannot lose it.
type CSVJournal struct {
	w *csv.Writer
	f *os.File
}

var csvHeader = []string{
	"id", "time", "symbol", "action", "quantity", "price",
	"total", "order_id", "status", "profit", "profit_pct",
}

func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVJournal{w: w, f: f}, nil
}

func (j *CSVJournal) RecordFill(rec Fill) error {
	err := j.w.Write([]string{
		rec.ID,
		rec.Time.Format(time.RFC3339),
		rec.Symbol,
		string(rec.Action),
		f(rec.Quantity),
		f(rec.Price),
		f(rec.Total),
		rec.OrderID,
		string(rec.Status),
		optF(rec.Profit),
		optF(rec.ProfitPct),
	})
	if err != nil {
		return err
	}

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Sync()
}

func (j *CSVJournal) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// optF renders absent profit fields as blank rather than zero so a missing
// value stays distinguishable from a break-even trade.
func optF(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}
