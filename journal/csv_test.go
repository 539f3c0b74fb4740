package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	header, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, csvHeader, header)
}

func TestCSVRecordFill(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	profit := 1.5
	profitPct := 0.0075

	err = j.RecordFill(Fill{
		ID:        "F1",
		Time:      ts,
		Symbol:    "BTC-USD",
		Action:    ActionSell,
		Quantity:  2.0,
		Price:     106.106,
		Total:     212.212,
		OrderID:   "ord-9",
		Status:    StatusSuccess,
		Profit:    &profit,
		ProfitPct: &profitPct,
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	_, err = r.Read() // header
	require.NoError(t, err)
	row, err := r.Read()
	require.NoError(t, err)

	want := []string{
		"F1",
		ts.Format(time.RFC3339),
		"BTC-USD",
		"SELL",
		"2.000000",
		"106.106000",
		"212.212000",
		"ord-9",
		"SUCCESS",
		"1.500000",
		"0.007500",
	}
	assert.Equal(t, want, row)
}

func TestCSVMissingProfitIsBlank(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)

	// A sell without profit fields must still record.
	err = j.RecordFill(Fill{
		ID:       "F1",
		Time:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Symbol:   "BTC-USD",
		Action:   ActionSellStopLoss,
		Quantity: 1.0,
		Price:    95.0,
		Total:    95.0,
		Status:   StatusSuccess,
	})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	_, err = r.Read()
	require.NoError(t, err)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, "SELL_STOP_LOSS", row[3])
	assert.Equal(t, "", row[9])
	assert.Equal(t, "", row[10])
}

func TestCSVAppendsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordFill(Fill{ID: "F1", Time: ts, Symbol: "BTC-USD", Action: ActionBuy, Quantity: 1, Price: 100, Total: 100, Status: StatusSuccess}))
	require.NoError(t, j.Close())

	// Reopening must append, not truncate, and not repeat the header.
	j2, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j2.RecordFill(Fill{ID: "F2", Time: ts.Add(time.Minute), Symbol: "BTC-USD", Action: ActionBuy, Quantity: 1, Price: 101, Total: 101, Status: StatusSuccess}))
	require.NoError(t, j2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := csv.NewReader(strings.NewReader(string(data)))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "F1", rows[1][0])
	assert.Equal(t, "F2", rows[2][0])
}
