package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileState is the on-disk shape of a ledger. The positions array preserves
// insertion order, which is the FIFO consumption order.
type fileState struct {
	Symbol      string    `json:"symbol"`
	LastUpdated time.Time `json:"lastUpdated"`
	Positions   []*Lot    `json:"positions"`
}

// loadState reads and validates the persisted ledger. A missing file is a
// clean start (nil slice, nil error); a malformed file or a symbol mismatch
// is returned as an error for the recovery policy to deal with.
func loadState(path, symbol string) ([]*Lot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if st.Symbol != symbol {
		return nil, fmt.Errorf("%s holds symbol %q, want %q", path, st.Symbol, symbol)
	}

	open := st.Positions[:0]
	for _, lot := range st.Positions {
		if lot.Open() {
			open = append(open, lot)
		}
	}
	return open, nil
}

// save writes the full ledger through a temp file and an atomic rename so a
// crash mid-write can never leave a torn state file. The temp file is
// fsynced before the rename; durability before return is the contract every
// mutation relies on.
func (l *Ledger) save() error {
	st := fileState{
		Symbol:      l.symbol,
		LastUpdated: time.Now().UTC(),
		Positions:   l.lots,
	}
	if st.Positions == nil {
		st.Positions = []*Lot{}
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("write temp ledger file: %w", werr)
		}
		return fmt.Errorf("close temp ledger file: %w", cerr)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
