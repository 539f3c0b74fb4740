package journal

const schema = `
CREATE TABLE IF NOT EXISTS fills (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	total REAL NOT NULL,
	order_id TEXT NOT NULL,
	status TEXT NOT NULL,
	profit REAL,
	profit_pct REAL
);

CREATE INDEX IF NOT EXISTS idx_fills_time ON fills(time);
CREATE INDEX IF NOT EXISTS idx_fills_symbol ON fills(symbol);
`
