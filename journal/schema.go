package journal

const Schema = `
CREATE TABLE IF NOT EXISTS fetches (
	fetch_id TEXT PRIMARY KEY,
	provider TEXT NOT NULL,
	name TEXT NOT NULL,
	symbol TEXT NOT NULL,
	days INTEGER NOT NULL,
	points INTEGER NOT NULL,
	started DATETIME NOT NULL,
	duration_ms INTEGER NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_fetches_started ON fetches(started);
CREATE INDEX IF NOT EXISTS idx_fetches_symbol ON fetches(symbol);
`
