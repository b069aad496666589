package db

const (
	// SchemaV1 defines version 1 of the diary database schema.
	//
	// seq records insertion order and breaks ties between entries stamped with
	// the same date. date is stored as Unix microseconds.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS diary_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    date INTEGER NOT NULL,
    text TEXT NOT NULL,
    image BLOB,
    mood TEXT CHECK (mood IN ('bad', 'average', 'good')),
    location TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_date_seq ON entries (date, seq);
`
)
