package store

// schemaSQL is the DDL for the run database backing the dashboard.
const schemaSQL = `
-- One row per batch run
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY,
    source TEXT,
    total INTEGER DEFAULT 0,
    succeeded INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

-- One row per processed call, flattened key fields plus the full record
CREATE TABLE IF NOT EXISTS calls (
    id INTEGER PRIMARY KEY,
    run_id INTEGER REFERENCES runs(id) ON DELETE CASCADE,
    call_id TEXT NOT NULL,
    language TEXT,
    status TEXT NOT NULL,
    error_message TEXT,
    intent TEXT,
    issue_category TEXT,
    sentiment TEXT,
    sentiment_score REAL DEFAULT 0,
    is_lead INTEGER DEFAULT 0,
    priority TEXT,
    urgency TEXT,
    car_model TEXT,
    record JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_calls_run ON calls(run_id);
CREATE INDEX IF NOT EXISTS idx_calls_status ON calls(status);
CREATE INDEX IF NOT EXISTS idx_calls_sentiment ON calls(sentiment);
CREATE INDEX IF NOT EXISTS idx_calls_priority ON calls(priority);
`
