// Package store persists processed calls and run summaries to SQLite. It
// backs the dashboard API; the CSV output does not depend on it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Call is a flattened per-call row. Record carries the full merged record
// as JSON for consumers that need columns beyond the indexed ones.
type Call struct {
	ID             int64   `json:"id"`
	RunID          int64   `json:"run_id"`
	CallID         string  `json:"call_id"`
	Language       string  `json:"language"`
	Status         string  `json:"status"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	Intent         string  `json:"intent"`
	IssueCategory  string  `json:"issue_category"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	IsLead         bool    `json:"is_lead"`
	Priority       string  `json:"priority"`
	Urgency        string  `json:"urgency"`
	CarModel       string  `json:"car_model"`
	Record         string  `json:"record,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// Run is a row in the runs table.
type Run struct {
	ID         int64  `json:"id"`
	Source     string `json:"source"`
	Total      int    `json:"total"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// Stats aggregates the processed calls for the dashboard.
type Stats struct {
	Total           int            `json:"total"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	Leads           int            `json:"leads"`
	HighPriority    int            `json:"high_priority"`
	Sentiments      map[string]int `json:"sentiments"`
	IssueCategories map[string]int `json:"issue_categories"`
}

// Store wraps the SQLite database for all callsight persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a batch run and returns its ID.
func (s *Store) BeginRun(ctx context.Context, source string, total int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (source, total) VALUES (?, ?)`, source, total)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps a run's completion and its final counters.
func (s *Store) FinishRun(ctx context.Context, runID int64, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET succeeded = ?, failed = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		succeeded, failed, runID)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	return nil
}

// LogCall inserts one processed call.
func (s *Store) LogCall(ctx context.Context, c Call) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calls (run_id, call_id, language, status, error_message,
			intent, issue_category, sentiment, sentiment_score, is_lead,
			priority, urgency, car_model, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.CallID, c.Language, c.Status, c.ErrorMessage,
		c.Intent, c.IssueCategory, c.Sentiment, c.SentimentScore, c.IsLead,
		c.Priority, c.Urgency, c.CarModel, c.Record)
	if err != nil {
		return fmt.Errorf("inserting call: %w", err)
	}
	return nil
}

// ListCalls returns the most recently processed calls, newest first.
func (s *Store) ListCalls(ctx context.Context, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, call_id, language, status, COALESCE(error_message, ''),
			COALESCE(intent, ''), COALESCE(issue_category, ''), COALESCE(sentiment, ''),
			sentiment_score, is_lead, COALESCE(priority, ''), COALESCE(urgency, ''),
			COALESCE(car_model, ''), COALESCE(record, ''), created_at
		FROM calls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	var calls []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.ID, &c.RunID, &c.CallID, &c.Language, &c.Status,
			&c.ErrorMessage, &c.Intent, &c.IssueCategory, &c.Sentiment,
			&c.SentimentScore, &c.IsLead, &c.Priority, &c.Urgency,
			&c.CarModel, &c.Record, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning call: %w", err)
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(source, ''), total, succeeded, failed,
			started_at, COALESCE(finished_at, '')
		FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Total, &r.Succeeded, &r.Failed,
			&r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunStats aggregates all processed calls.
func (s *Store) RunStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		Sentiments:      make(map[string]int),
		IssueCategories: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status != 'success' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(is_lead), 0),
			COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0)
		FROM calls`).
		Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &stats.Leads, &stats.HighPriority)
	if err != nil {
		return nil, fmt.Errorf("aggregating calls: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sentiment, COUNT(*) FROM calls WHERE sentiment != '' GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("aggregating sentiments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		stats.Sentiments[k] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := s.db.QueryContext(ctx,
		`SELECT issue_category, COUNT(*) FROM calls WHERE issue_category != '' GROUP BY issue_category`)
	if err != nil {
		return nil, fmt.Errorf("aggregating categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var k string
		var n int
		if err := catRows.Scan(&k, &n); err != nil {
			return nil, err
		}
		stats.IssueCategories[k] = n
	}
	return stats, catRows.Err()
}
