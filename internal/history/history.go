package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mailsift/mailsift/internal/classifier"
)

// Batch is one classified batch as stored on disk.
type Batch struct {
	ID              int64
	Source          string // "cli", "web", "demo", ...
	AutoUnsubscribe bool
	Total           int
	Marketing       int
	Important       int
	Unsubscribed    int
	CreatedAt       time.Time
}

// Totals aggregates everything ever classified.
type Totals struct {
	Batches      int
	Emails       int
	Marketing    int
	Important    int
	Unsubscribed int
}

type Store struct {
	db *sql.DB
}

func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".mailsift", "history.db")
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		auto_unsubscribe INTEGER NOT NULL DEFAULT 0,
		total INTEGER NOT NULL,
		marketing INTEGER NOT NULL,
		important INTEGER NOT NULL,
		unsubscribed INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_batches_created_at ON batches(created_at);

	-- One row per classified email, keyed to its batch
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id INTEGER NOT NULL REFERENCES batches(id),
		position INTEGER NOT NULL,
		email_id TEXT NOT NULL,
		sender TEXT,
		subject TEXT,
		date TEXT,
		classification TEXT NOT NULL,
		action TEXT NOT NULL,
		reason TEXT NOT NULL,
		unsubscribe_link TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_results_batch_id ON results(batch_id);
	CREATE INDEX IF NOT EXISTS idx_results_classification ON results(classification);
	`

	_, err := s.db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// AddBatch records one classified batch and its results in a single
// transaction, returning the batch id.
func (s *Store) AddBatch(source string, autoUnsubscribe bool, results []classifier.Result, stats classifier.Stats) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
	INSERT INTO batches (source, auto_unsubscribe, total, marketing, important, unsubscribed, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		source, autoUnsubscribe, stats.Total, stats.Marketing, stats.Important, stats.Unsubscribed, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}

	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get batch id: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO results (batch_id, position, email_id, sender, subject, date, classification, action, reason, unsubscribe_link)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.Exec(batchID, i, r.ID, r.From, r.Subject, r.Date, r.Classification, r.Action, r.Reason, r.UnsubscribeLink); err != nil {
			return 0, fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return batchID, nil
}

// GetRecentBatches returns the newest batches first.
func (s *Store) GetRecentBatches(limit int) ([]Batch, error) {
	rows, err := s.db.Query(`
	SELECT id, source, auto_unsubscribe, total, marketing, important, unsubscribed, created_at
	FROM batches ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var createdAt sql.NullTime
		if err := rows.Scan(&b.ID, &b.Source, &b.AutoUnsubscribe, &b.Total, &b.Marketing, &b.Important, &b.Unsubscribed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.CreatedAt = createdAt.Time
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatchResults returns a batch's results in classification order.
func (s *Store) GetBatchResults(batchID int64) ([]classifier.Result, error) {
	rows, err := s.db.Query(`
	SELECT email_id, sender, subject, date, classification, action, reason, unsubscribe_link
	FROM results WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []classifier.Result
	for rows.Next() {
		var r classifier.Result
		var sender, subject, date, link sql.NullString
		if err := rows.Scan(&r.ID, &sender, &subject, &date, &r.Classification, &r.Action, &r.Reason, &link); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.From = sender.String
		r.Subject = subject.String
		r.Date = date.String
		r.UnsubscribeLink = link.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetTotals returns the all-time counters.
func (s *Store) GetTotals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(`
	SELECT COUNT(*), COALESCE(SUM(total), 0), COALESCE(SUM(marketing), 0), COALESCE(SUM(important), 0), COALESCE(SUM(unsubscribed), 0)
	FROM batches`).Scan(&t.Batches, &t.Emails, &t.Marketing, &t.Important, &t.Unsubscribed)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to get totals: %w", err)
	}
	return t, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
