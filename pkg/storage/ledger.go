// Package storage keeps an optional SQLite ledger of ADTP connections.
// Only connection metadata is stored; keys and message content never are.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var ErrLedgerClosed = errors.New("ledger closed")

// Outcome of a connection that has not closed yet
const OutcomeOpen = "open"

// ConnectionRecord is one row of the ledger
type ConnectionRecord struct {
	SessionID   string `json:"session_id"`
	Remote      string `json:"remote"`
	Mode        string `json:"mode"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	OpenedAt    int64  `json:"opened_at"`
	ClosedAt    int64  `json:"closed_at,omitempty"`
}

// Ledger records connection open and close events
type Ledger struct {
	db        *sql.DB
	retention time.Duration
	log       *zap.Logger

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// OpenLedger opens or creates the ledger at path. ":memory:" gives a
// private in-memory ledger. A positive retention prunes closed records
// older than it once an hour.
func OpenLedger(path string, retention time.Duration, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if path == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	l := &Ledger{
		db:        db,
		retention: retention,
		log:       logger,
		stop:      make(chan struct{}),
	}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if retention > 0 {
		l.wg.Add(1)
		go l.pruneLoop(time.Hour)
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS connections (
		session_id TEXT PRIMARY KEY,
		remote TEXT NOT NULL,
		mode TEXT NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL DEFAULT 'open',
		error TEXT NOT NULL DEFAULT '',
		opened_at INTEGER NOT NULL,
		closed_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_connections_opened ON connections(opened_at);
	CREATE INDEX IF NOT EXISTS idx_connections_outcome ON connections(outcome);
	`

	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// RecordOpen inserts a connection. Recording the same session twice is a no-op.
func (l *Ledger) RecordOpen(id, remote, mode, fingerprint string, at time.Time) error {
	query := `
		INSERT OR IGNORE INTO connections (session_id, remote, mode, fingerprint, outcome, opened_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := l.db.Exec(query, id, remote, mode, fingerprint, OutcomeOpen, at.Unix()); err != nil {
		return fmt.Errorf("failed to record connection: %w", err)
	}
	return nil
}

// RecordClose marks a connection closed
func (l *Ledger) RecordClose(id, outcome, errText string, at time.Time) error {
	query := `UPDATE connections SET outcome = ?, error = ?, closed_at = ? WHERE session_id = ?`

	result, err := l.db.Exec(query, outcome, errText, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record close: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to record close: unknown session %s", id)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (l *Ledger) Recent(limit int) ([]*ConnectionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT session_id, remote, mode, fingerprint, outcome, error, opened_at, closed_at
		FROM connections
		ORDER BY opened_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := l.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}
	defer rows.Close()

	var records []*ConnectionRecord
	for rows.Next() {
		rec := &ConnectionRecord{}
		if err := rows.Scan(&rec.SessionID, &rec.Remote, &rec.Mode, &rec.Fingerprint,
			&rec.Outcome, &rec.Error, &rec.OpenedAt, &rec.ClosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Counts returns the number of records per outcome
func (l *Ledger) Counts() (map[string]int, error) {
	rows, err := l.db.Query(`SELECT outcome, COUNT(*) FROM connections GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count connections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// Prune deletes closed records that closed before cutoff
func (l *Ledger) Prune(cutoff time.Time) (int64, error) {
	query := `DELETE FROM connections WHERE outcome != ? AND closed_at > 0 AND closed_at < ?`

	result, err := l.db.Exec(query, OutcomeOpen, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune connections: %w", err)
	}
	return result.RowsAffected()
}

func (l *Ledger) pruneLoop(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := l.Prune(time.Now().Add(-l.retention))
			if err != nil {
				l.log.Warn("Ledger prune failed", zap.Error(err))
				continue
			}
			if n > 0 {
				l.log.Info("Pruned ledger records", zap.Int64("count", n))
			}
		case <-l.stop:
			return
		}
	}
}

// Close stops background pruning and closes the database
func (l *Ledger) Close() error {
	err := ErrLedgerClosed
	l.closeOnce.Do(func() {
		close(l.stop)
		l.wg.Wait()
		err = l.db.Close()
	})
	return err
}
