// Package sqlite persists bar snapshots, one durable row per
// (symbol, timeframe, timestamp). Inserts are idempotent: an existing row
// for the same key triple is left untouched, never updated.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"marketpulse/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the snapshot store.
type Config struct {
	Path string // path to the SQLite database file, e.g. "data/market.db"
}

// Store is a single-writer SQLite store for bar snapshots.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// New opens (or creates) the database with WAL mode and the snapshot schema.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer connection pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.Path)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			symbol    TEXT    NOT NULL,
			timeframe TEXT    NOT NULL,
			ts        INTEGER NOT NULL,
			open      REAL    NOT NULL,
			high      REAL    NOT NULL,
			low       REAL    NOT NULL,
			close     REAL    NOT NULL,
			volume    REAL    NOT NULL,
			PRIMARY KEY (symbol, timeframe, ts)
		);
	`)
	return err
}

// InsertBars inserts bars in a single transaction. INSERT OR IGNORE keeps
// the operation idempotent under repeated polls of overlapping windows.
func (s *Store) InsertBars(ctx context.Context, symbol string, tf model.Timeframe, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO snapshots (symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, string(tf), b.TS.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LatestN returns the most recent limit bars for the pair in ascending
// timestamp order. Used as the cold-start fallback when the cache misses.
func (s *Store) LatestN(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM snapshots
		WHERE symbol = ? AND timeframe = ?
		ORDER BY ts DESC
		LIMIT ?
	`, symbol, string(tf), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return nil, err
	}

	// Reverse DESC scan to chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// BarsSince returns all bars strictly after the watermark timestamp, in
// ascending order. Used by the direct table-poll ingestion source.
func (s *Store) BarsSince(ctx context.Context, symbol string, tf model.Timeframe, after time.Time) ([]model.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM snapshots
		WHERE symbol = ? AND timeframe = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, string(tf), after.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBars(rows)
}

func scanBars(rows *sql.Rows) ([]model.Bar, error) {
	var bars []model.Bar
	for rows.Next() {
		var ts int64
		var b model.Bar
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.TS = time.Unix(ts, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
