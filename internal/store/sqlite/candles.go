// Package sqlite is the local candle store: a history source over
// previously seen windows, the backfill target for fallback loads, and
// the settings store behind the persistence port.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"tradevision/internal/model"
)

// Store holds candle history and dashboard settings in a single SQLite
// database. Safe for one writer; reads go through the same pool.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database with WAL mode and the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", dbPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol   TEXT    NOT NULL,
			interval TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     REAL    NOT NULL,
			high     REAL    NOT NULL,
			low      REAL    NOT NULL,
			close    REAL    NOT NULL,
			volume   REAL,
			PRIMARY KEY (symbol, interval, ts)
		);

		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Name() string { return "sqlite" }

// History reads the most recent candle window for (symbol, interval).
// Timestamps come back in epoch milliseconds; ordering is left to the
// history loader's normalizer.
func (s *Store) History(ctx context.Context, q model.HistoryQuery) ([]model.RawCandle, error) {
	query := `
		SELECT ts, open, high, low, close, COALESCE(volume, 0)
		FROM candles
		WHERE symbol = ? AND interval = ?`
	args := []interface{}{q.Symbol, q.Interval}
	if q.StartTime > 0 {
		query += " AND ts >= ?"
		args = append(args, q.StartTime)
	}
	if q.EndTime > 0 {
		query += " AND ts <= ?"
		args = append(args, q.EndTime)
	}
	query += " ORDER BY ts DESC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	var raw []model.RawCandle
	for rows.Next() {
		var ts int64
		var c model.RawCandle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candle: %w", err)
		}
		c.Timestamp = float64(ts)
		raw = append(raw, c)
	}
	return raw, rows.Err()
}

// WriteCandles upserts a normalized candle batch in one transaction.
func (s *Store) WriteCandles(ctx context.Context, symbol, tf string, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO candles (symbol, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, interval, ts) DO UPDATE SET
			open = excluded.open, high = excluded.high,
			low = excluded.low, close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(symbol, tf, c.Time*1000, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite upsert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
