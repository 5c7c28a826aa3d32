package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TrendScreener/internal/model"
)

// SQLiteStore persists fetched bars to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite price cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL,
			high    REAL,
			low     REAL,
			close   REAL,
			volume  REAL,
			PRIMARY KEY (symbol, ts)
		)`,

		`CREATE TABLE IF NOT EXISTS fetches (
			symbol       TEXT PRIMARY KEY,
			fetched_at   INTEGER NOT NULL,
			lookback_sec INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, symbol string) (*Entry, error) {
	var fetchedAt, lookbackSec int64
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, lookback_sec FROM fetches WHERE symbol = ?`, symbol,
	).Scan(&fetchedAt, &lookbackSec)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fetch %s: %w", symbol, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, open, high, low, close, volume FROM bars WHERE symbol = ? ORDER BY ts`, symbol)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	defer rows.Close()

	e := &Entry{
		Symbol:    symbol,
		FetchedAt: time.Unix(fetchedAt, 0),
		Lookback:  time.Duration(lookbackSec) * time.Second,
	}
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar %s: %w", symbol, err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		e.Bars = append(e.Bars, b)
	}
	return e, rows.Err()
}

// Save replaces the cached history of e.Symbol.
func (s *SQLiteStore) Save(ctx context.Context, e *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bars WHERE symbol = ?`, e.Symbol); err != nil {
		return fmt.Errorf("clear bars %s: %w", e.Symbol, err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bars
		(symbol, ts, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for _, b := range e.Bars {
		if _, err := stmt.ExecContext(ctx, e.Symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar %s: %w", e.Symbol, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO fetches (symbol, fetched_at, lookback_sec)
		VALUES (?,?,?)`, e.Symbol, e.FetchedAt.Unix(), int64(e.Lookback/time.Second)); err != nil {
		return fmt.Errorf("record fetch %s: %w", e.Symbol, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite price cache")
	return s.db.Close()
}
