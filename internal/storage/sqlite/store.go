package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hetulpatel/oracleai/internal/markets"
)

const (
	defaultPath = "data/oracle.db"

	// timeLayout is fixed width so text order in SQLite is chronological.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps a SQLite DB connection.
type Store struct {
	path string
	db   *sql.DB
}

// Open creates (if needed) and opens the SQLite database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := ensureWAL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func ensureWAL(db *sql.DB) error {
	const (
		maxAttempts = 5
		delay       = 200 * time.Millisecond
	)
	for i := 0; i < maxAttempts; i++ {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			if strings.Contains(err.Error(), "database is locked") {
				time.Sleep(delay)
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("database is locked after retries")
}

// Path returns the path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Close closes the DB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateTables ensures the market and attempt tables exist.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropTables removes both tables.
func (s *Store) DropTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS resolution_attempts; DROP TABLE IF EXISTS markets;`)
	return err
}

// ClearTables truncates both tables.
func (s *Store) ClearTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM resolution_attempts; DELETE FROM markets;`)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS markets (
	market_id INTEGER PRIMARY KEY,
	question TEXT,
	description TEXT,
	category TEXT,
	status TEXT,
	oracle_mode TEXT,
	total_pool TEXT,
	up_pool TEXT,
	down_pool TEXT,
	first_seen_at TEXT,
	last_seen_at TEXT
);
CREATE TABLE IF NOT EXISTS resolution_attempts (
	event_id TEXT PRIMARY KEY,
	cycle_id TEXT NOT NULL,
	market_id INTEGER NOT NULL,
	question TEXT,
	category TEXT,
	odds_up TEXT,
	outcome TEXT NOT NULL,
	confidence INTEGER NOT NULL,
	reasoning TEXT,
	sources_json TEXT,
	verification_json TEXT,
	prompt_hash TEXT,
	advisory_error TEXT,
	attempt INTEGER,
	submitted INTEGER NOT NULL,
	submit_error TEXT,
	dry_run INTEGER NOT NULL DEFAULT 0,
	resolved_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS resolution_attempts_market_idx ON resolution_attempts(market_id, resolved_at);
`

const upsertMarketSQL = `
INSERT INTO markets (
	market_id, question, description, category, status, oracle_mode,
	total_pool, up_pool, down_pool, first_seen_at, last_seen_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(market_id) DO UPDATE SET
	question = excluded.question,
	description = excluded.description,
	category = excluded.category,
	status = excluded.status,
	oracle_mode = excluded.oracle_mode,
	total_pool = excluded.total_pool,
	up_pool = excluded.up_pool,
	down_pool = excluded.down_pool,
	last_seen_at = excluded.last_seen_at
`

// UpsertMarkets records the latest view of every fetched market.
func (s *Store) UpsertMarkets(ctx context.Context, list []markets.Market) error {
	if len(list) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, upsertMarketSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeLayout)
	for _, m := range list {
		if _, err := stmt.ExecContext(ctx,
			m.ID,
			m.Question,
			m.Description,
			m.Category,
			string(m.Status),
			m.OracleMode,
			m.TotalPool.String(),
			m.UpPool.String(),
			m.DownPool.String(),
			now,
			now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert market %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// marketStatus returns the stored status for id, or "" when unseen.
func (s *Store) marketStatus(ctx context.Context, id uint64) (markets.Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM markets WHERE market_id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return markets.Status(status), nil
}
