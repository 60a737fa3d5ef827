package watchlist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the watchlist database and runs
// migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the HTTP API can read while the CLI writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS watchlist (
		ticker   TEXT PRIMARY KEY,
		added_at INTEGER NOT NULL,
		note     TEXT NOT NULL DEFAULT ''
	)`)
	return err
}

// Add inserts a ticker; the unique primary key gives set semantics.
func (s *SQLite) Add(ctx context.Context, entry models.WatchlistEntry) (bool, error) {
	entry.Ticker = utils.NormalizeTicker(entry.Ticker)
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist (ticker, added_at, note) VALUES (?, ?, ?)
		 ON CONFLICT(ticker) DO NOTHING`,
		entry.Ticker, entry.AddedAt.Unix(), entry.Note,
	)
	if err != nil {
		return false, fmt.Errorf("insert watchlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) Remove(ctx context.Context, ticker string) error {
	ticker = utils.NormalizeTicker(ticker)
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist WHERE ticker = ?`, ticker)
	if err != nil {
		return fmt.Errorf("delete watchlist: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]models.WatchlistEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker, added_at, note FROM watchlist ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var out []models.WatchlistEntry
	for rows.Next() {
		var e models.WatchlistEntry
		var addedAt int64
		if err := rows.Scan(&e.Ticker, &addedAt, &e.Note); err != nil {
			return nil, err
		}
		e.AddedAt = time.Unix(addedAt, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) Contains(ctx context.Context, ticker string) (bool, error) {
	ticker = utils.NormalizeTicker(ticker)
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM watchlist WHERE ticker = ?`, ticker).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
