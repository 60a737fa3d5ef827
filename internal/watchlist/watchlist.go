// Package watchlist persists the user's tracked tickers. The watchlist
// is a set: adding an existing ticker is a no-op that keeps the
// original AddedAt, removing an absent one reports nothing removed.
package watchlist

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// ErrNotFound is returned when a ticker is not on the watchlist.
var ErrNotFound = errors.New("ticker not on watchlist")

// Store is the watchlist persistence interface.
type Store interface {
	// Add inserts a ticker. Returns false (and leaves the entry intact)
	// when the ticker is already present.
	Add(ctx context.Context, entry models.WatchlistEntry) (bool, error)

	// Remove deletes a ticker. Returns ErrNotFound when absent.
	Remove(ctx context.Context, ticker string) error

	// List returns all entries sorted by ticker.
	List(ctx context.Context) ([]models.WatchlistEntry, error)

	// Contains reports whether a ticker is on the watchlist.
	Contains(ctx context.Context, ticker string) (bool, error)

	// Close releases the underlying resources.
	Close() error
}

// Memory is an in-memory Store for tests and ephemeral runs.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.WatchlistEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]models.WatchlistEntry)}
}

func (m *Memory) Add(_ context.Context, entry models.WatchlistEntry) (bool, error) {
	entry.Ticker = utils.NormalizeTicker(entry.Ticker)
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.Ticker]; exists {
		return false, nil
	}
	m.entries[entry.Ticker] = entry
	return true, nil
}

func (m *Memory) Remove(_ context.Context, ticker string) error {
	ticker = utils.NormalizeTicker(ticker)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[ticker]; !exists {
		return ErrNotFound
	}
	delete(m.entries, ticker)
	return nil
}

func (m *Memory) List(_ context.Context) ([]models.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.WatchlistEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (m *Memory) Contains(_ context.Context, ticker string) (bool, error) {
	ticker = utils.NormalizeTicker(ticker)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.entries[ticker]
	return exists, nil
}

func (m *Memory) Close() error { return nil }
