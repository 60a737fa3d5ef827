package watchlist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/moneymitra/moneymitra/pkg/models"
)

// stores returns both implementations so every test runs against each.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSQLite(filepath.Join(t.TempDir(), "watchlist.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestAddIsSetSemantics(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := models.WatchlistEntry{Ticker: "RELIANCE", AddedAt: time.Unix(1000, 0), Note: "core holding"}

			added, err := store.Add(ctx, first)
			if err != nil || !added {
				t.Fatalf("first add: added=%v err=%v", added, err)
			}

			// Same ticker, different spelling: still a duplicate.
			added, err = store.Add(ctx, models.WatchlistEntry{Ticker: "NSE:RELIANCE", AddedAt: time.Unix(2000, 0)})
			if err != nil {
				t.Fatal(err)
			}
			if added {
				t.Error("duplicate add must report false")
			}

			entries, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0].AddedAt.Unix() != 1000 {
				t.Error("duplicate add must keep the original AddedAt")
			}
			if entries[0].Note != "core holding" {
				t.Error("duplicate add must keep the original note")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Add(ctx, models.WatchlistEntry{Ticker: "TCS"}); err != nil {
				t.Fatal(err)
			}
			if err := store.Remove(ctx, "NSE:TCS"); err != nil {
				t.Fatalf("remove: %v", err)
			}
			if err := store.Remove(ctx, "TCS"); !errors.Is(err, ErrNotFound) {
				t.Errorf("removing absent ticker: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestListSortedByTicker(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, tk := range []string{"TCS", "INFY", "RELIANCE"} {
				if _, err := store.Add(ctx, models.WatchlistEntry{Ticker: tk}); err != nil {
					t.Fatal(err)
				}
			}
			entries, err := store.List(ctx)
			if err != nil {
				t.Fatal(err)
			}
			want := []string{"NSE:INFY", "NSE:RELIANCE", "NSE:TCS"}
			if len(entries) != len(want) {
				t.Fatalf("got %d entries", len(entries))
			}
			for i, w := range want {
				if entries[i].Ticker != w {
					t.Errorf("entries[%d]: got %q want %q", i, entries[i].Ticker, w)
				}
			}
		})
	}
}

func TestContains(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Add(ctx, models.WatchlistEntry{Ticker: "HDFCBANK"}); err != nil {
				t.Fatal(err)
			}
			ok, err := store.Contains(ctx, "HDFC BANK") // alias resolves to HDFCBANK
			if err != nil || !ok {
				t.Errorf("Contains(alias): ok=%v err=%v", ok, err)
			}
			ok, err = store.Contains(ctx, "WIPRO")
			if err != nil || ok {
				t.Errorf("Contains(absent): ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.db")
	ctx := context.Background()

	s1, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Add(ctx, models.WatchlistEntry{Ticker: "RELIANCE", Note: "long term"}); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	entries, err := s2.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Ticker != "NSE:RELIANCE" || entries[0].Note != "long term" {
		t.Errorf("persisted entries: %+v", entries)
	}
}
