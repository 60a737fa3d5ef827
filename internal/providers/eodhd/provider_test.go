package eodhd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moneymitra/moneymitra/internal/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(WithBaseURL(srv.URL))
	if err := p.Init(map[string]string{credAPIToken: "demo"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p, srv
}

func TestInitRequiresToken(t *testing.T) {
	p := New()
	err := p.Init(nil)
	var ic *provider.ErrInvalidCredentials
	if !errors.As(err, &ic) {
		t.Fatalf("expected credential error, got %v", err)
	}
}

func TestQuoteFetchBuildsSymbolAndToken(t *testing.T) {
	var gotURL string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"code":"RELIANCE.NSE","close":2950.5,"change_p":1.2}`))
	})

	payload, err := p.Fetcher(provider.KindQuote).Fetch(context.Background(),
		provider.QueryParams{provider.ParamTicker: "NSE:RELIANCE"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotURL != "/api/real-time/RELIANCE.NSE?api_token=demo&fmt=json" {
		t.Errorf("unexpected URL %q", gotURL)
	}
	if payload.Ticker != "NSE:RELIANCE" {
		t.Errorf("ticker: got %q", payload.Ticker)
	}
}

func TestFundamentalsSharedAcrossFetchers(t *testing.T) {
	calls := 0
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"General":{"Name":"Reliance Industries"},"Financials":{}}`))
	})

	params := provider.QueryParams{provider.ParamTicker: "NSE:RELIANCE"}
	ctx := context.Background()
	if _, err := p.Fetcher(provider.KindProfile).Fetch(ctx, params); err != nil {
		t.Fatalf("profile: %v", err)
	}
	if _, err := p.Fetcher(provider.KindIncomeStatement).Fetch(ctx, params); err != nil {
		t.Fatalf("income: %v", err)
	}
	if _, err := p.Fetcher(provider.KindBalanceSheet).Fetch(ctx, params); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if calls != 1 {
		t.Errorf("fundamentals document should be fetched once, got %d calls", calls)
	}
}

func TestEmptyFundamentalsIsSymbolNotFound(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := p.Fetcher(provider.KindProfile).Fetch(context.Background(),
		provider.QueryParams{provider.ParamTicker: "NSE:NOPE"})
	if !errors.Is(err, provider.ErrSymbolNotFound) {
		t.Fatalf("expected symbol-not-found, got %v", err)
	}
}

func TestHistoricalDateRangeInURL(t *testing.T) {
	var gotURL string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`[{"date":"2025-01-02","open":1,"high":2,"low":1,"close":2,"volume":100}]`))
	})

	_, err := p.Fetcher(provider.KindHistorical).Fetch(context.Background(), provider.QueryParams{
		provider.ParamTicker:    "NASDAQ:AAPL",
		provider.ParamStartDate: "2025-01-01",
		provider.ParamEndDate:   "2025-02-01",
	})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := "/api/eod/AAPL.US?api_token=demo&period=d&from=2025-01-01&to=2025-02-01&fmt=json"
	if gotURL != want {
		t.Errorf("URL:\n got %q\nwant %q", gotURL, want)
	}
}

func TestRateLimitedMapsToTaxonomy(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := p.Fetcher(provider.KindQuote).Fetch(context.Background(),
		provider.QueryParams{provider.ParamTicker: "NSE:TCS"})
	if !errors.Is(err, provider.ErrRateLimited) {
		t.Fatalf("expected rate-limited, got %v", err)
	}
}
