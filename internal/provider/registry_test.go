package provider

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeFetcher returns canned results in sequence, then repeats the last.
type fakeFetcher struct {
	BaseFetcher
	results []error
	calls   int
	payload *RawPayload
}

func newFakeFetcher(kind DataKind, results ...error) *fakeFetcher {
	return &fakeFetcher{
		BaseFetcher: NewBaseFetcher(kind, "fake", []string{ParamTicker}, nil, nil),
		results:     results,
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, params QueryParams) (*RawPayload, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	if err := f.results[i]; err != nil {
		return nil, err
	}
	if f.payload != nil {
		return f.payload, nil
	}
	return &RawPayload{Kind: f.Kind(), Ticker: params[ParamTicker], FetchedAt: time.Now()}, nil
}

func newFakeProvider(name string, fetchers ...Fetcher) Provider {
	p := &fakeProvider{NewBaseProvider(name, "fake provider", "", nil)}
	for _, f := range fetchers {
		p.RegisterFetcher(f)
	}
	return p
}

type fakeProvider struct{ BaseProvider }

func (p *fakeProvider) Init(credentials map[string]string) error {
	return p.SetCredentials(credentials)
}

func (p *fakeProvider) Ping(ctx context.Context) error { return nil }

func fastRegistry() *Registry {
	r := NewRegistry()
	r.SetRetryPolicy(RetryPolicy{Budget: 3, Initial: time.Millisecond, Max: 4 * time.Millisecond})
	return r
}

func TestFetchUsesPriorityOrder(t *testing.T) {
	first := newFakeFetcher(KindQuote, nil)
	second := newFakeFetcher(KindQuote, nil)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", first))
	r.Register(newFakeProvider("beta", second))
	r.SetOrder([]string{"beta", "alpha"})

	payload, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:RELIANCE"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Provider != "beta" {
		t.Errorf("expected beta to serve the request, got %q", payload.Provider)
	}
	if first.calls != 0 {
		t.Errorf("alpha should not have been called, got %d calls", first.calls)
	}
}

func TestFetchFallsBackOnFailure(t *testing.T) {
	broken := newFakeFetcher(KindQuote, ErrProviderUnavailable)
	working := newFakeFetcher(KindQuote, nil)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", broken))
	r.Register(newFakeProvider("beta", working))

	payload, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:TCS"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Provider != "beta" {
		t.Errorf("expected fallback to beta, got %q", payload.Provider)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	flaky := newFakeFetcher(KindQuote, ErrRateLimited, ErrRateLimited, nil)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", flaky))

	_, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:INFY"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if flaky.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", flaky.calls)
	}
}

func TestFetchExhaustsRetryBudget(t *testing.T) {
	throttled := newFakeFetcher(KindQuote, ErrRateLimited)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", throttled))

	_, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:INFY"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
	// Budget of 3 retries means 4 attempts total.
	if throttled.calls != 4 {
		t.Errorf("expected 4 attempts, got %d", throttled.calls)
	}
}

func TestRetryBudgetSharedAcrossProviders(t *testing.T) {
	a := newFakeFetcher(KindQuote, ErrProviderUnavailable)
	b := newFakeFetcher(KindQuote, ErrProviderUnavailable)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", a))
	r.Register(newFakeProvider("beta", b))

	_, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:INFY"})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected provider-unavailable error, got %v", err)
	}
	// 3 retries total across both providers, plus one initial attempt each.
	if total := a.calls + b.calls; total != 5 {
		t.Errorf("expected 5 attempts across providers, got %d (alpha=%d beta=%d)", total, a.calls, b.calls)
	}
}

func TestSymbolNotFoundFallsThroughWithoutRetry(t *testing.T) {
	missing := newFakeFetcher(KindQuote, ErrSymbolNotFound)
	working := newFakeFetcher(KindQuote, nil)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", missing))
	r.Register(newFakeProvider("beta", working))

	payload, err := r.Fetch(context.Background(), KindQuote, QueryParams{ParamTicker: "NSE:OBSCURE"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if payload.Provider != "beta" {
		t.Errorf("expected beta, got %q", payload.Provider)
	}
	if missing.calls != 1 {
		t.Errorf("symbol-not-found must not be retried, got %d calls", missing.calls)
	}
}

func TestFetchExplicitProviderSkipsFallback(t *testing.T) {
	broken := newFakeFetcher(KindQuote, ErrProviderUnavailable)
	working := newFakeFetcher(KindQuote, nil)

	r := fastRegistry()
	r.Register(newFakeProvider("alpha", broken))
	r.Register(newFakeProvider("beta", working))

	_, err := r.Fetch(context.Background(), KindQuote, QueryParams{
		ParamTicker:   "NSE:TCS",
		ParamProvider: "alpha",
	})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected alpha's failure without fallback, got %v", err)
	}
	if working.calls != 0 {
		t.Errorf("beta must not be tried when alpha is explicitly requested")
	}
}

func TestFetchMissingParam(t *testing.T) {
	r := fastRegistry()
	r.Register(newFakeProvider("alpha", newFakeFetcher(KindQuote, nil)))

	_, err := r.Fetch(context.Background(), KindQuote, QueryParams{})
	var mp *ErrMissingParam
	if !errors.As(err, &mp) {
		t.Fatalf("expected missing-param error, got %v", err)
	}
	if mp.Param != ParamTicker {
		t.Errorf("expected missing %q, got %q", ParamTicker, mp.Param)
	}
}

func TestFetchCancellation(t *testing.T) {
	throttled := newFakeFetcher(KindQuote, ErrRateLimited)

	r := NewRegistry()
	r.SetRetryPolicy(RetryPolicy{Budget: 10, Initial: time.Second, Max: time.Second})
	r.Register(newFakeProvider("alpha", throttled))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Fetch(ctx, KindQuote, QueryParams{ParamTicker: "NSE:INFY"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestSetOrderIgnoresUnknownAndAppendsMissing(t *testing.T) {
	r := fastRegistry()
	r.Register(newFakeProvider("alpha", newFakeFetcher(KindQuote, nil)))
	r.Register(newFakeProvider("beta", newFakeFetcher(KindQuote, nil)))
	r.Register(newFakeProvider("gamma", newFakeFetcher(KindQuote, nil)))

	r.SetOrder([]string{"gamma", "nope", "alpha"})

	got := r.Order()
	want := []string{"gamma", "alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("order length: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d]: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestBackoffIsCapped(t *testing.T) {
	p := RetryPolicy{Budget: 10, Initial: time.Second, Max: 4 * time.Second}
	if d := p.backoff(0); d != time.Second {
		t.Errorf("attempt 0: got %s", d)
	}
	if d := p.backoff(1); d != 2*time.Second {
		t.Errorf("attempt 1: got %s", d)
	}
	if d := p.backoff(5); d != 4*time.Second {
		t.Errorf("attempt 5 should be capped: got %s", d)
	}
}

func TestProvidersForFiltersByKind(t *testing.T) {
	r := fastRegistry()
	r.Register(newFakeProvider("alpha", newFakeFetcher(KindQuote, nil)))
	r.Register(newFakeProvider("beta", newFakeFetcher(KindNews, nil)))

	quote := r.ProvidersFor(KindQuote)
	if len(quote) != 1 || quote[0].Info().Name != "alpha" {
		t.Errorf("expected only alpha for quotes, got %d providers", len(quote))
	}
	if got := r.ProvidersFor(KindCashFlow); len(got) != 0 {
		t.Errorf("expected no cash-flow providers, got %d", len(got))
	}
}
