// Package screener implements the Screener.in data provider.
// Screener.in has no API; the provider fetches the company page HTML
// and hands it to the normalizer, which scrapes the statement tables.
// Figures on Screener.in are INR crores.
//
// One page carries the profile and all statements, so the page is
// fetched once and shared across fetchers. Scraping is kept to a
// conservative 1 request/second.
package screener

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/moneymitra/moneymitra/internal/infra"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

const providerName = "screener"

// Provider implements provider.Provider for Screener.in.
type Provider struct {
	provider.BaseProvider
	baseURL  string
	cacheTTL time.Duration
	cache    *infra.Cache
	limiter  *infra.RateLimiter
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL overrides the Screener.in base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithCacheTTL sets the page cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// New creates a Screener.in provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Screener.in - Indian equity fundamentals (scraped)",
			"https://www.screener.in",
			nil, // no credentials required
		),
		baseURL:  "https://www.screener.in",
		cacheTTL: 30 * time.Minute,
		limiter:  infra.NewRateLimiter(1, time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = infra.NewCache(p.cacheTTL)

	p.RegisterFetcher(newPageFetcher(p, provider.KindProfile,
		"Company overview and ratios from the Screener.in page"))
	for _, kind := range provider.StatementKinds() {
		p.RegisterFetcher(newPageFetcher(p, kind,
			fmt.Sprintf("%s scraped from the Screener.in page", kind)))
	}
	return p
}

// Init initializes the provider. Screener.in needs no credentials.
func (p *Provider) Init(credentials map[string]string) error {
	return p.SetCredentials(credentials)
}

// Ping checks that Screener.in is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, p.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("screener ping: %w", provider.MapHTTPError(err))
	}
	body.Close()
	return nil
}

// page fetches the company page HTML, cached and shared across fetchers.
// Only NSE/BSE symbols exist on Screener.in.
func (p *Provider) page(ctx context.Context, ticker string) ([]byte, error) {
	exchange, symbol := utils.SplitTicker(ticker)
	if exchange != "NSE" && exchange != "BSE" {
		return nil, fmt.Errorf("%w: %s: screener covers NSE/BSE only", provider.ErrSymbolNotFound, ticker)
	}

	key := "screener/page/" + symbol
	if v, ok := p.cache.Get(key); ok {
		return v.([]byte), nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/company/%s/consolidated/", p.baseURL, url.PathEscape(symbol))
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, provider.MapHTTPError(err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read page: %v", provider.ErrProviderUnavailable, err)
	}

	p.cache.Set(key, data)
	return data, nil
}

// pageFetcher serves one data kind off the shared company page.
type pageFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newPageFetcher(p *Provider, kind provider.DataKind, description string) *pageFetcher {
	return &pageFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			kind, description,
			[]string{provider.ParamTicker},
			p.cache, p.limiter,
		),
		p: p,
	}
}

func (f *pageFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])

	period := params[provider.ParamPeriod]
	if period == "" {
		period = "annual"
	}

	data, err := f.p.page(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("screener %s %s: %w", f.Kind(), ticker, err)
	}
	return &provider.RawPayload{
		Provider:  providerName,
		Kind:      f.Kind(),
		Ticker:    ticker,
		Period:    period,
		Body:      data,
		FetchedAt: time.Now(),
	}, nil
}
