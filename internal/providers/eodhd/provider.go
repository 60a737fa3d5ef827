// Package eodhd implements the EOD Historical Data provider.
// It covers end-of-day prices (/api/eod), live quotes (/api/real-time)
// and the fundamentals document (/api/fundamentals) that carries the
// company profile and financial statements.
//
// EODHD requires an API token. Symbols are exchange-suffixed:
// "RELIANCE.NSE", "AAPL.US".
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/moneymitra/moneymitra/internal/infra"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

const (
	providerName = "eodhd"
	credAPIToken = "api_token"
)

// Provider implements provider.Provider for EOD Historical Data.
type Provider struct {
	provider.BaseProvider
	baseURL  string
	cacheTTL time.Duration
	cache    *infra.Cache
	limiter  *infra.RateLimiter
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL overrides the EODHD API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithCacheTTL sets the payload cache TTL. Quote payloads keep their
// own short TTL regardless.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// New creates an EODHD provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"EOD Historical Data - EOD prices and fundamentals",
			"https://eodhistoricaldata.com",
			[]provider.ProviderCredential{
				{
					Name:        credAPIToken,
					Description: "EODHD API token from eodhistoricaldata.com",
					Required:    true,
					EnvVar:      "EODHD_API_TOKEN",
				},
			},
		),
		baseURL:  "https://eodhistoricaldata.com",
		cacheTTL: 15 * time.Minute,
		limiter:  infra.NewRateLimiter(10, time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = infra.NewCache(p.cacheTTL)

	p.RegisterFetcher(newQuoteFetcher(p))
	p.RegisterFetcher(newHistoricalFetcher(p))
	p.RegisterFetcher(newProfileFetcher(p))
	for _, kind := range provider.StatementKinds() {
		p.RegisterFetcher(newStatementFetcher(p, kind))
	}
	return p
}

// Init stores and validates the API token.
func (p *Provider) Init(credentials map[string]string) error {
	return p.SetCredentials(credentials)
}

// Ping verifies the API token with a minimal real-time request.
func (p *Provider) Ping(ctx context.Context) error {
	u := fmt.Sprintf("%s/api/real-time/AAPL.US?api_token=%s&fmt=json",
		p.baseURL, url.QueryEscape(p.Credential(credAPIToken)))
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("eodhd ping: %w", provider.MapHTTPError(err))
	}
	body.Close()
	return nil
}

// get performs a rate-limited GET and returns the raw body.
func (p *Provider) get(ctx context.Context, u string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	body, _, err := infra.DoGet(ctx, u, nil)
	if err != nil {
		return nil, provider.MapHTTPError(err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", provider.ErrProviderUnavailable, err)
	}
	return data, nil
}

// fundamentals fetches the fundamentals document for a symbol, shared
// and cached across the profile and statement fetchers.
func (p *Provider) fundamentals(ctx context.Context, symbol string) ([]byte, error) {
	key := "eodhd/fundamentals/" + symbol
	if v, ok := p.cache.Get(key); ok {
		return v.([]byte), nil
	}
	u := fmt.Sprintf("%s/api/fundamentals/%s?api_token=%s&fmt=json",
		p.baseURL, url.PathEscape(symbol), url.QueryEscape(p.Credential(credAPIToken)))
	data, err := p.get(ctx, u)
	if err != nil {
		return nil, err
	}
	// EODHD returns "{}" for unknown symbols.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil || len(probe) == 0 {
		return nil, fmt.Errorf("%w: %s: empty fundamentals", provider.ErrSymbolNotFound, symbol)
	}
	p.cache.Set(key, data)
	return data, nil
}

func (p *Provider) newPayload(kind provider.DataKind, ticker, period string, body []byte) *provider.RawPayload {
	return &provider.RawPayload{
		Provider:  providerName,
		Kind:      kind,
		Ticker:    ticker,
		Period:    period,
		Body:      body,
		FetchedAt: time.Now(),
	}
}

// --- Quote fetcher ---

type quoteFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newQuoteFetcher(p *Provider) *quoteFetcher {
	return &quoteFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindQuote,
			"Delayed real-time quote from EODHD",
			[]string{provider.ParamTicker},
			p.cache, p.limiter,
		),
		p: p,
	}
}

func (f *quoteFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	symbol := utils.ToEODHDTicker(ticker)

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}

	u := fmt.Sprintf("%s/api/real-time/%s?api_token=%s&fmt=json",
		f.p.baseURL, url.PathEscape(symbol), url.QueryEscape(f.p.Credential(credAPIToken)))
	data, err := f.p.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("eodhd quote %s: %w", symbol, err)
	}

	payload := f.p.newPayload(provider.KindQuote, ticker, "", data)
	f.StoreWithTTL(key, payload, time.Minute)
	return payload, nil
}

// --- Historical fetcher ---

type historicalFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newHistoricalFetcher(p *Provider) *historicalFetcher {
	return &historicalFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindHistorical,
			"End-of-day OHLCV history from EODHD",
			[]string{provider.ParamTicker},
			p.cache, p.limiter,
		),
		p: p,
	}
}

func (f *historicalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	symbol := utils.ToEODHDTicker(ticker)

	end := time.Now()
	start := end.AddDate(-1, 0, 0)
	if s := params[provider.ParamStartDate]; s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			start = t
		}
	}
	if s := params[provider.ParamEndDate]; s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			end = t
		}
	}

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}

	u := fmt.Sprintf("%s/api/eod/%s?api_token=%s&period=d&from=%s&to=%s&fmt=json",
		f.p.baseURL, url.PathEscape(symbol),
		url.QueryEscape(f.p.Credential(credAPIToken)),
		start.Format("2006-01-02"), end.Format("2006-01-02"),
	)
	data, err := f.p.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("eodhd eod %s: %w", symbol, err)
	}

	payload := f.p.newPayload(provider.KindHistorical, ticker, "", data)
	f.Store(key, payload)
	return payload, nil
}

// --- Profile fetcher ---

type profileFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newProfileFetcher(p *Provider) *profileFetcher {
	return &profileFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindProfile,
			"Company profile from the EODHD fundamentals document",
			[]string{provider.ParamTicker},
			p.cache, p.limiter,
		),
		p: p,
	}
}

func (f *profileFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	symbol := utils.ToEODHDTicker(ticker)

	data, err := f.p.fundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("eodhd profile %s: %w", symbol, err)
	}
	return f.p.newPayload(provider.KindProfile, ticker, "", data), nil
}

// --- Financial statement fetchers ---

type statementFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newStatementFetcher(p *Provider, kind provider.DataKind) *statementFetcher {
	return &statementFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			kind,
			fmt.Sprintf("%s from the EODHD fundamentals document", kind),
			[]string{provider.ParamTicker},
			p.cache, p.limiter,
		),
		p: p,
	}
}

func (f *statementFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	symbol := utils.ToEODHDTicker(ticker)

	period := params[provider.ParamPeriod]
	if period == "" {
		period = "annual"
	}

	data, err := f.p.fundamentals(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("eodhd %s %s: %w", f.Kind(), symbol, err)
	}
	return f.p.newPayload(f.Kind(), ticker, period, data), nil
}
