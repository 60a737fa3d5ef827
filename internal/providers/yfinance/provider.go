// Package yfinance implements the Yahoo Finance data provider.
// It wraps Yahoo Finance's public APIs (v7 quote, v8 chart, v10
// quoteSummary) into the standard provider/fetcher framework.
//
// Yahoo Finance is a free, no-API-key provider. NSE and BSE symbols are
// addressed with ".NS" and ".BO" suffixes.
package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/moneymitra/moneymitra/internal/infra"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

const providerName = "yfinance"

// Provider implements provider.Provider for Yahoo Finance.
type Provider struct {
	provider.BaseProvider
	baseURL  string
	cacheTTL time.Duration
}

// Option customizes a Provider.
type Option func(*Provider)

// WithBaseURL overrides the Yahoo Finance API base URL.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// WithCacheTTL sets the payload cache TTL. Quote payloads keep their
// own short TTL regardless, so quotes stay fresh.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.cacheTTL = ttl
		}
	}
}

// New creates a Yahoo Finance provider and registers all fetchers.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Yahoo Finance - free global financial data",
			"https://finance.yahoo.com",
			nil, // no credentials required
		),
		baseURL:  "https://query1.finance.yahoo.com",
		cacheTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}

	cache := infra.NewCache(p.cacheTTL)
	limiter := infra.NewRateLimiter(5, time.Second)

	p.RegisterFetcher(newQuoteFetcher(p, cache, limiter))
	p.RegisterFetcher(newHistoricalFetcher(p, cache, limiter))
	p.RegisterFetcher(newProfileFetcher(p, cache, limiter))
	for _, kind := range provider.StatementKinds() {
		p.RegisterFetcher(newStatementFetcher(p, kind, cache, limiter))
	}
	return p
}

// Init initializes the provider. Yahoo Finance needs no credentials.
func (p *Provider) Init(credentials map[string]string) error {
	return p.SetCredentials(credentials)
}

// Ping checks connectivity to Yahoo Finance.
func (p *Provider) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", p.baseURL, "RELIANCE.NS")
	body, _, err := infra.DoGet(ctx, url, jsonHeaders())
	if err != nil {
		return fmt.Errorf("yfinance ping: %w", provider.MapHTTPError(err))
	}
	body.Close()
	return nil
}

// --- Shared helpers ---

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// fetchRaw performs a GET request and returns the raw response body.
// Transport errors are mapped into the provider error taxonomy.
func fetchRaw(ctx context.Context, url string) ([]byte, error) {
	body, _, err := infra.DoGet(ctx, url, jsonHeaders())
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

// yfEnvelope sniffs the error member Yahoo embeds in otherwise-200
// responses, e.g. "No data found, symbol may be delisted".
type yfEnvelope struct {
	Chart        *yfEnvelopeBody `json:"chart"`
	QuoteSummary *yfEnvelopeBody `json:"quoteSummary"`
	QuoteResp    *yfEnvelopeBody `json:"quoteResponse"`
}

type yfEnvelopeBody struct {
	Result []json.RawMessage `json:"result"`
	Error  *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// checkEnvelope maps Yahoo's in-band errors to the taxonomy.
func checkEnvelope(data []byte, ticker string) error {
	var env yfEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: parse response: %v", provider.ErrProviderUnavailable, err)
	}
	for _, b := range []*yfEnvelopeBody{env.Chart, env.QuoteSummary, env.QuoteResp} {
		if b == nil {
			continue
		}
		if b.Error != nil {
			return fmt.Errorf("%w: %s: %s", provider.ErrSymbolNotFound, ticker, b.Error.Description)
		}
		if len(b.Result) == 0 {
			return fmt.Errorf("%w: %s: empty result", provider.ErrSymbolNotFound, ticker)
		}
	}
	return nil
}

func newPayload(kind provider.DataKind, ticker, period string, body []byte) *provider.RawPayload {
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

func newQuoteFetcher(p *Provider, cache *infra.Cache, limiter *infra.RateLimiter) *quoteFetcher {
	return &quoteFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindQuote,
			"Real-time stock quote from Yahoo Finance",
			[]string{provider.ParamTicker},
			cache, limiter,
		),
		p: p,
	}
}

func (f *quoteFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	yf := utils.ToYahooTicker(ticker)

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}
	if err := f.Limiter().Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", f.p.baseURL, yf)
	data, err := fetchRaw(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yfinance quote %s: %w", yf, err)
	}
	if err := checkEnvelope(data, ticker); err != nil {
		return nil, err
	}

	payload := newPayload(provider.KindQuote, ticker, "", data)
	f.StoreWithTTL(key, payload, time.Minute)
	return payload, nil
}

// --- Historical fetcher ---

type historicalFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newHistoricalFetcher(p *Provider, cache *infra.Cache, limiter *infra.RateLimiter) *historicalFetcher {
	return &historicalFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindHistorical,
			"Historical OHLCV price data from Yahoo Finance",
			[]string{provider.ParamTicker},
			cache, limiter,
		),
		p: p,
	}
}

func (f *historicalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	yf := utils.ToYahooTicker(ticker)

	start, end := dateRange(params)

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}
	if err := f.Limiter().Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		f.p.baseURL, yf, start.Unix(), end.Unix(),
	)
	data, err := fetchRaw(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", yf, err)
	}
	if err := checkEnvelope(data, ticker); err != nil {
		return nil, err
	}

	payload := newPayload(provider.KindHistorical, ticker, "", data)
	f.Store(key, payload)
	return payload, nil
}

// dateRange parses start/end params, defaulting to the trailing year.
func dateRange(params provider.QueryParams) (time.Time, time.Time) {
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
	return start, end
}

// --- Profile fetcher ---

type profileFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newProfileFetcher(p *Provider, cache *infra.Cache, limiter *infra.RateLimiter) *profileFetcher {
	return &profileFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			provider.KindProfile,
			"Company profile and summary info from Yahoo Finance",
			[]string{provider.ParamTicker},
			cache, limiter,
		),
		p: p,
	}
}

func (f *profileFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	yf := utils.ToYahooTicker(ticker)

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}
	if err := f.Limiter().Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=assetProfile,summaryDetail,price,defaultKeyStatistics",
		f.p.baseURL, yf,
	)
	data, err := fetchRaw(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yfinance profile %s: %w", yf, err)
	}
	if err := checkEnvelope(data, ticker); err != nil {
		return nil, err
	}

	payload := newPayload(provider.KindProfile, ticker, "", data)
	f.Store(key, payload)
	return payload, nil
}

// --- Financial statement fetchers ---

// statementModules maps a statement kind and period to the quoteSummary
// module that carries it.
var statementModules = map[provider.DataKind]map[string]string{
	provider.KindIncomeStatement: {
		"annual":    "incomeStatementHistory",
		"quarterly": "incomeStatementHistoryQuarterly",
	},
	provider.KindBalanceSheet: {
		"annual":    "balanceSheetHistory",
		"quarterly": "balanceSheetHistoryQuarterly",
	},
	provider.KindCashFlow: {
		"annual":    "cashflowStatementHistory",
		"quarterly": "cashflowStatementHistoryQuarterly",
	},
}

type statementFetcher struct {
	provider.BaseFetcher
	p *Provider
}

func newStatementFetcher(p *Provider, kind provider.DataKind, cache *infra.Cache, limiter *infra.RateLimiter) *statementFetcher {
	return &statementFetcher{
		BaseFetcher: provider.NewBaseFetcher(
			kind,
			fmt.Sprintf("%s data from Yahoo Finance", kind),
			[]string{provider.ParamTicker},
			cache, limiter,
		),
		p: p,
	}
}

func (f *statementFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.RawPayload, error) {
	ticker := utils.NormalizeTicker(params[provider.ParamTicker])
	yf := utils.ToYahooTicker(ticker)

	period := params[provider.ParamPeriod]
	if period == "" {
		period = "annual"
	}
	module, ok := statementModules[f.Kind()][period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	key := f.CacheKey(providerName, params)
	if cached, ok := f.Cached(key); ok {
		return cached, nil
	}
	if err := f.Limiter().Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", f.p.baseURL, yf, module)
	data, err := fetchRaw(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yfinance %s %s: %w", f.Kind(), yf, err)
	}
	if err := checkEnvelope(data, ticker); err != nil {
		return nil, err
	}

	payload := newPayload(f.Kind(), ticker, period, data)
	f.Store(key, payload)
	return payload, nil
}
