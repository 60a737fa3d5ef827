// Package report gathers canonical data for a ticker and assembles it
// into the fixed-section research report. Gathering fans out per data
// kind; a failed kind degrades the affected sections instead of
// aborting the report, and cancellation yields a partial report of
// whatever had finished.
package report

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moneymitra/moneymitra/internal/llm"
	"github.com/moneymitra/moneymitra/internal/metrics"
	"github.com/moneymitra/moneymitra/internal/news"
	"github.com/moneymitra/moneymitra/internal/normalize"
	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// Bundle is everything gathered for one ticker before assembly.
type Bundle struct {
	Ticker  string
	Quote   *models.Quote
	Profile *models.CompanyProfile
	Inputs  *metrics.Inputs
	Metrics []models.DerivedMetric
	News    []models.NewsArticle

	// Notes records what degraded and why, e.g. a provider that failed.
	Notes []string

	// Partial is set when gathering was cancelled before completion.
	Partial bool
}

// Builder gathers report data through the provider registry.
type Builder struct {
	registry       *provider.Registry
	news           *news.Service
	summarizer     llm.Summarizer
	newsLimit      int
	sectionTimeout time.Duration
}

// NewBuilder creates a report builder. A nil summarizer disables
// narratives; a nil news service disables the news-driven sections.
func NewBuilder(registry *provider.Registry, newsSvc *news.Service, summarizer llm.Summarizer, newsLimit int) *Builder {
	if summarizer == nil {
		summarizer = llm.Disabled{}
	}
	if newsLimit <= 0 {
		newsLimit = 25
	}
	return &Builder{
		registry:       registry,
		news:           newsSvc,
		summarizer:     summarizer,
		newsLimit:      newsLimit,
		sectionTimeout: 45 * time.Second,
	}
}

// SetSectionTimeout bounds each gathering unit (one data kind, or the
// news fetch). A unit that exceeds it degrades with a note while the
// others proceed. Zero disables the per-unit bound.
func (b *Builder) SetSectionTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	b.sectionTimeout = d
}

// unitContext derives the context one gathering unit runs under.
func (b *Builder) unitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.sectionTimeout > 0 {
		return context.WithTimeout(ctx, b.sectionTimeout)
	}
	return context.WithCancel(ctx)
}

// Build gathers everything for the ticker and assembles the report.
func (b *Builder) Build(ctx context.Context, ticker string) (*models.ReportDocument, error) {
	bundle := b.Gather(ctx, ticker)
	return b.Assemble(ctx, bundle), nil
}

// fetchSpec names one gathering task: a data kind plus its params.
type fetchSpec struct {
	label  string
	kind   provider.DataKind
	period string
}

// Gather fetches all data kinds for the ticker in parallel. Every
// failure becomes a note; the only way to get nothing at all is
// immediate cancellation.
func (b *Builder) Gather(ctx context.Context, ticker string) *Bundle {
	ticker = utils.NormalizeTicker(ticker)
	bundle := &Bundle{Ticker: ticker}

	specs := []fetchSpec{
		{label: "quote", kind: provider.KindQuote},
		{label: "profile", kind: provider.KindProfile},
		{label: "annual income", kind: provider.KindIncomeStatement, period: "annual"},
		{label: "quarterly income", kind: provider.KindIncomeStatement, period: "quarterly"},
		{label: "balance sheet", kind: provider.KindBalanceSheet, period: "annual"},
		{label: "cash flow", kind: provider.KindCashFlow, period: "annual"},
	}

	var mu sync.Mutex
	records := make([]*models.CanonicalRecord, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			fctx, cancel := b.unitContext(gctx)
			defer cancel()

			params := provider.QueryParams{provider.ParamTicker: ticker}
			if spec.period != "" {
				params[provider.ParamPeriod] = spec.period
			}
			payload, err := b.registry.Fetch(fctx, spec.kind, params)
			if err != nil {
				mu.Lock()
				bundle.Notes = append(bundle.Notes, fmt.Sprintf("%s: %v", spec.label, err))
				mu.Unlock()
				return nil // degrade, don't abort
			}
			rec, err := normalize.Record(payload)
			if err != nil {
				mu.Lock()
				bundle.Notes = append(bundle.Notes, fmt.Sprintf("%s: %v", spec.label, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			records[i] = rec
			mu.Unlock()
			return nil
		})
	}

	// News comes from RSS, not the provider registry.
	if b.news != nil {
		g.Go(func() error {
			fctx, cancel := b.unitContext(gctx)
			defer cancel()

			articles, err := b.news.CompanyNews(fctx, ticker, b.newsLimit)
			if err != nil {
				mu.Lock()
				bundle.Notes = append(bundle.Notes, fmt.Sprintf("news: %v", err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			bundle.News = articles
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only reports cancellation.
	_ = g.Wait()
	if ctx.Err() != nil {
		bundle.Partial = true
		bundle.Notes = append(bundle.Notes, fmt.Sprintf("gathering interrupted: %v", ctx.Err()))
	}

	bundle.Inputs = metrics.InputsFromRecords(records)
	bundle.Quote = bundle.Inputs.Quote
	bundle.Profile = bundle.Inputs.Profile
	bundle.Metrics = metrics.Compute(bundle.Inputs)

	for _, note := range bundle.Notes {
		log.Printf("report %s: degraded: %s", ticker, note)
	}
	return bundle
}

// metricsByName indexes computed metrics for section assembly.
func metricsByName(ms []models.DerivedMetric) map[string]models.DerivedMetric {
	out := make(map[string]models.DerivedMetric, len(ms))
	for _, m := range ms {
		out[m.Name] = m
	}
	return out
}

// pick returns the named metrics in order, available or not.
func pick(byName map[string]models.DerivedMetric, names ...string) []models.DerivedMetric {
	out := make([]models.DerivedMetric, 0, len(names))
	for _, n := range names {
		if m, ok := byName[n]; ok {
			out = append(out, m)
		}
	}
	return out
}
