// Package news fetches articles from Indian financial news RSS feeds
// and filters them by company.
package news

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/moneymitra/moneymitra/internal/infra"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// Source is one RSS news feed.
type Source struct {
	Name   string
	RSSURL string
}

// DefaultSources lists the Indian financial news RSS feeds consulted by
// default.
var DefaultSources = []Source{
	{Name: "Moneycontrol", RSSURL: "https://www.moneycontrol.com/rss/marketreports.xml"},
	{Name: "Economic Times Markets", RSSURL: "https://economictimes.indiatimes.com/markets/rssfeeds/1977021501.cms"},
	{Name: "LiveMint Markets", RSSURL: "https://www.livemint.com/rss/markets"},
	{Name: "Business Standard Markets", RSSURL: "https://www.business-standard.com/rss/markets-106.rss"},
}

// Service aggregates the configured feeds with a short-lived cache.
type Service struct {
	sources []Source
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// New creates a news service over the default sources.
func New() *Service {
	return NewWithSources(DefaultSources)
}

// NewWithSources creates a news service over custom sources.
func NewWithSources(sources []Source) *Service {
	return &Service{
		sources: sources,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// MarketNews returns recent market news from all configured sources,
// newest first. A source that fails is skipped; the call only fails
// when the context does.
func (s *Service) MarketNews(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	cacheKey := "news/market"
	if cached, ok := s.cache.Get(cacheKey); ok {
		return clip(cached.([]models.NewsArticle), limit), nil
	}

	var all []models.NewsArticle
	for _, src := range s.sources {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		articles, err := s.fetchRSS(ctx, src)
		if err != nil {
			log.Printf("news: skipping %s: %v", src.Name, err)
			continue
		}
		all = append(all, articles...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	s.cache.Set(cacheKey, all)
	return clip(all, limit), nil
}

// CompanyNews returns market news mentioning the given ticker's company.
func (s *Service) CompanyNews(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	ticker = utils.NormalizeTicker(ticker)

	all, err := s.MarketNews(ctx, 0)
	if err != nil {
		return nil, err
	}

	keywords := tickerKeywords(ticker)
	var filtered []models.NewsArticle
	for _, a := range all {
		if matchesAny(a.Title+" "+a.Summary, keywords) {
			filtered = append(filtered, a)
		}
	}
	return clip(filtered, limit), nil
}

// FilterByKeywords returns the articles whose title or summary contains
// any of the given keywords. Used by report sections that slice company
// news thematically (order wins, product launches).
func FilterByKeywords(articles []models.NewsArticle, keywords []string) []models.NewsArticle {
	var out []models.NewsArticle
	for _, a := range articles {
		if matchesAny(a.Title+" "+a.Summary, keywords) {
			out = append(out, a)
		}
	}
	return out
}

// fetchRSS parses one RSS feed into articles.
func (s *Service) fetchRSS(ctx context.Context, src Source) ([]models.NewsArticle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   item.Title,
			URL:     item.Link,
			Source:  src.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// tickerKeywords builds the search terms for a canonical ticker: the
// bare symbol plus known company-name spellings.
func tickerKeywords(ticker string) []string {
	_, symbol := utils.SplitTicker(ticker)
	keywords := []string{symbol}
	if names, ok := companyNames[symbol]; ok {
		keywords = append(keywords, names...)
	}
	return keywords
}

// companyNames maps NSE symbols to name spellings that show up in
// headlines but differ from the symbol itself.
var companyNames = map[string][]string{
	"RELIANCE":   {"Reliance Industries", "RIL"},
	"TCS":        {"Tata Consultancy"},
	"INFY":       {"Infosys"},
	"HDFCBANK":   {"HDFC Bank"},
	"ICICIBANK":  {"ICICI Bank"},
	"SBIN":       {"State Bank of India", "SBI"},
	"BHARTIARTL": {"Bharti Airtel", "Airtel"},
	"TATAMOTORS": {"Tata Motors"},
	"TATASTEEL":  {"Tata Steel"},
	"HINDUNILVR": {"Hindustan Unilever", "HUL"},
	"LT":         {"Larsen & Toubro", "L&T"},
	"KOTAKBANK":  {"Kotak Mahindra"},
	"AXISBANK":   {"Axis Bank"},
	"SUNPHARMA":  {"Sun Pharma"},
	"WIPRO":      {"Wipro"},
	"HCLTECH":    {"HCL Tech"},
	"ADANIENT":   {"Adani Enterprises"},
}

func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// cleanHTML strips tags from RSS descriptions, which frequently embed
// markup.
func cleanHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func clip(articles []models.NewsArticle, limit int) []models.NewsArticle {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}
