package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moneymitra/moneymitra/pkg/models"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Markets</title>
<item>
  <title>Reliance Industries wins large retail order</title>
  <link>https://example.com/ril-order</link>
  <description>&lt;p&gt;RIL bags a new order worth Rs 5,000 crore.&lt;/p&gt;</description>
  <pubDate>Fri, 22 Aug 2025 09:30:00 +0530</pubDate>
</item>
<item>
  <title>Infosys announces product launch</title>
  <link>https://example.com/infy-launch</link>
  <description>Infosys unveils a new AI platform.</description>
  <pubDate>Fri, 22 Aug 2025 11:00:00 +0530</pubDate>
</item>
</channel></rss>`

func testService(t *testing.T) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	t.Cleanup(srv.Close)
	return NewWithSources([]Source{{Name: "Test Markets", RSSURL: srv.URL}})
}

func TestMarketNewsSortedNewestFirst(t *testing.T) {
	s := testService(t)
	articles, err := s.MarketNews(context.Background(), 0)
	if err != nil {
		t.Fatalf("MarketNews: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].Title != "Infosys announces product launch" {
		t.Errorf("newest first: got %q", articles[0].Title)
	}
	if articles[0].Source != "Test Markets" {
		t.Errorf("source: got %q", articles[0].Source)
	}
}

func TestCompanyNewsFiltersByKeywords(t *testing.T) {
	s := testService(t)
	articles, err := s.CompanyNews(context.Background(), "RELIANCE", 0)
	if err != nil {
		t.Fatalf("CompanyNews: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].URL != "https://example.com/ril-order" {
		t.Errorf("got %q", articles[0].URL)
	}
}

func TestCleanHTMLStripsMarkup(t *testing.T) {
	s := testService(t)
	articles, _ := s.CompanyNews(context.Background(), "NSE:RELIANCE", 0)
	if len(articles) != 1 {
		t.Fatal("expected 1 article")
	}
	if articles[0].Summary != "RIL bags a new order worth Rs 5,000 crore." {
		t.Errorf("summary not cleaned: %q", articles[0].Summary)
	}
}

func TestFailedSourceIsSkipped(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	s := NewWithSources([]Source{
		{Name: "Broken", RSSURL: bad.URL},
		{Name: "Good", RSSURL: good.URL},
	})
	articles, err := s.MarketNews(context.Background(), 0)
	if err != nil {
		t.Fatalf("MarketNews should tolerate a failing source: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("expected articles from the good source, got %d", len(articles))
	}
}

func TestFilterByKeywords(t *testing.T) {
	articles := []models.NewsArticle{
		{Title: "Company bags export order"},
		{Title: "Quarterly results announced"},
		{Title: "New contract win in defence"},
	}
	got := FilterByKeywords(articles, []string{"order", "contract"})
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
}

func TestMarketNewsLimit(t *testing.T) {
	s := testService(t)
	articles, err := s.MarketNews(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Errorf("limit not applied: got %d", len(articles))
	}
}
