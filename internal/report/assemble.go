package report

import (
	"context"
	"fmt"
	"log"

	"github.com/moneymitra/moneymitra/internal/news"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// Thematic keyword sets for the news-driven sections.
var (
	orderKeywords    = []string{"order", "contract", "tender", "wins", "bags", "awarded"}
	catalystKeywords = []string{"launch", "approval", "expansion", "acquisition", "partnership", "commissioned", "capex", "new plant"}
)

// Assemble turns a gathered bundle into the fixed-section report.
// Every section is always present, in order; what varies is its status
// and content.
func (b *Builder) Assemble(ctx context.Context, bundle *Bundle) *models.ReportDocument {
	doc := &models.ReportDocument{
		Ticker:      bundle.Ticker,
		GeneratedAt: utils.NowIST(),
		Partial:     bundle.Partial,
	}

	byName := metricsByName(bundle.Metrics)
	companyName := bundle.Ticker
	if bundle.Profile != nil && bundle.Profile.Name != "" {
		companyName = bundle.Profile.Name
	} else if bundle.Quote != nil && bundle.Quote.Name != "" {
		companyName = bundle.Quote.Name
	}

	for _, id := range models.ReportSections() {
		var section models.ReportSection
		switch id {
		case models.SectionOverview:
			section = b.overviewSection(bundle)
		case models.SectionStrategic:
			section = b.newsSection(ctx, id, companyName, "strategic developments", bundle.News, nil)
		case models.SectionOrderBook:
			section = b.newsSection(ctx, id, companyName, "order wins and contracts", bundle.News, orderKeywords)
		case models.SectionRisk:
			section = metricSection(id, byName, "debtToEquity", "interestCoverage", "currentRatio")
		case models.SectionCompetitive:
			section = b.competitiveSection(bundle, byName)
		case models.SectionValuation:
			section = b.valuationSection(bundle, byName)
		case models.SectionCatalysts:
			section = b.newsSection(ctx, id, companyName, "upcoming catalysts", bundle.News, catalystKeywords)
		case models.SectionConclusion:
			// Filled below, once the other sections are known.
			continue
		}
		doc.Sections = append(doc.Sections, section)
	}

	doc.Sections = append(doc.Sections, conclusionSection(doc, bundle))
	return doc
}

// statusOf grades a section by how many of its desired data points
// were attachable.
func statusOf(got, want int) models.SectionStatus {
	switch {
	case want == 0 || got == 0:
		return models.StatusInsufficient
	case got == want:
		return models.StatusComplete
	default:
		return models.StatusPartial
	}
}

func (b *Builder) overviewSection(bundle *Bundle) models.ReportSection {
	got := 0
	if bundle.Profile != nil {
		got++
	}
	if bundle.Quote != nil {
		got++
	}
	return models.ReportSection{
		ID:     models.SectionOverview,
		Title:  models.SectionTitle(models.SectionOverview),
		Status: statusOf(got, 2),
		Content: models.SectionContent{
			Profile: bundle.Profile,
			Quote:   bundle.Quote,
		},
	}
}

// newsSection builds a section from (optionally keyword-filtered) news
// plus an LLM narrative. The narrative is best-effort: when the
// summarizer is unavailable the section keeps the headlines and notes
// the degradation.
func (b *Builder) newsSection(ctx context.Context, id models.SectionID, company, angle string, articles []models.NewsArticle, keywords []string) models.ReportSection {
	if keywords != nil {
		articles = news.FilterByKeywords(articles, keywords)
	}

	section := models.ReportSection{
		ID:    id,
		Title: models.SectionTitle(id),
		Content: models.SectionContent{
			News: articles,
		},
	}
	if len(articles) == 0 {
		section.Status = models.StatusInsufficient
		section.Content.Notes = append(section.Content.Notes, "no matching news articles")
		return section
	}

	narrative, err := b.summarizer.Summarize(ctx, company, angle, articles)
	if err != nil {
		section.Status = models.StatusPartial
		section.Content.Notes = append(section.Content.Notes, fmt.Sprintf("narrative unavailable: %v", err))
		log.Printf("report %s: %s narrative degraded: %v", company, id, err)
		return section
	}
	section.Status = models.StatusComplete
	section.Content.Narrative = narrative
	return section
}

// metricSection builds a section carried entirely by named metrics.
func metricSection(id models.SectionID, byName map[string]models.DerivedMetric, names ...string) models.ReportSection {
	ms := pick(byName, names...)
	available := 0
	var notes []string
	for _, m := range ms {
		if m.Available {
			available++
		} else {
			notes = append(notes, fmt.Sprintf("%s: %s", m.Name, m.Reason))
		}
	}
	return models.ReportSection{
		ID:     id,
		Title:  models.SectionTitle(id),
		Status: statusOf(available, len(ms)),
		Content: models.SectionContent{
			Metrics: ms,
			Notes:   notes,
		},
	}
}

func (b *Builder) competitiveSection(bundle *Bundle, byName map[string]models.DerivedMetric) models.ReportSection {
	section := metricSection(models.SectionCompetitive, byName,
		"grossMargin", "operatingMargin", "netMargin", "returnOnEquity")
	section.Content.Profile = bundle.Profile

	// Sector context counts toward completeness alongside the margins.
	want := len(section.Content.Metrics) + 1
	got := 0
	for _, m := range section.Content.Metrics {
		if m.Available {
			got++
		}
	}
	if bundle.Profile != nil && bundle.Profile.Sector != "" {
		got++
	} else {
		section.Content.Notes = append(section.Content.Notes, "sector classification unavailable")
	}
	section.Status = statusOf(got, want)
	return section
}

func (b *Builder) valuationSection(bundle *Bundle, byName map[string]models.DerivedMetric) models.ReportSection {
	section := metricSection(models.SectionValuation, byName,
		"peRatio", "pbRatio", "evToEbitda", "freeCashFlowYield", "revenueGrowthYoY", "epsGrowthYoY")
	section.Content.Quote = bundle.Quote
	return section
}

// conclusionSection summarizes the run: section statuses plus the
// degradation notes collected while gathering.
func conclusionSection(doc *models.ReportDocument, bundle *Bundle) models.ReportSection {
	complete, partial, insufficient := 0, 0, 0
	for _, s := range doc.Sections {
		switch s.Status {
		case models.StatusComplete:
			complete++
		case models.StatusPartial:
			partial++
		case models.StatusInsufficient:
			insufficient++
		}
	}

	notes := []string{
		fmt.Sprintf("%d sections complete, %d partial, %d with insufficient data", complete, partial, insufficient),
	}
	if bundle.Partial {
		notes = append(notes, "report generated from partial data: gathering was interrupted")
	}
	notes = append(notes, bundle.Notes...)

	status := models.StatusComplete
	if insufficient+partial > 0 || bundle.Partial {
		status = models.StatusPartial
	}
	if complete == 0 {
		status = models.StatusInsufficient
	}

	return models.ReportSection{
		ID:      models.SectionConclusion,
		Title:   models.SectionTitle(models.SectionConclusion),
		Status:  status,
		Content: models.SectionContent{Notes: notes},
	}
}
