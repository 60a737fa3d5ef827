package report

import (
	"fmt"
	"strings"

	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// RenderText renders a report document as plain text for the terminal.
func RenderText(doc *models.ReportDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 72))
	fmt.Fprintf(&b, "  %s — Research Report\n", doc.Ticker)
	fmt.Fprintf(&b, "  Generated %s", doc.GeneratedAt.Format("02 Jan 2006 15:04 MST"))
	if doc.Partial {
		b.WriteString("  [PARTIAL]")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 72))

	for _, section := range doc.Sections {
		renderSection(&b, section)
	}
	return b.String()
}

func renderSection(b *strings.Builder, s models.ReportSection) {
	fmt.Fprintf(b, "\n## %s", s.Title)
	if s.Status != models.StatusComplete {
		fmt.Fprintf(b, " (%s)", s.Status)
	}
	b.WriteString("\n\n")

	if s.Content.Profile != nil {
		renderProfile(b, s.Content.Profile)
	}
	if s.Content.Quote != nil {
		renderQuote(b, s.Content.Quote)
	}
	if s.Content.Narrative != "" {
		fmt.Fprintf(b, "%s\n\n", s.Content.Narrative)
	}
	for _, m := range s.Content.Metrics {
		renderMetric(b, m)
	}
	if len(s.Content.Metrics) > 0 {
		b.WriteString("\n")
	}
	for i, article := range s.Content.News {
		if i >= 5 {
			fmt.Fprintf(b, "  ... and %d more articles\n", len(s.Content.News)-i)
			break
		}
		fmt.Fprintf(b, "  • %s (%s, %s)\n", article.Title, article.Source,
			article.PublishedAt.Format("02 Jan"))
	}
	if len(s.Content.News) > 0 {
		b.WriteString("\n")
	}
	for _, note := range s.Content.Notes {
		fmt.Fprintf(b, "  note: %s\n", note)
	}
}

func renderProfile(b *strings.Builder, p *models.CompanyProfile) {
	fmt.Fprintf(b, "  %s (%s)\n", p.Name, p.Exchange)
	if p.Sector != "" {
		fmt.Fprintf(b, "  Sector: %s", p.Sector)
		if p.Industry != "" {
			fmt.Fprintf(b, " / %s", p.Industry)
		}
		b.WriteString("\n")
	}
	if p.MarketCap.IsAvailable() {
		fmt.Fprintf(b, "  Market Cap: %s\n",
			utils.FormatMoneyCompact(p.MarketCap.Value, p.MarketCap.Currency))
	}
	if p.Description != "" {
		fmt.Fprintf(b, "  %s\n", p.Description)
	}
	b.WriteString("\n")
}

func renderQuote(b *strings.Builder, q *models.Quote) {
	fmt.Fprintf(b, "  Last: %s  %s\n",
		utils.FormatMoney(q.LastPrice, q.Currency), utils.FormatPct(q.ChangePct))
	if q.WeekHigh52 > 0 {
		fmt.Fprintf(b, "  52w Range: %s – %s\n",
			utils.FormatMoney(q.WeekLow52, q.Currency),
			utils.FormatMoney(q.WeekHigh52, q.Currency))
	}
	if q.MarketCap.IsAvailable() {
		fmt.Fprintf(b, "  Market Cap: %s\n",
			utils.FormatMoneyCompact(q.MarketCap.Value, q.MarketCap.Currency))
	}
	b.WriteString("\n")
}

func renderMetric(b *strings.Builder, m models.DerivedMetric) {
	if !m.Available {
		fmt.Fprintf(b, "  %-22s unavailable (%s)\n", m.Name, m.Reason)
		return
	}
	var value string
	switch m.Unit {
	case models.UnitPercent:
		value = utils.FormatPct(m.Value)
	case models.UnitCurrency:
		value = utils.FormatMoneyCompact(m.Value, m.Currency)
	default:
		value = fmt.Sprintf("%.2f", m.Value)
	}
	fmt.Fprintf(b, "  %-22s %s", m.Name, value)
	if m.Period != "" {
		fmt.Fprintf(b, "  [%s]", m.Period)
	}
	b.WriteString("\n")
}
