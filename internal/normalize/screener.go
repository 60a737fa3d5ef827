package normalize

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/models"
)

// Screener.in reports figures in INR crores (1 crore = 1e7). Per-share
// rows (EPS) are plain rupees and are not scaled.
const crore = 1e7

// screenerNormalize scrapes one data kind out of the company page HTML.
func screenerNormalize(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload.Body))
	if err != nil {
		return fmt.Errorf("%w: screener page: %v", ErrMalformedPayload, err)
	}

	switch payload.Kind {
	case provider.KindProfile:
		return screenerProfile(doc, payload, rec)
	case provider.KindIncomeStatement:
		// The annual P&L and the quarterly results are separate tables.
		selector := "#profit-loss"
		periodType := models.PeriodAnnual
		if payload.Period == "quarterly" {
			selector = "#quarters"
			periodType = models.PeriodQuarterly
		}
		rec.Statements = screenerTable(doc, selector, payload.Ticker, models.StatementIncome, periodType, screenerIncomeRows)
		return nil
	case provider.KindBalanceSheet:
		rec.Statements = screenerTable(doc, "#balance-sheet", payload.Ticker, models.StatementBalance, models.PeriodAnnual, screenerBalanceRows)
		return nil
	case provider.KindCashFlow:
		rec.Statements = screenerTable(doc, "#cash-flow", payload.Ticker, models.StatementCashFlow, models.PeriodAnnual, screenerCashFlowRows)
		return nil
	default:
		return fmt.Errorf("%w: screener has no %q payloads", ErrMalformedPayload, payload.Kind)
	}
}

func screenerProfile(doc *goquery.Document, payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	profile := &models.CompanyProfile{
		Ticker:    payload.Ticker,
		Exchange:  "NSE",
		Currency:  "INR",
		MarketCap: models.Unavailable(),
	}
	if strings.HasPrefix(payload.Ticker, "BSE:") {
		profile.Exchange = "BSE"
	}

	profile.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	profile.Description = strings.TrimSpace(doc.Find(".company-profile .about p").First().Text())

	doc.Find("#top-ratios li").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Find(".name").Text())
		if !strings.Contains(name, "Market Cap") {
			return
		}
		if v := parseScreenerNumber(sel.Find(".number").Text()); v != nil {
			profile.MarketCap = models.Amt(*v*crore, "INR")
		}
	})

	rec.Profile = profile
	return nil
}

// rowMapping maps a Screener.in row label to a canonical line item.
// perShare rows are in rupees, everything else in crores.
type rowMapping struct {
	item     models.LineItem
	perShare bool
}

var screenerIncomeRows = map[string]rowMapping{
	"Sales":             {item: models.LineRevenue},
	"Revenue":           {item: models.LineRevenue},
	"Expenses":          {item: models.LineOperatingExpense},
	"Operating Profit":  {item: models.LineOperatingIncome},
	"Interest":          {item: models.LineInterestExpense},
	"Depreciation":      {item: models.LineDepreciation},
	"Profit before tax": {item: models.LinePretaxIncome},
	"Net Profit":        {item: models.LineNetIncome},
	"EPS in Rs":         {item: models.LineEPS, perShare: true},
}

var screenerBalanceRows = map[string]rowMapping{
	"Borrowings":        {item: models.LineTotalDebt},
	"Total Liabilities": {item: models.LineTotalLiabilities},
	"Total Assets":      {item: models.LineTotalAssets},
	"Other Assets":      {item: models.LineCurrentAssets},
}

var screenerCashFlowRows = map[string]rowMapping{
	"Cash from Operating Activity": {item: models.LineOperatingCashFlow},
	"Cash from Investing Activity": {item: models.LineInvestingCashFlow},
	"Cash from Financing Activity": {item: models.LineFinancingCashFlow},
}

// screenerTable parses one statement table into per-period statements.
// Columns are periods (oldest to newest); rows are line items.
func screenerTable(doc *goquery.Document, selector, ticker string, kind models.StatementKind, pt models.PeriodType, rows map[string]rowMapping) []models.FinancialStatement {
	table := doc.Find(selector + " table").First()
	if table.Length() == 0 {
		return nil
	}

	// Header row: first cell is blank, the rest are period labels.
	var periods []models.Period
	table.Find("thead th").Each(func(i int, sel *goquery.Selection) {
		if i == 0 {
			return
		}
		label := strings.TrimSpace(sel.Text())
		end, _ := time.Parse("Jan 2006", label)
		periods = append(periods, models.Period{Type: pt, Label: label, End: end})
	})
	if len(periods) == 0 {
		return nil
	}

	stmts := make([]models.FinancialStatement, len(periods))
	for i, p := range periods {
		stmts[i] = models.FinancialStatement{
			Ticker:   ticker,
			Kind:     kind,
			Period:   p,
			Currency: "INR",
		}
	}

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("td").First().Text())
		label = strings.TrimSuffix(label, "+")
		label = strings.TrimSpace(label)

		mapping, ok := rows[label]
		if !ok {
			return
		}
		row.Find("td").Each(func(i int, cell *goquery.Selection) {
			if i == 0 || i > len(stmts) {
				return
			}
			v := parseScreenerNumber(cell.Text())
			if v == nil {
				return
			}
			value := *v
			if !mapping.perShare {
				value *= crore
			}
			stmts[i-1].Set(mapping.item, models.Amt(value, "INR"))
		})
	})

	// Newest first, matching the other providers.
	for i, j := 0, len(stmts)-1; i < j; i, j = i+1, j-1 {
		stmts[i], stmts[j] = stmts[j], stmts[i]
	}
	return stmts
}

// parseScreenerNumber parses a Screener.in cell: comma-grouped numbers
// with optional "%" or "Cr." decoration. Returns nil for blanks.
func parseScreenerNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "Cr.")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
