package models

import "time"

// StatementKind identifies the three financial statement types.
type StatementKind string

const (
	StatementIncome   StatementKind = "income"
	StatementBalance  StatementKind = "balance"
	StatementCashFlow StatementKind = "cashflow"
)

// PeriodType distinguishes fiscal-year from fiscal-quarter reporting.
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// Period identifies a reporting period.
type Period struct {
	Type  PeriodType `json:"type"`
	Label string     `json:"label"` // e.g. "FY2025", "Q3 FY2025", "Mar 2025"
	End   time.Time  `json:"end"`   // period end date
}

// SameType reports whether two periods share a period type. Growth
// computations require this; mixing annual with quarterly fails closed.
func (p Period) SameType(other Period) bool {
	return p.Type == other.Type
}

// LineItem is a canonical financial statement line-item name. Providers
// use wildly different labels for the same concept; the normalizer maps
// all of them onto this fixed vocabulary.
type LineItem string

// Income statement line items.
const (
	LineRevenue          LineItem = "revenue"
	LineCostOfRevenue    LineItem = "costOfRevenue"
	LineGrossProfit      LineItem = "grossProfit"
	LineOperatingExpense LineItem = "operatingExpense"
	LineOperatingIncome  LineItem = "operatingIncome"
	LineEBITDA           LineItem = "ebitda"
	LineDepreciation     LineItem = "depreciation"
	LineInterestExpense  LineItem = "interestExpense"
	LinePretaxIncome     LineItem = "pretaxIncome"
	LineTaxExpense       LineItem = "taxExpense"
	LineNetIncome        LineItem = "netIncome"
	LineEPS              LineItem = "eps"
)

// Balance sheet line items.
const (
	LineTotalAssets        LineItem = "totalAssets"
	LineCurrentAssets      LineItem = "currentAssets"
	LineCashEquivalents    LineItem = "cashEquivalents"
	LineInventory          LineItem = "inventory"
	LineTotalLiabilities   LineItem = "totalLiabilities"
	LineCurrentLiabilities LineItem = "currentLiabilities"
	LineTotalDebt          LineItem = "totalDebt"
	LineTotalEquity        LineItem = "totalEquity"
)

// Cash flow line items.
const (
	LineOperatingCashFlow LineItem = "operatingCashFlow"
	LineInvestingCashFlow LineItem = "investingCashFlow"
	LineFinancingCashFlow LineItem = "financingCashFlow"
	LineCapEx             LineItem = "capex"
	LineFreeCashFlow      LineItem = "freeCashFlow"
	LineDividendsPaid     LineItem = "dividendsPaid"
)

// FinancialStatement is one statement for one period, keyed by canonical
// line items. Absent line items are simply missing from the map; Item
// returns the unavailable amount for them.
type FinancialStatement struct {
	Ticker   string              `json:"ticker"`
	Kind     StatementKind       `json:"kind"`
	Period   Period              `json:"period"`
	Currency string              `json:"currency"`
	Items    map[LineItem]Amount `json:"items"`
}

// Item returns the amount for a canonical line item, or the unavailable
// amount if the provider payload did not carry it.
func (s FinancialStatement) Item(li LineItem) Amount {
	if a, ok := s.Items[li]; ok {
		return a
	}
	return Unavailable()
}

// Set records a line item. A nil Items map is allocated on first use.
func (s *FinancialStatement) Set(li LineItem, a Amount) {
	if s.Items == nil {
		s.Items = make(map[LineItem]Amount)
	}
	s.Items[li] = a
}
