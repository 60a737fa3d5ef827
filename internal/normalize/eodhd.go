package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// --- EODHD response types ---

// eodNumber tolerates EODHD's mixed encodings: numbers, numeric
// strings, "NA", and null all appear for the same fields.
type eodNumber struct {
	v *float64
}

func (n *eodNumber) ptr() *float64 {
	if n == nil {
		return nil
	}
	return n.v
}

func (n *eodNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	s := string(data)
	if s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// "NA" and friends mean unavailable, not malformed.
		return nil
	}
	n.v = &f
	return nil
}

type eodRealTimeQuote struct {
	Code          string     `json:"code"`
	Timestamp     int64      `json:"timestamp"`
	Open          *eodNumber `json:"open"`
	High          *eodNumber `json:"high"`
	Low           *eodNumber `json:"low"`
	Close         *eodNumber `json:"close"`
	Volume        *eodNumber `json:"volume"`
	PreviousClose *eodNumber `json:"previousClose"`
	Change        *eodNumber `json:"change"`
	ChangePct     *eodNumber `json:"change_p"`
}

type eodBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type eodFundamentals struct {
	General *struct {
		Name         string `json:"Name"`
		Exchange     string `json:"Exchange"`
		CurrencyCode string `json:"CurrencyCode"`
		Sector       string `json:"Sector"`
		Industry     string `json:"Industry"`
		Description  string `json:"Description"`
	} `json:"General"`
	Highlights *struct {
		MarketCapitalization *eodNumber `json:"MarketCapitalization"`
	} `json:"Highlights"`
	SharesStats *struct {
		SharesOutstanding *eodNumber `json:"SharesOutstanding"`
	} `json:"SharesStats"`
	Financials *struct {
		IncomeStatement *eodStatementSection `json:"Income_Statement"`
		BalanceSheet    *eodStatementSection `json:"Balance_Sheet"`
		CashFlow        *eodStatementSection `json:"Cash_Flow"`
	} `json:"Financials"`
}

type eodStatementSection struct {
	CurrencySymbol string                        `json:"currency_symbol"`
	Yearly         map[string]eodStatementEntry  `json:"yearly"`
	Quarterly      map[string]eodStatementEntry  `json:"quarterly"`
}

type eodStatementEntry struct {
	Date           string `json:"date"`
	CurrencySymbol string `json:"currency_symbol"`

	// Income statement
	TotalRevenue                *eodNumber `json:"totalRevenue"`
	CostOfRevenue               *eodNumber `json:"costOfRevenue"`
	GrossProfit                 *eodNumber `json:"grossProfit"`
	TotalOperatingExpenses      *eodNumber `json:"totalOperatingExpenses"`
	OperatingIncome             *eodNumber `json:"operatingIncome"`
	Ebitda                      *eodNumber `json:"ebitda"`
	DepreciationAndAmortization *eodNumber `json:"depreciationAndAmortization"`
	InterestExpense             *eodNumber `json:"interestExpense"`
	IncomeBeforeTax             *eodNumber `json:"incomeBeforeTax"`
	IncomeTaxExpense            *eodNumber `json:"incomeTaxExpense"`
	NetIncome                   *eodNumber `json:"netIncome"`

	// Balance sheet
	TotalAssets             *eodNumber `json:"totalAssets"`
	TotalCurrentAssets      *eodNumber `json:"totalCurrentAssets"`
	Cash                    *eodNumber `json:"cash"`
	Inventory               *eodNumber `json:"inventory"`
	TotalLiab               *eodNumber `json:"totalLiab"`
	TotalCurrentLiabilities *eodNumber `json:"totalCurrentLiabilities"`
	ShortLongTermDebtTotal  *eodNumber `json:"shortLongTermDebtTotal"`
	TotalStockholderEquity  *eodNumber `json:"totalStockholderEquity"`

	// Cash flow
	TotalCashFromOperatingActivities *eodNumber `json:"totalCashFromOperatingActivities"`
	TotalCashflowsFromInvesting      *eodNumber `json:"totalCashflowsFromInvestingActivities"`
	TotalCashFromFinancing           *eodNumber `json:"totalCashFromFinancingActivities"`
	CapitalExpenditures              *eodNumber `json:"capitalExpenditures"`
	FreeCashFlow                     *eodNumber `json:"freeCashFlow"`
	DividendsPaid                    *eodNumber `json:"dividendsPaid"`
}

// --- Translation ---

func eodhdNormalize(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	switch payload.Kind {
	case provider.KindQuote:
		return eodhdQuote(payload, rec)
	case provider.KindHistorical:
		return eodhdHistorical(payload, rec)
	case provider.KindProfile:
		return eodhdProfile(payload, rec)
	case provider.KindIncomeStatement, provider.KindBalanceSheet, provider.KindCashFlow:
		return eodhdStatements(payload, rec)
	default:
		return fmt.Errorf("%w: eodhd has no %q payloads", ErrMalformedPayload, payload.Kind)
	}
}

func eodhdQuote(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var q eodRealTimeQuote
	if err := json.Unmarshal(payload.Body, &q); err != nil {
		return fmt.Errorf("%w: eodhd quote: %v", ErrMalformedPayload, err)
	}
	// The real-time endpoint carries no currency; fall back to the
	// listing exchange's.
	cur := tickerCurrency("", payload.Ticker)

	quote := &models.Quote{
		Ticker:    payload.Ticker,
		Currency:  cur,
		Timestamp: time.Unix(q.Timestamp, 0),
		MarketCap: models.Unavailable(),
	}
	if v := q.Close.ptr(); v != nil {
		quote.LastPrice = *v
	}
	if v := q.Change.ptr(); v != nil {
		quote.Change = *v
	}
	if v := q.ChangePct.ptr(); v != nil {
		quote.ChangePct = *v
	}
	if v := q.Open.ptr(); v != nil {
		quote.Open = *v
	}
	if v := q.High.ptr(); v != nil {
		quote.High = *v
	}
	if v := q.Low.ptr(); v != nil {
		quote.Low = *v
	}
	if v := q.PreviousClose.ptr(); v != nil {
		quote.PrevClose = *v
	}
	if v := q.Volume.ptr(); v != nil {
		quote.Volume = int64(*v)
	}
	rec.Quote = quote
	return nil
}

func eodhdHistorical(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var bars []eodBar
	if err := json.Unmarshal(payload.Body, &bars); err != nil {
		return fmt.Errorf("%w: eodhd eod: %v", ErrMalformedPayload, err)
	}
	cur := tickerCurrency("", payload.Ticker)

	out := make([]models.OHLCV, 0, len(bars))
	for _, b := range bars {
		ts, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			continue
		}
		out = append(out, models.OHLCV{
			Timestamp: ts,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			Currency:  cur,
		})
	}
	rec.Historical = out
	return nil
}

func eodhdProfile(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var f eodFundamentals
	if err := json.Unmarshal(payload.Body, &f); err != nil {
		return fmt.Errorf("%w: eodhd fundamentals: %v", ErrMalformedPayload, err)
	}
	if f.General == nil {
		return fmt.Errorf("%w: eodhd fundamentals: missing General", ErrMalformedPayload)
	}

	exchange, _ := utils.SplitTicker(payload.Ticker)
	cur := tickerCurrency(f.General.CurrencyCode, payload.Ticker)

	profile := &models.CompanyProfile{
		Ticker:      payload.Ticker,
		Name:        f.General.Name,
		Exchange:    exchange,
		Sector:      f.General.Sector,
		Industry:    f.General.Industry,
		Description: f.General.Description,
		Currency:    cur,
		MarketCap:   models.Unavailable(),
	}
	if f.Highlights != nil {
		profile.MarketCap = amountOf(f.Highlights.MarketCapitalization.ptr(), cur)
	}
	if f.SharesStats != nil {
		if v := f.SharesStats.SharesOutstanding.ptr(); v != nil {
			profile.SharesOutstanding = *v
		}
	}
	rec.Profile = profile
	return nil
}

func eodhdStatements(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var f eodFundamentals
	if err := json.Unmarshal(payload.Body, &f); err != nil {
		return fmt.Errorf("%w: eodhd fundamentals: %v", ErrMalformedPayload, err)
	}
	if f.Financials == nil {
		return nil
	}

	var section *eodStatementSection
	var kind models.StatementKind
	switch payload.Kind {
	case provider.KindIncomeStatement:
		section, kind = f.Financials.IncomeStatement, models.StatementIncome
	case provider.KindBalanceSheet:
		section, kind = f.Financials.BalanceSheet, models.StatementBalance
	case provider.KindCashFlow:
		section, kind = f.Financials.CashFlow, models.StatementCashFlow
	}
	if section == nil {
		return nil
	}

	periodType := models.PeriodAnnual
	entries := section.Yearly
	if payload.Period == "quarterly" {
		periodType = models.PeriodQuarterly
		entries = section.Quarterly
	}

	dates := make([]string, 0, len(entries))
	for d := range entries {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates))) // newest first

	for _, d := range dates {
		e := entries[d]
		cur := e.CurrencySymbol
		if cur == "" {
			cur = section.CurrencySymbol
		}
		cur = tickerCurrency(cur, payload.Ticker)

		end, _ := time.Parse("2006-01-02", d)
		stmt := models.FinancialStatement{
			Ticker:   payload.Ticker,
			Kind:     kind,
			Period:   models.Period{Type: periodType, Label: periodLabel(periodType, end), End: end},
			Currency: cur,
		}

		set := func(li models.LineItem, n *eodNumber) {
			if a := amountOf(n.ptr(), cur); a.IsAvailable() {
				stmt.Set(li, a)
			}
		}

		switch kind {
		case models.StatementIncome:
			set(models.LineRevenue, e.TotalRevenue)
			set(models.LineCostOfRevenue, e.CostOfRevenue)
			set(models.LineGrossProfit, e.GrossProfit)
			set(models.LineOperatingExpense, e.TotalOperatingExpenses)
			set(models.LineOperatingIncome, e.OperatingIncome)
			set(models.LineEBITDA, e.Ebitda)
			set(models.LineDepreciation, e.DepreciationAndAmortization)
			set(models.LineInterestExpense, e.InterestExpense)
			set(models.LinePretaxIncome, e.IncomeBeforeTax)
			set(models.LineTaxExpense, e.IncomeTaxExpense)
			set(models.LineNetIncome, e.NetIncome)
		case models.StatementBalance:
			set(models.LineTotalAssets, e.TotalAssets)
			set(models.LineCurrentAssets, e.TotalCurrentAssets)
			set(models.LineCashEquivalents, e.Cash)
			set(models.LineInventory, e.Inventory)
			set(models.LineTotalLiabilities, e.TotalLiab)
			set(models.LineCurrentLiabilities, e.TotalCurrentLiabilities)
			set(models.LineTotalDebt, e.ShortLongTermDebtTotal)
			set(models.LineTotalEquity, e.TotalStockholderEquity)
		case models.StatementCashFlow:
			set(models.LineOperatingCashFlow, e.TotalCashFromOperatingActivities)
			set(models.LineInvestingCashFlow, e.TotalCashflowsFromInvesting)
			set(models.LineFinancingCashFlow, e.TotalCashFromFinancing)
			set(models.LineCapEx, e.CapitalExpenditures)
			set(models.LineFreeCashFlow, e.FreeCashFlow)
			set(models.LineDividendsPaid, e.DividendsPaid)
		}
		rec.Statements = append(rec.Statements, stmt)
	}
	return nil
}
