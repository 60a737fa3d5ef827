package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/moneymitra/moneymitra/internal/provider"
	"github.com/moneymitra/moneymitra/pkg/models"
	"github.com/moneymitra/moneymitra/pkg/utils"
)

// --- Yahoo Finance response types ---

// yfValue is Yahoo's {"raw": n, "fmt": "..."} wrapper. A nil receiver
// or nil Raw means the field was absent.
type yfValue struct {
	Raw *float64 `json:"raw"`
}

func (v *yfValue) ptr() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	Currency                   string   `json:"currency"`
	RegularMarketPrice         float64  `json:"regularMarketPrice"`
	RegularMarketChange        float64  `json:"regularMarketChange"`
	RegularMarketChangePercent float64  `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64  `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64  `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64  `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64  `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64    `json:"regularMarketVolume"`
	FiftyTwoWeekHigh           float64  `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64  `json:"fiftyTwoWeekLow"`
	MarketCap                  *float64 `json:"marketCap"`
	RegularMarketTime          int64    `json:"regularMarketTime"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta struct {
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"assetProfile"`
	Price *struct {
		LongName         string   `json:"longName"`
		ShortName        string   `json:"shortName"`
		Currency         string   `json:"currency"`
		ExchangeName     string   `json:"exchangeName"`
		MarketCap        *yfValue `json:"marketCap"`
	} `json:"price"`
	DefaultKeyStatistics *struct {
		SharesOutstanding *yfValue `json:"sharesOutstanding"`
	} `json:"defaultKeyStatistics"`

	IncomeStatementHistory            *yfStatementContainer `json:"incomeStatementHistory"`
	IncomeStatementHistoryQuarterly   *yfStatementContainer `json:"incomeStatementHistoryQuarterly"`
	BalanceSheetHistory               *yfStatementContainer `json:"balanceSheetHistory"`
	BalanceSheetHistoryQuarterly      *yfStatementContainer `json:"balanceSheetHistoryQuarterly"`
	CashflowStatementHistory          *yfStatementContainer `json:"cashflowStatementHistory"`
	CashflowStatementHistoryQuarterly *yfStatementContainer `json:"cashflowStatementHistoryQuarterly"`
}

// yfStatementContainer holds statement entries under one of three
// member names depending on the module.
type yfStatementContainer struct {
	IncomeStatements    []yfStatement `json:"incomeStatementHistory"`
	BalanceSheets       []yfStatement `json:"balanceSheetStatements"`
	CashflowStatements  []yfStatement `json:"cashflowStatements"`
}

func (c *yfStatementContainer) entries() []yfStatement {
	if c == nil {
		return nil
	}
	switch {
	case len(c.IncomeStatements) > 0:
		return c.IncomeStatements
	case len(c.BalanceSheets) > 0:
		return c.BalanceSheets
	default:
		return c.CashflowStatements
	}
}

type yfStatement struct {
	EndDate *yfValue `json:"endDate"`

	// Income statement
	TotalRevenue           *yfValue `json:"totalRevenue"`
	CostOfRevenue          *yfValue `json:"costOfRevenue"`
	GrossProfit            *yfValue `json:"grossProfit"`
	TotalOperatingExpenses *yfValue `json:"totalOperatingExpenses"`
	OperatingIncome        *yfValue `json:"operatingIncome"`
	Ebit                   *yfValue `json:"ebit"`
	InterestExpense        *yfValue `json:"interestExpense"`
	IncomeBeforeTax        *yfValue `json:"incomeBeforeTax"`
	IncomeTaxExpense       *yfValue `json:"incomeTaxExpense"`
	NetIncome              *yfValue `json:"netIncome"`

	// Balance sheet
	TotalAssets             *yfValue `json:"totalAssets"`
	TotalCurrentAssets      *yfValue `json:"totalCurrentAssets"`
	Cash                    *yfValue `json:"cash"`
	Inventory               *yfValue `json:"inventory"`
	TotalLiab               *yfValue `json:"totalLiab"`
	TotalCurrentLiabilities *yfValue `json:"totalCurrentLiabilities"`
	ShortLongTermDebt       *yfValue `json:"shortLongTermDebt"`
	LongTermDebt            *yfValue `json:"longTermDebt"`
	TotalStockholderEquity  *yfValue `json:"totalStockholderEquity"`

	// Cash flow
	TotalCashFromOperatingActivities *yfValue `json:"totalCashFromOperatingActivities"`
	TotalCashflowsFromInvesting      *yfValue `json:"totalCashflowsFromInvestingActivities"`
	TotalCashFromFinancing           *yfValue `json:"totalCashFromFinancingActivities"`
	CapitalExpenditures              *yfValue `json:"capitalExpenditures"`
	DividendsPaid                    *yfValue `json:"dividendsPaid"`
}

// --- Translation ---

func yfNormalize(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	switch payload.Kind {
	case provider.KindQuote:
		return yfQuote(payload, rec)
	case provider.KindHistorical:
		return yfHistorical(payload, rec)
	case provider.KindProfile:
		return yfProfile(payload, rec)
	case provider.KindIncomeStatement, provider.KindBalanceSheet, provider.KindCashFlow:
		return yfStatements(payload, rec)
	default:
		return fmt.Errorf("%w: yfinance has no %q payloads", ErrMalformedPayload, payload.Kind)
	}
}

// tickerCurrency is the last-resort currency when a payload carries
// none: the listing exchange's trading currency. Returns "" when the
// exchange is unknown, which downstream treats as unavailable.
func tickerCurrency(reported, ticker string) string {
	if reported != "" {
		return reported
	}
	exchange, _ := utils.SplitTicker(ticker)
	return utils.ExchangeCurrency(exchange)
}

func yfQuote(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var resp yfQuoteResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return fmt.Errorf("%w: yfinance quote: %v", ErrMalformedPayload, err)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return fmt.Errorf("%w: yfinance quote: empty result", ErrMalformedPayload)
	}
	r := resp.QuoteResponse.Result[0]
	cur := tickerCurrency(r.Currency, payload.Ticker)

	name := r.LongName
	if name == "" {
		name = r.ShortName
	}

	rec.Quote = &models.Quote{
		Ticker:     payload.Ticker,
		Name:       name,
		LastPrice:  r.RegularMarketPrice,
		Change:     r.RegularMarketChange,
		ChangePct:  r.RegularMarketChangePercent,
		Open:       r.RegularMarketOpen,
		High:       r.RegularMarketDayHigh,
		Low:        r.RegularMarketDayLow,
		PrevClose:  r.RegularMarketPreviousClose,
		Volume:     r.RegularMarketVolume,
		WeekHigh52: r.FiftyTwoWeekHigh,
		WeekLow52:  r.FiftyTwoWeekLow,
		MarketCap:  amountOf(r.MarketCap, cur),
		Currency:   cur,
		Timestamp:  time.Unix(r.RegularMarketTime, 0),
	}
	return nil
}

func yfHistorical(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var resp yfChartResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return fmt.Errorf("%w: yfinance chart: %v", ErrMalformedPayload, err)
	}
	if len(resp.Chart.Result) == 0 {
		return fmt.Errorf("%w: yfinance chart: empty result", ErrMalformedPayload)
	}
	r := resp.Chart.Result[0]
	cur := tickerCurrency(r.Meta.Currency, payload.Ticker)
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]

	bars := make([]models.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// Yahoo pads holidays with nulls; skip incomplete bars.
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		bar := models.OHLCV{
			Timestamp: time.Unix(ts, 0),
			Close:     *q.Close[i],
			Currency:  cur,
		}
		if i < len(q.Open) && q.Open[i] != nil {
			bar.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			bar.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			bar.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			bar.Volume = *q.Volume[i]
		}
		bars = append(bars, bar)
	}
	rec.Historical = bars
	return nil
}

func yfProfile(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var resp yfQuoteSummaryResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return fmt.Errorf("%w: yfinance profile: %v", ErrMalformedPayload, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return fmt.Errorf("%w: yfinance profile: empty result", ErrMalformedPayload)
	}
	r := resp.QuoteSummary.Result[0]

	exchange, _ := utils.SplitTicker(payload.Ticker)
	profile := &models.CompanyProfile{
		Ticker:   payload.Ticker,
		Exchange: exchange,
	}
	cur := ""
	if r.Price != nil {
		profile.Name = r.Price.LongName
		if profile.Name == "" {
			profile.Name = r.Price.ShortName
		}
		cur = r.Price.Currency
	}
	cur = tickerCurrency(cur, payload.Ticker)
	profile.Currency = cur
	if r.Price != nil {
		profile.MarketCap = amountOf(r.Price.MarketCap.ptr(), cur)
	}
	if r.AssetProfile != nil {
		profile.Sector = r.AssetProfile.Sector
		profile.Industry = r.AssetProfile.Industry
		profile.Description = r.AssetProfile.LongBusinessSummary
	}
	if r.DefaultKeyStatistics != nil {
		if v := r.DefaultKeyStatistics.SharesOutstanding.ptr(); v != nil {
			profile.SharesOutstanding = *v
		}
	}
	rec.Profile = profile
	return nil
}

func yfStatements(payload *provider.RawPayload, rec *models.CanonicalRecord) error {
	var resp yfQuoteSummaryResponse
	if err := json.Unmarshal(payload.Body, &resp); err != nil {
		return fmt.Errorf("%w: yfinance statements: %v", ErrMalformedPayload, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return fmt.Errorf("%w: yfinance statements: empty result", ErrMalformedPayload)
	}
	r := resp.QuoteSummary.Result[0]

	periodType := models.PeriodAnnual
	if payload.Period == "quarterly" {
		periodType = models.PeriodQuarterly
	}

	var container *yfStatementContainer
	var kind models.StatementKind
	switch payload.Kind {
	case provider.KindIncomeStatement:
		kind = models.StatementIncome
		container = r.IncomeStatementHistory
		if periodType == models.PeriodQuarterly {
			container = r.IncomeStatementHistoryQuarterly
		}
	case provider.KindBalanceSheet:
		kind = models.StatementBalance
		container = r.BalanceSheetHistory
		if periodType == models.PeriodQuarterly {
			container = r.BalanceSheetHistoryQuarterly
		}
	case provider.KindCashFlow:
		kind = models.StatementCashFlow
		container = r.CashflowStatementHistory
		if periodType == models.PeriodQuarterly {
			container = r.CashflowStatementHistoryQuarterly
		}
	}

	cur := tickerCurrency("", payload.Ticker)
	for _, entry := range container.entries() {
		stmt := yfStatementOf(entry, payload.Ticker, kind, periodType, cur)
		rec.Statements = append(rec.Statements, stmt)
	}
	return nil
}

func yfStatementOf(e yfStatement, ticker string, kind models.StatementKind, pt models.PeriodType, cur string) models.FinancialStatement {
	var end time.Time
	if v := e.EndDate.ptr(); v != nil {
		end = time.Unix(int64(*v), 0).UTC()
	}
	label := periodLabel(pt, end)

	stmt := models.FinancialStatement{
		Ticker:   ticker,
		Kind:     kind,
		Period:   models.Period{Type: pt, Label: label, End: end},
		Currency: cur,
	}

	set := func(li models.LineItem, v *yfValue) {
		if a := amountOf(v.ptr(), cur); a.IsAvailable() {
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
		set(models.LineTotalEquity, e.TotalStockholderEquity)
		// Total debt = short-term + long-term when either is reported.
		if s, l := e.ShortLongTermDebt.ptr(), e.LongTermDebt.ptr(); s != nil || l != nil {
			var total float64
			if s != nil {
				total += *s
			}
			if l != nil {
				total += *l
			}
			if cur != "" {
				stmt.Set(models.LineTotalDebt, models.Amt(total, cur))
			}
		}
	case models.StatementCashFlow:
		set(models.LineOperatingCashFlow, e.TotalCashFromOperatingActivities)
		set(models.LineInvestingCashFlow, e.TotalCashflowsFromInvesting)
		set(models.LineFinancingCashFlow, e.TotalCashFromFinancing)
		set(models.LineCapEx, e.CapitalExpenditures)
		set(models.LineDividendsPaid, e.DividendsPaid)
		// Free cash flow = operating cash flow - capex, both reported.
		if o, c := e.TotalCashFromOperatingActivities.ptr(), e.CapitalExpenditures.ptr(); o != nil && c != nil && cur != "" {
			// Yahoo reports capex as a negative outflow.
			stmt.Set(models.LineFreeCashFlow, models.Amt(*o+*c, cur))
		}
	}
	return stmt
}

// periodLabel renders "FY2025" for annual periods and month-year
// labels ("Mar 2025") for quarters.
func periodLabel(pt models.PeriodType, end time.Time) string {
	if end.IsZero() {
		return ""
	}
	if pt == models.PeriodAnnual {
		return fmt.Sprintf("FY%d", end.Year())
	}
	return end.Format("Jan 2006")
}
