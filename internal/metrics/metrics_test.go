package metrics

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/moneymitra/moneymitra/pkg/models"
)

func annualIncome(label string, year int, items map[models.LineItem]float64) models.FinancialStatement {
	s := models.FinancialStatement{
		Ticker: "NSE:RELIANCE",
		Kind:   models.StatementIncome,
		Period: models.Period{
			Type:  models.PeriodAnnual,
			Label: label,
			End:   time.Date(year, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		Currency: "INR",
	}
	for li, v := range items {
		s.Set(li, models.Amt(v, "INR"))
	}
	return s
}

func metricByName(t *testing.T, out []models.DerivedMetric, name string) models.DerivedMetric {
	t.Helper()
	for _, m := range out {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("metric %q not in output", name)
	return models.DerivedMetric{}
}

func TestNetMargin(t *testing.T) {
	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{
				models.LineRevenue:   100,
				models.LineNetIncome: 10,
			}),
		},
	}
	m, err := ComputeOne("netMargin", in)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Available || m.Value != 0.10 {
		t.Errorf("netMargin: got %+v, want 0.10", m)
	}
	if m.Unit != models.UnitRatio {
		t.Errorf("unit: got %q", m.Unit)
	}
}

func TestZeroRevenueFailsClosed(t *testing.T) {
	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{
				models.LineRevenue:   0,
				models.LineNetIncome: 10,
			}),
		},
	}
	m, _ := ComputeOne("netMargin", in)
	if m.Available {
		t.Fatalf("zero denominator must yield unavailable, got %+v", m)
	}
	if !strings.Contains(m.Reason, "zero") {
		t.Errorf("reason should mention the zero denominator: %q", m.Reason)
	}
}

func TestUnavailableInputPropagates(t *testing.T) {
	// Revenue present, net income absent.
	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{
				models.LineRevenue: 100,
			}),
		},
	}
	m, _ := ComputeOne("netMargin", in)
	if m.Available {
		t.Fatalf("missing input must yield unavailable, got %+v", m)
	}
	if !strings.Contains(m.Reason, "netIncome") {
		t.Errorf("reason should name the missing input: %q", m.Reason)
	}
}

func TestRevenueGrowthYoY(t *testing.T) {
	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{models.LineRevenue: 120}),
			annualIncome("FY2024", 2024, map[models.LineItem]float64{models.LineRevenue: 100}),
		},
	}
	m, _ := ComputeOne("revenueGrowthYoY", in)
	if !m.Available || m.Value != 20 {
		t.Errorf("revenueGrowthYoY: got %+v, want +20%%", m)
	}
	if m.Unit != models.UnitPercent {
		t.Errorf("unit: got %q", m.Unit)
	}
}

func TestGrowthNegativeBase(t *testing.T) {
	// Loss shrinking from -100 to -50 is +50% toward profitability.
	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{models.LineNetIncome: -50}),
			annualIncome("FY2024", 2024, map[models.LineItem]float64{models.LineNetIncome: -100}),
		},
	}
	m, _ := ComputeOne("netIncomeGrowthYoY", in)
	if !m.Available || m.Value != 50 {
		t.Errorf("growth over negative base: got %+v, want +50%%", m)
	}
}

func TestPeriodMismatch(t *testing.T) {
	quarterly := annualIncome("Mar 2025", 2025, map[models.LineItem]float64{models.LineRevenue: 30})
	quarterly.Period.Type = models.PeriodQuarterly

	in := &Inputs{
		AnnualIncome: []models.FinancialStatement{
			quarterly,
			annualIncome("FY2024", 2024, map[models.LineItem]float64{models.LineRevenue: 100}),
		},
	}
	m, _ := ComputeOne("revenueGrowthYoY", in)
	if m.Available {
		t.Fatalf("mixed periods must fail closed, got %+v", m)
	}
	if !strings.Contains(m.Reason, "period mismatch") {
		t.Errorf("reason should report the mismatch: %q", m.Reason)
	}
}

func TestCurrencyMismatchFailsClosed(t *testing.T) {
	stmt := annualIncome("FY2025", 2025, map[models.LineItem]float64{models.LineRevenue: 100})
	stmt.Set(models.LineNetIncome, models.Amt(10, "USD"))

	in := &Inputs{AnnualIncome: []models.FinancialStatement{stmt}}
	m, _ := ComputeOne("netMargin", in)
	if m.Available {
		t.Fatalf("currency mismatch must fail closed, got %+v", m)
	}
	if !strings.Contains(m.Reason, "currency") {
		t.Errorf("reason: %q", m.Reason)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	in := &Inputs{
		Quote: &models.Quote{Ticker: "NSE:RELIANCE", MarketCap: models.Amt(1000, "INR")},
		AnnualIncome: []models.FinancialStatement{
			annualIncome("FY2025", 2025, map[models.LineItem]float64{
				models.LineRevenue:   100,
				models.LineNetIncome: 10,
			}),
		},
	}
	first := Compute(in)
	second := Compute(in)
	if !reflect.DeepEqual(first, second) {
		t.Error("Compute must be pure: identical inputs gave different outputs")
	}
}

func TestComputeCoversEveryFormula(t *testing.T) {
	out := Compute(&Inputs{})
	if len(out) != len(Names()) {
		t.Fatalf("got %d metrics, want %d", len(out), len(Names()))
	}
	for _, m := range out {
		if m.Available {
			t.Errorf("%s: no inputs, must be unavailable", m.Name)
		}
		if m.Reason == "" {
			t.Errorf("%s: unavailable without a reason", m.Name)
		}
	}
	// Output follows registry name order.
	for i, name := range Names() {
		if out[i].Name != name {
			t.Errorf("position %d: got %q want %q", i, out[i].Name, name)
		}
	}
}

func TestDebtToEquityAndCurrentRatio(t *testing.T) {
	bs := models.FinancialStatement{
		Ticker:   "NSE:RELIANCE",
		Kind:     models.StatementBalance,
		Period:   models.Period{Type: models.PeriodAnnual, Label: "FY2025"},
		Currency: "INR",
	}
	bs.Set(models.LineTotalDebt, models.Amt(300, "INR"))
	bs.Set(models.LineTotalEquity, models.Amt(600, "INR"))
	bs.Set(models.LineCurrentAssets, models.Amt(250, "INR"))
	bs.Set(models.LineCurrentLiabilities, models.Amt(125, "INR"))

	in := &Inputs{AnnualBalance: []models.FinancialStatement{bs}}
	out := Compute(in)

	if m := metricByName(t, out, "debtToEquity"); !m.Available || m.Value != 0.5 {
		t.Errorf("debtToEquity: got %+v", m)
	}
	if m := metricByName(t, out, "currentRatio"); !m.Available || m.Value != 2 {
		t.Errorf("currentRatio: got %+v", m)
	}
}

func TestInputsFromRecordsFirstProviderWins(t *testing.T) {
	q1 := &models.Quote{Ticker: "NSE:RELIANCE", LastPrice: 100}
	q2 := &models.Quote{Ticker: "NSE:RELIANCE", LastPrice: 200}
	recs := []*models.CanonicalRecord{
		{Ticker: "NSE:RELIANCE", Provider: "yfinance", Quote: q1},
		{Ticker: "NSE:RELIANCE", Provider: "eodhd", Quote: q2},
	}
	in := InputsFromRecords(recs)
	if in.Quote != q1 {
		t.Error("record order should encode provider preference")
	}
}
