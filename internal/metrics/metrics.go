// Package metrics derives financial ratios and growth figures from
// canonical records through a registry of named formulas.
//
// Formulas fail closed: an unavailable input or a zero denominator
// yields an unavailable metric carrying the reason, never a zero or an
// infinity. Growth formulas additionally require their two periods to
// share a period type; mixing annual with quarterly is a period
// mismatch. Computation is pure: the same inputs always produce the
// same metrics, in registry name order.
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/moneymitra/moneymitra/pkg/models"
)

// ErrPeriodMismatch is reported when a growth formula is given two
// periods of different types.
var ErrPeriodMismatch = errors.New("period mismatch")

// Inputs bundles the canonical data formulas draw on. Statements are
// newest first. Any field may be missing; formulas degrade per-metric.
type Inputs struct {
	Quote   *models.Quote
	Profile *models.CompanyProfile

	AnnualIncome    []models.FinancialStatement
	QuarterlyIncome []models.FinancialStatement
	AnnualBalance   []models.FinancialStatement
	AnnualCashFlow  []models.FinancialStatement
}

// InputsFromRecords merges canonical records into formula inputs. The
// first record carrying a field wins, so record order encodes provider
// preference.
func InputsFromRecords(records []*models.CanonicalRecord) *Inputs {
	in := &Inputs{}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if in.Quote == nil && rec.Quote != nil {
			in.Quote = rec.Quote
		}
		if in.Profile == nil && rec.Profile != nil {
			in.Profile = rec.Profile
		}
		for _, s := range rec.Statements {
			switch {
			case s.Kind == models.StatementIncome && s.Period.Type == models.PeriodAnnual:
				in.AnnualIncome = append(in.AnnualIncome, s)
			case s.Kind == models.StatementIncome && s.Period.Type == models.PeriodQuarterly:
				in.QuarterlyIncome = append(in.QuarterlyIncome, s)
			case s.Kind == models.StatementBalance && s.Period.Type == models.PeriodAnnual:
				in.AnnualBalance = append(in.AnnualBalance, s)
			case s.Kind == models.StatementCashFlow && s.Period.Type == models.PeriodAnnual:
				in.AnnualCashFlow = append(in.AnnualCashFlow, s)
			}
		}
	}
	return in
}

// Formula computes one named metric from the inputs.
type Formula struct {
	Name string
	Unit models.MetricUnit
	Fn   func(in *Inputs) models.DerivedMetric
}

var registry = map[string]Formula{}

// register adds a formula at init time. Duplicate names panic: the
// registry is wired statically and a collision is a programming error.
func register(f Formula) {
	if _, dup := registry[f.Name]; dup {
		panic(fmt.Sprintf("metrics: duplicate formula %q", f.Name))
	}
	registry[f.Name] = f
}

// Names returns all registered formula names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compute runs every registered formula over the inputs. The result
// always has one entry per formula, in name order; metrics that could
// not be computed appear as unavailable with a reason.
func Compute(in *Inputs) []models.DerivedMetric {
	if in == nil {
		in = &Inputs{}
	}
	out := make([]models.DerivedMetric, 0, len(registry))
	for _, name := range Names() {
		f := registry[name]
		m := f.Fn(in)
		m.Name = name
		m.Unit = f.Unit
		if !m.Available {
			m.Value = 0
			m.Unit = ""
		}
		out = append(out, m)
	}
	return out
}

// ComputeOne runs a single formula by name.
func ComputeOne(name string, in *Inputs) (models.DerivedMetric, error) {
	f, ok := registry[name]
	if !ok {
		return models.DerivedMetric{}, fmt.Errorf("unknown metric %q", name)
	}
	if in == nil {
		in = &Inputs{}
	}
	m := f.Fn(in)
	m.Name = name
	m.Unit = f.Unit
	return m, nil
}

// --- Shared computation helpers ---

// ratioOf divides two amounts. Unavailable operands, a zero
// denominator, and mismatched currencies all fail closed.
func ratioOf(num, den models.Amount, numName, denName, period string) models.DerivedMetric {
	if !num.IsAvailable() {
		return models.MetricUnavailable("", numName+" unavailable")
	}
	if !den.IsAvailable() {
		return models.MetricUnavailable("", denName+" unavailable")
	}
	if den.Value == 0 {
		return models.MetricUnavailable("", denName+" is zero")
	}
	if num.Currency != den.Currency {
		return models.MetricUnavailable("", fmt.Sprintf("currency mismatch: %s vs %s", num.Currency, den.Currency))
	}
	return models.MetricValue("", num.Value/den.Value, models.UnitRatio, period)
}

// growthOf computes percent growth between two periods of the same
// line item. Periods of different types are a mismatch; a zero base is
// a zero denominator.
func growthOf(current, previous models.FinancialStatement, li models.LineItem) models.DerivedMetric {
	if !current.Period.SameType(previous.Period) {
		return models.MetricUnavailable("", fmt.Sprintf("%v: %s vs %s", ErrPeriodMismatch, current.Period.Type, previous.Period.Type))
	}
	cur := current.Item(li)
	prev := previous.Item(li)
	if !cur.IsAvailable() {
		return models.MetricUnavailable("", string(li)+" unavailable for "+current.Period.Label)
	}
	if !prev.IsAvailable() {
		return models.MetricUnavailable("", string(li)+" unavailable for "+previous.Period.Label)
	}
	if prev.Value == 0 {
		return models.MetricUnavailable("", string(li)+" is zero for "+previous.Period.Label)
	}
	if cur.Currency != prev.Currency {
		return models.MetricUnavailable("", fmt.Sprintf("currency mismatch: %s vs %s", cur.Currency, prev.Currency))
	}
	growth := (cur.Value - prev.Value) / abs(prev.Value) * 100
	period := previous.Period.Label + " -> " + current.Period.Label
	return models.MetricValue("", growth, models.UnitPercent, period)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// latest returns the newest statement, or false when none exist.
func latest(stmts []models.FinancialStatement) (models.FinancialStatement, bool) {
	if len(stmts) == 0 {
		return models.FinancialStatement{}, false
	}
	return stmts[0], true
}

// pair returns the two newest statements for growth comparisons.
func pair(stmts []models.FinancialStatement) (cur, prev models.FinancialStatement, ok bool) {
	if len(stmts) < 2 {
		return models.FinancialStatement{}, models.FinancialStatement{}, false
	}
	return stmts[0], stmts[1], true
}

// marketCap resolves the market cap, preferring the quote's.
func marketCap(in *Inputs) models.Amount {
	if in.Quote != nil && in.Quote.MarketCap.IsAvailable() {
		return in.Quote.MarketCap
	}
	if in.Profile != nil {
		return in.Profile.MarketCap
	}
	return models.Unavailable()
}
