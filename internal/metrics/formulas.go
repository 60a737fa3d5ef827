package metrics

import (
	"github.com/moneymitra/moneymitra/pkg/models"
)

// The formula registry. Margins and returns come off the latest annual
// statements; valuation multiples combine market cap with fundamentals;
// growth formulas compare consecutive (or year-apart) periods.

func init() {
	register(Formula{Name: "grossMargin", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, ok := latest(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "no income statement")
		}
		return ratioOf(inc.Item(models.LineGrossProfit), inc.Item(models.LineRevenue),
			"grossProfit", "revenue", inc.Period.Label)
	}})

	register(Formula{Name: "operatingMargin", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, ok := latest(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "no income statement")
		}
		return ratioOf(inc.Item(models.LineOperatingIncome), inc.Item(models.LineRevenue),
			"operatingIncome", "revenue", inc.Period.Label)
	}})

	register(Formula{Name: "netMargin", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, ok := latest(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "no income statement")
		}
		return ratioOf(inc.Item(models.LineNetIncome), inc.Item(models.LineRevenue),
			"netIncome", "revenue", inc.Period.Label)
	}})

	register(Formula{Name: "peRatio", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, ok := latest(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "no income statement")
		}
		return ratioOf(marketCap(in), inc.Item(models.LineNetIncome),
			"marketCap", "netIncome", inc.Period.Label)
	}})

	register(Formula{Name: "pbRatio", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		bs, ok := latest(in.AnnualBalance)
		if !ok {
			return models.MetricUnavailable("", "no balance sheet")
		}
		return ratioOf(marketCap(in), bs.Item(models.LineTotalEquity),
			"marketCap", "totalEquity", bs.Period.Label)
	}})

	register(Formula{Name: "debtToEquity", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		bs, ok := latest(in.AnnualBalance)
		if !ok {
			return models.MetricUnavailable("", "no balance sheet")
		}
		return ratioOf(bs.Item(models.LineTotalDebt), bs.Item(models.LineTotalEquity),
			"totalDebt", "totalEquity", bs.Period.Label)
	}})

	register(Formula{Name: "currentRatio", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		bs, ok := latest(in.AnnualBalance)
		if !ok {
			return models.MetricUnavailable("", "no balance sheet")
		}
		return ratioOf(bs.Item(models.LineCurrentAssets), bs.Item(models.LineCurrentLiabilities),
			"currentAssets", "currentLiabilities", bs.Period.Label)
	}})

	register(Formula{Name: "returnOnEquity", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		inc, okI := latest(in.AnnualIncome)
		bs, okB := latest(in.AnnualBalance)
		if !okI {
			return models.MetricUnavailable("", "no income statement")
		}
		if !okB {
			return models.MetricUnavailable("", "no balance sheet")
		}
		m := ratioOf(inc.Item(models.LineNetIncome), bs.Item(models.LineTotalEquity),
			"netIncome", "totalEquity", inc.Period.Label)
		if m.Available {
			m.Value *= 100
			m.Unit = models.UnitPercent
		}
		return m
	}})

	register(Formula{Name: "interestCoverage", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, ok := latest(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "no income statement")
		}
		return ratioOf(inc.Item(models.LineOperatingIncome), inc.Item(models.LineInterestExpense),
			"operatingIncome", "interestExpense", inc.Period.Label)
	}})

	register(Formula{Name: "evToEbitda", Unit: models.UnitRatio, Fn: func(in *Inputs) models.DerivedMetric {
		inc, okI := latest(in.AnnualIncome)
		bs, okB := latest(in.AnnualBalance)
		if !okI {
			return models.MetricUnavailable("", "no income statement")
		}
		if !okB {
			return models.MetricUnavailable("", "no balance sheet")
		}
		mc := marketCap(in)
		if !mc.IsAvailable() {
			return models.MetricUnavailable("", "marketCap unavailable")
		}
		debt := bs.Item(models.LineTotalDebt)
		cash := bs.Item(models.LineCashEquivalents)
		if !debt.IsAvailable() {
			return models.MetricUnavailable("", "totalDebt unavailable")
		}
		if !cash.IsAvailable() {
			return models.MetricUnavailable("", "cashEquivalents unavailable")
		}
		if mc.Currency != debt.Currency || mc.Currency != cash.Currency {
			return models.MetricUnavailable("", "currency mismatch across enterprise value inputs")
		}
		ev := models.Amt(mc.Value+debt.Value-cash.Value, mc.Currency)
		return ratioOf(ev, inc.Item(models.LineEBITDA), "enterpriseValue", "ebitda", inc.Period.Label)
	}})

	register(Formula{Name: "freeCashFlowYield", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		cf, ok := latest(in.AnnualCashFlow)
		if !ok {
			return models.MetricUnavailable("", "no cash flow statement")
		}
		m := ratioOf(cf.Item(models.LineFreeCashFlow), marketCap(in),
			"freeCashFlow", "marketCap", cf.Period.Label)
		if m.Available {
			m.Value *= 100
			m.Unit = models.UnitPercent
		}
		return m
	}})

	register(Formula{Name: "revenueGrowthYoY", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		cur, prev, ok := pair(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "need two annual income statements")
		}
		return growthOf(cur, prev, models.LineRevenue)
	}})

	register(Formula{Name: "revenueGrowthQoQ", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		cur, prev, ok := pair(in.QuarterlyIncome)
		if !ok {
			return models.MetricUnavailable("", "need two quarterly income statements")
		}
		return growthOf(cur, prev, models.LineRevenue)
	}})

	register(Formula{Name: "netIncomeGrowthYoY", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		cur, prev, ok := pair(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "need two annual income statements")
		}
		return growthOf(cur, prev, models.LineNetIncome)
	}})

	register(Formula{Name: "epsGrowthYoY", Unit: models.UnitPercent, Fn: func(in *Inputs) models.DerivedMetric {
		cur, prev, ok := pair(in.AnnualIncome)
		if !ok {
			return models.MetricUnavailable("", "need two annual income statements")
		}
		return growthOf(cur, prev, models.LineEPS)
	}})
}
