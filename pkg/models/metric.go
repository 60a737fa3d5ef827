package models

// MetricUnit describes what a derived metric's value means.
type MetricUnit string

const (
	UnitRatio    MetricUnit = "ratio"    // dimensionless, e.g. netMargin = 0.10
	UnitPercent  MetricUnit = "percent"  // 0-100 scale
	UnitCurrency MetricUnit = "currency" // value in Currency
)

// DerivedMetric is a ratio or growth figure computed from canonical
// records. Metrics are recomputed on demand and never persisted as a
// source of truth. An unavailable metric carries the reason it could not
// be computed instead of a value.
type DerivedMetric struct {
	Name      string     `json:"name"`    // formula id, e.g. "netMargin"
	Value     float64    `json:"value,omitempty"`
	Unit      MetricUnit `json:"unit"`
	Currency  string     `json:"currency,omitempty"` // set when Unit is currency
	Period    string     `json:"period,omitempty"`   // period label(s) the inputs came from
	Available bool       `json:"available"`
	Reason    string     `json:"reason,omitempty"` // why unavailable
}

// MetricValue returns an available metric.
func MetricValue(name string, value float64, unit MetricUnit, period string) DerivedMetric {
	return DerivedMetric{Name: name, Value: value, Unit: unit, Period: period, Available: true}
}

// MetricUnavailable returns an unavailable metric with a reason.
func MetricUnavailable(name, reason string) DerivedMetric {
	return DerivedMetric{Name: name, Available: false, Reason: reason}
}
