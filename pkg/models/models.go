// Package models defines the canonical, provider-independent data
// structures used throughout Money-Mitra. Everything downstream of the
// normalizer speaks only these types.
package models

import (
	"encoding/json"
	"time"
)

// Amount is a numeric financial value with an explicit currency tag.
// An Amount is either available (value + currency) or unavailable.
// Unavailable is distinct from zero: a missing field must never be
// defaulted to 0.
type Amount struct {
	Value     float64
	Currency  string // ISO 4217, e.g. "INR", "USD"
	Available bool
}

// Amt returns an available amount.
func Amt(value float64, currency string) Amount {
	return Amount{Value: value, Currency: currency, Available: true}
}

// Unavailable returns the unavailable amount.
func Unavailable() Amount {
	return Amount{}
}

// IsAvailable reports whether the amount carries a usable value.
func (a Amount) IsAvailable() bool { return a.Available }

// amountJSON is the wire shape of an available Amount.
type amountJSON struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// MarshalJSON renders an unavailable amount as null so a bare number
// with an ambiguous currency can never appear on the wire.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Available {
		return []byte("null"), nil
	}
	return json.Marshal(amountJSON{Value: a.Value, Currency: a.Currency})
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Unavailable()
		return nil
	}
	var aj amountJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return err
	}
	*a = Amt(aj.Value, aj.Currency)
	return nil
}

// Quote is a point-in-time price observation. Immutable once recorded;
// identified by (ticker, timestamp).
type Quote struct {
	Ticker        string    `json:"ticker"` // canonical, e.g. "NSE:RELIANCE"
	Name          string    `json:"name,omitempty"`
	LastPrice     float64   `json:"last_price"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        int64     `json:"volume"`
	WeekHigh52    float64   `json:"week_high_52,omitempty"`
	WeekLow52     float64   `json:"week_low_52,omitempty"`
	MarketCap     Amount    `json:"market_cap"`
	Currency      string    `json:"currency"`
	Timestamp     time.Time `json:"timestamp"`
}

// OHLCV is a single candlestick bar of historical price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Currency  string    `json:"currency"`
}

// CompanyProfile describes the company behind a ticker. Refreshed on each
// fetch; no history is retained.
type CompanyProfile struct {
	Ticker            string `json:"ticker"`
	Name              string `json:"name"`
	Exchange          string `json:"exchange"` // "NSE", "BSE", "NASDAQ", ...
	Sector            string `json:"sector,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Description       string `json:"description,omitempty"`
	MarketCap         Amount `json:"market_cap"`
	SharesOutstanding float64 `json:"shares_outstanding,omitempty"`
	Currency          string `json:"currency"`
}

// NewsArticle is a single news item about a company or the market.
type NewsArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// WatchlistEntry is a ticker on a user's watchlist. Tickers are unique
// within a watchlist (set semantics).
type WatchlistEntry struct {
	Ticker  string    `json:"ticker"`
	AddedAt time.Time `json:"added_at"`
	Note    string    `json:"note,omitempty"`
}

// CanonicalRecord is the normalizer's output: one provider payload
// translated into the canonical schema. A record carries whichever of the
// fields the payload covered; the rest stay nil.
type CanonicalRecord struct {
	Ticker     string               `json:"ticker"`
	Provider   string               `json:"provider"`
	Quote      *Quote               `json:"quote,omitempty"`
	Historical []OHLCV              `json:"historical,omitempty"`
	Profile    *CompanyProfile      `json:"profile,omitempty"`
	Statements []FinancialStatement `json:"statements,omitempty"`
	News       []NewsArticle        `json:"news,omitempty"`
	FetchedAt  time.Time            `json:"fetched_at"`
}
