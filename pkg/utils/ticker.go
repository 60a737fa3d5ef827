// Package utils provides common utility functions for Money-Mitra.
package utils

import (
	"strings"
)

// The canonical ticker format is exchange-qualified: "NSE:RELIANCE",
// "BSE:500325", "NASDAQ:AAPL". Unqualified input defaults to NSE, the
// primary market this tool targets.

// DefaultExchange is assumed when the user omits the exchange qualifier.
const DefaultExchange = "NSE"

// Common NSE ticker aliases and normalizations.
var tickerAliases = map[string]string{
	"RIL":           "RELIANCE",
	"INFOSYS":       "INFY",
	"HDFC BANK":     "HDFCBANK",
	"ICICI BANK":    "ICICIBANK",
	"SBI":           "SBIN",
	"AIRTEL":        "BHARTIARTL",
	"L&T":           "LT",
	"TATA MOTORS":   "TATAMOTORS",
	"TATA STEEL":    "TATASTEEL",
	"HCL TECH":      "HCLTECH",
	"KOTAK":         "KOTAKBANK",
	"AXIS BANK":     "AXISBANK",
	"SUN PHARMA":    "SUNPHARMA",
	"ASIAN PAINTS":  "ASIANPAINT",
	"NESTLE":        "NESTLEIND",
	"ULTRATECH":     "ULTRACEMCO",
	"TECH MAHINDRA": "TECHM",
	"MAHINDRA":      "M&M",
	"HUL":           "HINDUNILVR",
	"COAL INDIA":    "COALINDIA",
}

// exchangeCurrency maps an exchange to its trading currency. Used as a
// last resort when a provider payload carries no currency of its own.
var exchangeCurrency = map[string]string{
	"NSE":    "INR",
	"BSE":    "INR",
	"NASDAQ": "USD",
	"NYSE":   "USD",
	"LSE":    "GBP",
}

// NormalizeTicker canonicalizes user input into the exchange-qualified
// form. It handles aliases, uppercasing, whitespace, the $ chat prefix,
// and Yahoo-style suffixes (".NS", ".BO").
func NormalizeTicker(ticker string) string {
	t := strings.TrimSpace(strings.ToUpper(ticker))
	t = strings.TrimPrefix(t, "$")

	exchange := ""
	if i := strings.IndexByte(t, ':'); i >= 0 {
		exchange, t = t[:i], t[i+1:]
	}

	// Yahoo-style suffixes carry the exchange too.
	switch {
	case strings.HasSuffix(t, ".NS"):
		exchange, t = "NSE", strings.TrimSuffix(t, ".NS")
	case strings.HasSuffix(t, ".BO"):
		exchange, t = "BSE", strings.TrimSuffix(t, ".BO")
	}

	if canonical, ok := tickerAliases[t]; ok {
		t = canonical
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	return exchange + ":" + t
}

// SplitTicker splits a canonical ticker into exchange and symbol.
// Unqualified input gets the default exchange.
func SplitTicker(ticker string) (exchange, symbol string) {
	t := NormalizeTicker(ticker)
	i := strings.IndexByte(t, ':')
	return t[:i], t[i+1:]
}

// ExchangeCurrency returns the trading currency for an exchange, or ""
// when the exchange is unknown. Callers must treat "" as unavailable,
// never as a default.
func ExchangeCurrency(exchange string) string {
	return exchangeCurrency[strings.ToUpper(exchange)]
}

// ToYahooTicker converts a canonical ticker to Yahoo Finance format:
// NSE symbols get ".NS", BSE ".BO", US exchanges are bare.
func ToYahooTicker(ticker string) string {
	exchange, symbol := SplitTicker(ticker)
	switch exchange {
	case "NSE":
		return symbol + ".NS"
	case "BSE":
		return symbol + ".BO"
	case "LSE":
		return symbol + ".L"
	default:
		return symbol
	}
}

// ToEODHDTicker converts a canonical ticker to EODHD format, which
// suffixes the exchange code itself: "RELIANCE.NSE", "AAPL.US".
func ToEODHDTicker(ticker string) string {
	exchange, symbol := SplitTicker(ticker)
	switch exchange {
	case "NASDAQ", "NYSE":
		return symbol + ".US"
	default:
		return symbol + "." + exchange
	}
}

// FromYahooTicker converts a Yahoo ticker back to canonical form.
func FromYahooTicker(yahoo string) string {
	return NormalizeTicker(yahoo)
}
