package utils

import (
	"fmt"
	"math"
)

// FormatMoney formats an amount with its currency. INR gets the Indian
// numbering system; everything else gets a plain two-decimal rendering.
func FormatMoney(amount float64, currency string) string {
	if currency == "INR" {
		return FormatINR(amount)
	}
	symbol := currencySymbol(currency)
	if amount < 0 {
		return "-" + symbol + fmt.Sprintf("%.2f", -amount)
	}
	return symbol + fmt.Sprintf("%.2f", amount)
}

// FormatMoneyCompact formats a large amount compactly. INR uses lakh/crore
// notation; other currencies use K/M/B suffixes.
func FormatMoneyCompact(amount float64, currency string) string {
	if currency == "INR" {
		return FormatINRCompact(amount)
	}
	symbol := currencySymbol(currency)
	prefix := symbol
	v := amount
	if v < 0 {
		prefix = "-" + symbol
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.2fK", prefix, v/1e3)
	default:
		return fmt.Sprintf("%s%.2f", prefix, v)
	}
}

func currencySymbol(currency string) string {
	switch currency {
	case "INR":
		return "₹"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	case "EUR":
		return "€"
	default:
		return currency + " "
	}
}

// FormatINR formats a number in Indian Rupee format (₹12,34,567.89),
// using the Indian numbering system: last 3 digits, then groups of 2.
func FormatINR(amount float64) string {
	if amount < 0 {
		return "-₹" + formatWithDecimals(-amount)
	}
	return "₹" + formatWithDecimals(amount)
}

// FormatINRCompact formats a number in compact Indian notation.
// e.g. 1927345 → "₹19.27 L", 192734500000 → "₹19,273.45 Cr"
func FormatINRCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := "₹"
	if negative {
		prefix = "-₹"
	}

	switch {
	case amount >= 1e7:
		return fmt.Sprintf("%s%s Cr", prefix, formatWithDecimals(amount/1e7))
	case amount >= 1e5:
		return fmt.Sprintf("%s%s L", prefix, formatWithDecimals(amount/1e5))
	case amount >= 1e3:
		return fmt.Sprintf("%s%s K", prefix, formatWithDecimals(amount/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatPct formats a percentage value with sign and suffix.
// e.g. 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// formatIndianNumber formats an integer using Indian digit grouping.
func formatIndianNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	// Last three digits, then groups of two.
	out := s[len(s)-3:]
	s = s[:len(s)-3]
	for len(s) > 2 {
		out = s[len(s)-2:] + "," + out
		s = s[:len(s)-2]
	}
	return s + "," + out
}

// formatWithDecimals renders with Indian grouping and two decimals.
// Rounding happens on the whole value so a fraction that rounds up to
// 1.00 carries into the integer part.
func formatWithDecimals(v float64) string {
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("%s.%02d", formatIndianNumber(cents/100), cents%100)
}
