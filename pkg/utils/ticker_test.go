package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RELIANCE", "NSE:RELIANCE"},
		{"reliance", "NSE:RELIANCE"},
		{"  TCS  ", "NSE:TCS"},
		{"$INFY", "NSE:INFY"},
		{"NSE:RELIANCE", "NSE:RELIANCE"},
		{"BSE:500325", "BSE:500325"},
		{"NASDAQ:AAPL", "NASDAQ:AAPL"},
		{"RELIANCE.NS", "NSE:RELIANCE"},
		{"500325.BO", "BSE:500325"},
		{"RIL", "NSE:RELIANCE"},
		{"HDFC BANK", "NSE:HDFCBANK"},
		{"SBI", "NSE:SBIN"},
		{"L&T", "NSE:LT"},
	}
	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTicker(t *testing.T) {
	exchange, symbol := SplitTicker("NSE:RELIANCE")
	if exchange != "NSE" || symbol != "RELIANCE" {
		t.Errorf("got %q, %q", exchange, symbol)
	}
	exchange, symbol = SplitTicker("TCS")
	if exchange != "NSE" || symbol != "TCS" {
		t.Errorf("unqualified: got %q, %q", exchange, symbol)
	}
}

func TestExchangeCurrency(t *testing.T) {
	if got := ExchangeCurrency("NSE"); got != "INR" {
		t.Errorf("NSE: got %q", got)
	}
	if got := ExchangeCurrency("nasdaq"); got != "USD" {
		t.Errorf("nasdaq: got %q", got)
	}
	if got := ExchangeCurrency("XETRA"); got != "" {
		t.Errorf("unknown exchange must yield empty, got %q", got)
	}
}

func TestToYahooTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NSE:RELIANCE", "RELIANCE.NS"},
		{"BSE:500325", "500325.BO"},
		{"NASDAQ:AAPL", "AAPL"},
		{"TCS", "TCS.NS"},
	}
	for _, tt := range tests {
		if got := ToYahooTicker(tt.in); got != tt.want {
			t.Errorf("ToYahooTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToEODHDTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NSE:RELIANCE", "RELIANCE.NSE"},
		{"NASDAQ:AAPL", "AAPL.US"},
		{"NYSE:IBM", "IBM.US"},
	}
	for _, tt := range tests {
		if got := ToEODHDTicker(tt.in); got != tt.want {
			t.Errorf("ToEODHDTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
