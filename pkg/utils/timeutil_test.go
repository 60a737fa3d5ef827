package utils

import (
	"testing"
	"time"
)

func TestIsMarketOpenAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday mid-session", time.Date(2026, 8, 19, 11, 0, 0, 0, IST), true},
		{"weekday before open", time.Date(2026, 8, 19, 9, 0, 0, 0, IST), false},
		{"weekday at open", time.Date(2026, 8, 19, 9, 15, 0, 0, IST), true},
		{"weekday at close", time.Date(2026, 8, 19, 15, 30, 0, 0, IST), false},
		{"saturday", time.Date(2026, 8, 22, 11, 0, 0, 0, IST), false},
		{"sunday", time.Date(2026, 8, 23, 11, 0, 0, 0, IST), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMarketOpenAt(tt.at); got != tt.want {
				t.Errorf("IsMarketOpenAt(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsMarketOpenAt_ConvertsToIST(t *testing.T) {
	// 06:00 UTC is 11:30 IST, inside the session.
	utc := time.Date(2026, 8, 19, 6, 0, 0, 0, time.UTC)
	if !IsMarketOpenAt(utc) {
		t.Error("UTC times must be evaluated in IST")
	}
}
