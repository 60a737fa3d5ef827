package utils

import "time"

// IST is the Indian Standard Time location (UTC+5:30). Report timestamps
// and market-session checks use IST since NSE/BSE are the primary markets.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ToIST converts a time.Time to IST.
func ToIST(t time.Time) time.Time {
	return t.In(IST)
}

// IsMarketOpenAt checks if the NSE market would be open at the given time
// (9:15–15:30 IST, weekdays; exchange holidays are not modelled).
func IsMarketOpenAt(t time.Time) bool {
	t = t.In(IST)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), 9, 15, 0, 0, IST)
	closeT := time.Date(t.Year(), t.Month(), t.Day(), 15, 30, 0, 0, IST)
	return !t.Before(open) && t.Before(closeT)
}

// MarketStatus returns a human-readable NSE market session status.
func MarketStatus() string {
	if IsMarketOpenAt(NowIST()) {
		return "OPEN"
	}
	return "CLOSED"
}
