package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseExpiry parses an option expiry date ("2006-01-02") and falls back to
// one week out when the string is empty or malformed.
func ParseExpiry(s string, now time.Time) time.Time {
	if s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return now.AddDate(0, 0, 7)
}

// NextWeeklyExpiry returns the next Thursday (NSE weekly expiry). After the
// 15:00 session close on a Thursday it rolls to the following week.
func NextWeeklyExpiry(now time.Time) time.Time {
	days := (int(time.Thursday) - int(now.Weekday()) + 7) % 7
	if days == 0 && now.Hour() >= 15 {
		days = 7
	}
	return now.AddDate(0, 0, days)
}
