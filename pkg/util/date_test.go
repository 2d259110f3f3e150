package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseExpiryFallback(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	got := ParseExpiry("", now)
	if !got.Equal(now.AddDate(0, 0, 7)) {
		t.Fatalf("expected one week out, got %v", got)
	}
	got = ParseExpiry("2025-06-05", now)
	if got.Format("2006-01-02") != "2025-06-05" {
		t.Fatalf("unexpected expiry %v", got)
	}
}

func TestNextWeeklyExpiry(t *testing.T) {
	// Monday -> same-week Thursday
	mon := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if got := NextWeeklyExpiry(mon); got.Weekday() != time.Thursday || got.Day() != 5 {
		t.Fatalf("monday case: %v", got)
	}
	// Thursday after close -> next Thursday
	thuLate := time.Date(2025, 6, 5, 16, 0, 0, 0, time.UTC)
	if got := NextWeeklyExpiry(thuLate); got.Day() != 12 {
		t.Fatalf("thursday-late case: %v", got)
	}
}
