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

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-15", "03/15/2024"} {
		got, ok := ParseDate(s)
		if !ok {
			t.Fatalf("expected ok for %q", s)
		}
		if !got.Equal(want) {
			t.Fatalf("unexpected date %v for %q", got, s)
		}
	}
}

func TestParseDatePlaceholders(t *testing.T) {
	for _, s := range []string{"", "--", "N/A", "not a date"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected not ok for %q", s)
		}
	}
}

func TestDayTruncation(t *testing.T) {
	in := time.Date(2024, 3, 15, 18, 30, 12, 0, time.FixedZone("EST", -5*3600))
	got := Day(in)
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", got)
	}
	if AddDays(got, 30).Sub(got) != 30*24*time.Hour {
		t.Fatalf("unexpected AddDays result")
	}
}
