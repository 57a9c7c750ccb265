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

func TestSameDayAcrossZones(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	// 02:00 UTC and 23:00 UTC the previous day are the same day at UTC-5.
	a := time.Date(2024, 10, 10, 2, 0, 0, 0, time.UTC)
	b := time.Date(2024, 10, 9, 23, 0, 0, 0, time.UTC)
	if !SameDay(a, b, loc) {
		t.Fatalf("expected same day in %v", loc)
	}
	if SameDay(a, b, time.UTC) {
		t.Fatalf("expected different days in UTC")
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"SPY", "NVDA", "SPY", "COIN", "NVDA"})
	want := []string{"SPY", "NVDA", "COIN"}
	if len(got) != len(want) {
		t.Fatalf("unexpected length %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("at %d: got %s want %s", i, got[i], want[i])
		}
	}
}
