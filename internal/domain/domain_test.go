package domain

import (
	"testing"
	"time"
)

func TestValidEntriesFiltersSentinel(t *testing.T) {
	rec := ProgressRecord{
		UserID:   "1",
		Username: "alice",
		Entries: map[string]int{
			"2026-08-01": 1200,
			"2026-08-02": NoReport,
			"2026-08-03": 0,
			"2026-08-04": -7,
		},
	}

	valid := rec.ValidEntries()
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(valid))
	}
	if _, ok := valid["2026-08-02"]; ok {
		t.Fatalf("sentinel entry must be filtered from valid view")
	}
	if level, ok := valid["2026-08-03"]; !ok || level != 0 {
		t.Fatalf("zero is a valid reported level, got ok=%v level=%d", ok, level)
	}

	// The raw document view keeps the sentinel.
	if rec.Entries["2026-08-02"] != NoReport {
		t.Fatalf("sentinel must remain in the raw entries map")
	}
}

func TestPeakAndLatestAndTotal(t *testing.T) {
	rec := ProgressRecord{Entries: map[string]int{
		"2026-08-01": 100,
		"2026-08-02": 150,
		"2026-08-03": 120,
		"2026-08-04": NoReport,
	}}

	peak, ok := rec.PeakLevel()
	if !ok || peak != 150 {
		t.Fatalf("expected peak 150, got %d ok=%v", peak, ok)
	}

	date, level, ok := rec.LatestEntry()
	if !ok || date != "2026-08-03" || level != 120 {
		t.Fatalf("expected latest 120 on 2026-08-03, got %d on %s ok=%v", level, date, ok)
	}

	if total := rec.TotalLevels(); total != 370 {
		t.Fatalf("expected total 370, got %d", total)
	}

	empty := ProgressRecord{Entries: map[string]int{"2026-08-01": NoReport}}
	if _, ok := empty.PeakLevel(); ok {
		t.Fatalf("expected no peak for sentinel-only record")
	}
	if _, _, ok := empty.LatestEntry(); ok {
		t.Fatalf("expected no latest entry for sentinel-only record")
	}
}

func TestTierForLevel(t *testing.T) {
	tests := []struct {
		level int
		name  string
		ok    bool
	}{
		{0, "", false},
		{799, "", false},
		{800, "800-1000", true},
		{999, "800-1000", true},
		{1000, "1000-2000", true},
		{5500, "5000-6000", true},
		{8999, "8000-9000", true},
		{9500, "", false},
		{10000, "10K+", true},
		{250000, "10K+", true},
	}

	for _, tc := range tests {
		name, ok := TierForLevel(tc.level)
		if ok != tc.ok || name != tc.name {
			t.Fatalf("level %d: expected (%q, %v), got (%q, %v)", tc.level, tc.name, tc.ok, name, ok)
		}
	}
}

func TestIsTierRole(t *testing.T) {
	if !IsTierRole("800-1000") || !IsTierRole("10K+") {
		t.Fatalf("expected tier table names to be recognized")
	}
	if IsTierRole("moderator") {
		t.Fatalf("expected non-tier role name to be rejected")
	}
}

func TestCheckinTimeValidate(t *testing.T) {
	if err := (CheckinTime{Hour: 20, Minute: 30}).Validate(); err != nil {
		t.Fatalf("expected valid time, got %v", err)
	}
	if err := (CheckinTime{Hour: 24}).Validate(); err == nil {
		t.Fatalf("expected hour 24 to be rejected")
	}
	if err := (CheckinTime{Hour: 8, Minute: 60}).Validate(); err == nil {
		t.Fatalf("expected minute 60 to be rejected")
	}
}

func TestPreferencesDefaults(t *testing.T) {
	var prefs Preferences
	if !prefs.OptedIn() {
		t.Fatalf("expected default opt-in true")
	}

	optOut := false
	prefs.OptIn = &optOut
	if prefs.OptedIn() {
		t.Fatalf("expected explicit opt-out to stick")
	}

	ct := Preferences{}.EffectiveCheckin(20, "America/New_York")
	if ct.Hour != 20 || ct.Minute != 0 || ct.Timezone != "America/New_York" {
		t.Fatalf("unexpected effective default check-in: %+v", ct)
	}

	custom := Preferences{
		Timezone: "Europe/London",
		Checkin:  &CheckinTime{Hour: 7, Minute: 30},
	}.EffectiveCheckin(20, "America/New_York")
	if custom.Hour != 7 || custom.Minute != 30 || custom.Timezone != "Europe/London" {
		t.Fatalf("unexpected effective custom check-in: %+v", custom)
	}
}

func TestWeekDates(t *testing.T) {
	// 2026-08-26 is a Wednesday; the Monday-start week is Aug 24 - Aug 30.
	now := time.Date(2026, 8, 26, 13, 0, 0, 0, time.UTC)
	dates := WeekDates(now)

	if len(dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(dates))
	}
	if dates[0] != "2026-08-24" || dates[6] != "2026-08-30" {
		t.Fatalf("unexpected week window: %v", dates)
	}

	// A Monday is its own week start.
	monday := time.Date(2026, 8, 24, 0, 5, 0, 0, time.UTC)
	if WeekDates(monday)[0] != "2026-08-24" {
		t.Fatalf("expected Monday to start its own week")
	}

	// Sunday belongs to the preceding Monday's week.
	sunday := time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC)
	if WeekDates(sunday)[0] != "2026-08-24" {
		t.Fatalf("expected Sunday to close the preceding week")
	}
}

func TestMonthDates(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	dates := MonthDates(now)

	if len(dates) != 28 {
		t.Fatalf("expected 28 days for February 2026, got %d", len(dates))
	}
	if dates[0] != "2026-02-01" || dates[27] != "2026-02-28" {
		t.Fatalf("unexpected month window: %v ... %v", dates[0], dates[27])
	}
}
