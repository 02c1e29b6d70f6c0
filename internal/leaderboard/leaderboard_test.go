package leaderboard

import (
	"testing"
	"time"

	"level_checkin_bot/internal/domain"
)

// 2026-08-26 is a Wednesday; its week runs Aug 24 (Mon) through Aug 30 (Sun).
var testNow = time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)

func record(userID, username string, entries map[string]int) domain.ProgressRecord {
	return domain.ProgressRecord{UserID: userID, Username: username, Entries: entries}
}

func TestScoresWeekSumsValidEntriesInWindow(t *testing.T) {
	records := []domain.ProgressRecord{
		record("1", "alice", map[string]int{
			"2026-08-24": 100,
			"2026-08-25": 150,
			"2026-08-26": 120,
			"2026-08-10": 999, // outside the week
		}),
		record("2", "bob", map[string]int{
			"2026-08-24": 300,
			"2026-08-25": domain.NoReport,
		}),
		record("3", "carol", map[string]int{
			"2026-08-25": domain.NoReport, // sentinel only: excluded entirely
		}),
	}

	scores := Scores(records, Week, testNow, nil)

	if len(scores) != 2 {
		t.Fatalf("expected 2 ranked users, got %d", len(scores))
	}
	if scores[0].Username != "alice" || scores[0].Total != 370 {
		t.Fatalf("expected alice on top with 370, got %+v", scores[0])
	}
	if scores[1].Username != "bob" || scores[1].Total != 300 {
		t.Fatalf("expected bob with 300, got %+v", scores[1])
	}
}

func TestScoresAllTimeAppliesOverrideVerbatim(t *testing.T) {
	records := []domain.ProgressRecord{
		record("1", "alice", map[string]int{"2026-08-24": 100, "2026-08-25": 200}),
		record("2", "bob", map[string]int{"2026-08-24": 5000}),
	}
	overrides := map[string]domain.Override{
		"1": {UserID: "1", Level: 9999},
	}

	scores := Scores(records, AllTime, testNow, overrides)

	if scores[0].UserID != "1" || scores[0].Total != 9999 || !scores[0].Overridden {
		t.Fatalf("expected override 9999 to lead, got %+v", scores[0])
	}

	// After clearing the override the computed value reappears.
	scores = Scores(records, AllTime, testNow, nil)
	if scores[0].UserID != "2" {
		t.Fatalf("expected bob to lead without override, got %+v", scores[0])
	}
	if _, score, ok := Rank(scores, "1"); !ok || score.Total != 300 {
		t.Fatalf("expected alice's computed total 300 to return, got %+v ok=%v", score, ok)
	}
}

func TestScoresAllTimeRanksOverrideWithoutRecord(t *testing.T) {
	records := []domain.ProgressRecord{
		record("1", "alice", map[string]int{"2026-08-24": 100}),
	}
	// "2" has an override but no progress record (reset, or never
	// checked in).
	overrides := map[string]domain.Override{
		"2": {UserID: "2", Username: "bob", Level: 5000},
	}

	scores := Scores(records, AllTime, testNow, overrides)

	if len(scores) != 2 {
		t.Fatalf("expected two scores, got %+v", scores)
	}
	if scores[0].UserID != "2" || scores[0].Total != 5000 || !scores[0].Overridden {
		t.Fatalf("expected recordless override to lead, got %+v", scores[0])
	}
	if scores[0].Username != "bob" {
		t.Fatalf("expected override username carried, got %q", scores[0].Username)
	}

	// Non-all-time periods never rank a user without entries in window.
	if scores := Scores(records, Week, testNow, overrides); len(scores) != 1 {
		t.Fatalf("week board must ignore overrides, got %+v", scores)
	}
}

func TestScoresStableOnTies(t *testing.T) {
	records := []domain.ProgressRecord{
		record("1", "alice", map[string]int{"2026-08-24": 100}),
		record("2", "bob", map[string]int{"2026-08-24": 100}),
	}

	scores := Scores(records, AllTime, testNow, nil)
	if scores[0].UserID != "1" || scores[1].UserID != "2" {
		t.Fatalf("expected ties to keep input order, got %+v", scores)
	}
}

func TestScoresMonthWindow(t *testing.T) {
	records := []domain.ProgressRecord{
		record("1", "alice", map[string]int{
			"2026-08-01": 50,
			"2026-08-31": 70,
			"2026-07-31": 999, // prior month
		}),
	}

	scores := Scores(records, Month, testNow, nil)
	if len(scores) != 1 || scores[0].Total != 120 {
		t.Fatalf("expected month total 120, got %+v", scores)
	}
}

func TestRank(t *testing.T) {
	scores := []Score{
		{UserID: "2", Total: 300},
		{UserID: "1", Total: 100},
	}

	rank, score, ok := Rank(scores, "1")
	if !ok || rank != 2 || score.Total != 100 {
		t.Fatalf("expected rank 2 with 100, got rank=%d score=%+v ok=%v", rank, score, ok)
	}

	if _, _, ok := Rank(scores, "3"); ok {
		t.Fatalf("expected absent user to have no rank")
	}
}

func TestStreakCountsConsecutiveDays(t *testing.T) {
	tests := []struct {
		name     string
		dates    []string
		expected int
	}{
		{"empty", nil, 0},
		{"single", []string{"2026-08-26"}, 1},
		{"unbroken", []string{"2026-08-22", "2026-08-23", "2026-08-24", "2026-08-25", "2026-08-26"}, 5},
		{"gap truncates", []string{"2026-08-20", "2026-08-21", "2026-08-24", "2026-08-25", "2026-08-26"}, 3},
		{"gap at end", []string{"2026-08-20", "2026-08-26"}, 1},
		{"month boundary", []string{"2026-07-31", "2026-08-01"}, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Streak(tc.dates); got != tc.expected {
				t.Fatalf("expected streak %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	if avg := Average([]int{100, 150, 120}); avg < 123.32 || avg > 123.34 {
		t.Fatalf("expected average ~123.33, got %f", avg)
	}
	if avg := Average(nil); avg != 0 {
		t.Fatalf("expected 0 for empty values, got %f", avg)
	}
}

func TestWeekSeriesProjectsNilForMissingDays(t *testing.T) {
	rec := record("1", "alice", map[string]int{
		"2026-08-24": 100,
		"2026-08-25": domain.NoReport,
		"2026-08-27": 140,
	})
	week := domain.WeekDates(testNow)

	series := WeekSeries(rec, week)
	if len(series) != 7 {
		t.Fatalf("expected 7 slots, got %d", len(series))
	}
	if series[0] == nil || *series[0] != 100 {
		t.Fatalf("expected Monday value 100, got %v", series[0])
	}
	if series[1] != nil {
		t.Fatalf("expected sentinel day to project as nil")
	}
	if series[2] != nil {
		t.Fatalf("expected missing day to project as nil")
	}
	if series[3] == nil || *series[3] != 140 {
		t.Fatalf("expected Thursday value 140, got %v", series[3])
	}
}

func TestWeeklyGain(t *testing.T) {
	v := func(n int) *int { return &n }

	if gain := WeeklyGain([]*int{v(100), nil, v(150), v(120)}); gain != 50 {
		t.Fatalf("expected gain 50, got %d", gain)
	}
	if gain := WeeklyGain([]*int{nil, v(75), nil}); gain != 75 {
		t.Fatalf("expected lone value to count as its own gain, got %d", gain)
	}
	if gain := WeeklyGain([]*int{nil, nil}); gain != 0 {
		t.Fatalf("expected 0 gain with no values, got %d", gain)
	}
}

func TestTopGainsKeepsPositiveMovers(t *testing.T) {
	gains := []Gain{
		{Username: "alice", Amount: 50},
		{Username: "bob", Amount: 0},
		{Username: "carol", Amount: 120},
		{Username: "dave", Amount: 10},
	}

	top := TopGains(gains, 2)
	if len(top) != 2 || top[0].Username != "carol" || top[1].Username != "alice" {
		t.Fatalf("unexpected top gains: %+v", top)
	}
}

func TestSortedDatesFiltersSentinels(t *testing.T) {
	rec := record("1", "alice", map[string]int{
		"2026-08-26": 120,
		"2026-08-24": 100,
		"2026-08-25": domain.NoReport,
	})

	dates := SortedDates(rec)
	if len(dates) != 2 || dates[0] != "2026-08-24" || dates[1] != "2026-08-26" {
		t.Fatalf("unexpected sorted dates: %v", dates)
	}
}
