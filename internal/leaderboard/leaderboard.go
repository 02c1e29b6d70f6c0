// Package leaderboard derives scores, ranks, and stats from progress records.
// Everything here is pure computation; callers load the records.
package leaderboard

import (
	"sort"
	"time"

	"level_checkin_bot/internal/domain"
)

// Period selects the scoring window.
type Period string

const (
	AllTime Period = "alltime"
	Week    Period = "week"
	Month   Period = "month"
)

// Title returns the display heading for the period.
func (p Period) Title() string {
	switch p {
	case Week:
		return "🏆 Weekly Leaderboard"
	case Month:
		return "🏆 Monthly Leaderboard"
	default:
		return "🏆 All-Time Leaderboard"
	}
}

// Score is one user's leaderboard entry.
type Score struct {
	UserID     string
	Username   string
	Total      int
	Overridden bool
}

// Scores reduces each record to the sum of its valid entries within the
// period window and ranks descending. Sorting is stable, so ties keep the
// input order. Users enter the ranking only with a positive total. For the
// all-time period an override, when present, replaces the computed total
// verbatim (and ranks even when zero).
func Scores(records []domain.ProgressRecord, period Period, now time.Time, overrides map[string]domain.Override) []Score {
	var window map[string]struct{}
	switch period {
	case Week:
		window = dateSet(domain.WeekDates(now))
	case Month:
		window = dateSet(domain.MonthDates(now))
	}

	scores := make([]Score, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		seen[record.UserID] = struct{}{}
		total := 0
		for date, level := range record.Entries {
			if level < 0 {
				continue
			}
			if window != nil {
				if _, ok := window[date]; !ok {
					continue
				}
			}
			total += level
		}

		if period == AllTime {
			if override, ok := overrides[record.UserID]; ok {
				scores = append(scores, Score{
					UserID:     record.UserID,
					Username:   record.Username,
					Total:      override.Level,
					Overridden: true,
				})
				continue
			}
		}

		if total <= 0 {
			continue
		}

		scores = append(scores, Score{
			UserID:   record.UserID,
			Username: record.Username,
			Total:    total,
		})
	}

	// An override ranks the user even without a progress record (the
	// record may have been reset, or never existed).
	if period == AllTime {
		ghosts := make([]Score, 0, len(overrides))
		for userID, override := range overrides {
			if _, ok := seen[userID]; ok {
				continue
			}
			ghosts = append(ghosts, Score{
				UserID:     userID,
				Username:   override.Username,
				Total:      override.Level,
				Overridden: true,
			})
		}
		sort.Slice(ghosts, func(i, j int) bool { return ghosts[i].UserID < ghosts[j].UserID })
		scores = append(scores, ghosts...)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Total > scores[j].Total
	})

	return scores
}

// Rank finds a user's 1-based position in a score list. The second return is
// false when the user is absent.
func Rank(scores []Score, userID string) (int, Score, bool) {
	for i, score := range scores {
		if score.UserID == userID {
			return i + 1, score, true
		}
	}
	return 0, Score{}, false
}

// Streak counts consecutive calendar days ending at the most recent entry.
// Dates must be canonical date keys sorted ascending. Any entry at all yields
// a streak of at least 1; the walk stops at the first gap longer than a day.
func Streak(sortedDates []string) int {
	if len(sortedDates) == 0 {
		return 0
	}

	streak := 1
	for i := len(sortedDates) - 1; i > 0; i-- {
		current, err := time.Parse(domain.DateFormat, sortedDates[i])
		if err != nil {
			break
		}
		previous, err := time.Parse(domain.DateFormat, sortedDates[i-1])
		if err != nil {
			break
		}
		if current.Sub(previous) != 24*time.Hour {
			break
		}
		streak++
	}

	return streak
}

// Average is the arithmetic mean of the values, 0 for an empty slice.
func Average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// WeekSeries projects a record onto the given week's dates, one slot per
// day. Days without a valid entry are nil.
func WeekSeries(record domain.ProgressRecord, weekDates []string) []*int {
	series := make([]*int, len(weekDates))
	for i, date := range weekDates {
		if level, ok := record.Entries[date]; ok && level >= 0 {
			value := level
			series[i] = &value
		}
	}
	return series
}

// Gain is a user's level movement across one week.
type Gain struct {
	Username string
	Amount   int
}

// WeeklyGain measures level movement across the week's series: max minus min
// of the valid values, a lone value counting as itself, no values as zero.
func WeeklyGain(series []*int) int {
	var valid []int
	for _, v := range series {
		if v != nil {
			valid = append(valid, *v)
		}
	}

	switch len(valid) {
	case 0:
		return 0
	case 1:
		return valid[0]
	}

	minVal, maxVal := valid[0], valid[0]
	for _, v := range valid[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return maxVal - minVal
}

// TopGains ranks weekly gains descending (stable) and keeps the first n
// positive movers.
func TopGains(gains []Gain, n int) []Gain {
	ranked := make([]Gain, len(gains))
	copy(ranked, gains)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})

	top := make([]Gain, 0, n)
	for _, gain := range ranked {
		if gain.Amount <= 0 || len(top) == n {
			break
		}
		top = append(top, gain)
	}
	return top
}

// SortedDates returns the record's valid entry dates in ascending order.
func SortedDates(record domain.ProgressRecord) []string {
	dates := make([]string, 0, len(record.Entries))
	for date, level := range record.Entries {
		if level >= 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

func dateSet(dates []string) map[string]struct{} {
	set := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		set[date] = struct{}{}
	}
	return set
}
