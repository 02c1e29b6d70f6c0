package domain

import "time"

// DateFormat is the canonical layout for entry date keys.
const DateFormat = "2006-01-02"

// DateKey formats an instant as a canonical date string. Callers are expected
// to convert the instant to the home timezone first.
func DateKey(t time.Time) string {
	return t.Format(DateFormat)
}

// WeekDates returns the canonical date keys of the Monday-start week
// containing now.
func WeekDates(now time.Time) []string {
	offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
	start := now.AddDate(0, 0, -offset)

	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, DateKey(start.AddDate(0, 0, i)))
	}
	return dates
}

// MonthDates returns the canonical date keys of every day in the calendar
// month containing now.
func MonthDates(now time.Time) []string {
	var dates []string
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for current.Month() == now.Month() {
		dates = append(dates, DateKey(current))
		current = current.AddDate(0, 0, 1)
	}
	return dates
}
