// Package domain defines shared domain types and constants.
package domain

// NoReport is the sentinel stored for a day the user explicitly reported no
// level change. It is distinct from the date key being absent entirely.
const NoReport = -1

// ProgressRecord holds one user's full check-in history, keyed by canonical
// YYYY-MM-DD date strings in the home timezone.
type ProgressRecord struct {
	UserID   string         `bson:"user_id" json:"user_id"`
	Username string         `bson:"username" json:"username"`
	Entries  map[string]int `bson:"entries" json:"entries"`
}

// ValidEntries returns the subset of entries carrying a real reported level.
// Sentinel and malformed (negative) values are filtered here, at read time,
// never at write time.
func (r ProgressRecord) ValidEntries() map[string]int {
	valid := make(map[string]int, len(r.Entries))
	for date, level := range r.Entries {
		if level >= 0 {
			valid[date] = level
		}
	}
	return valid
}

// PeakLevel returns the highest valid level ever reported. The second return
// is false when the user has no valid entries.
func (r ProgressRecord) PeakLevel() (int, bool) {
	peak := 0
	found := false
	for _, level := range r.Entries {
		if level < 0 {
			continue
		}
		if !found || level > peak {
			peak = level
			found = true
		}
	}
	return peak, found
}

// LatestEntry returns the most recent valid entry by date key. Canonical date
// strings sort lexicographically in chronological order.
func (r ProgressRecord) LatestEntry() (date string, level int, ok bool) {
	for d, l := range r.Entries {
		if l < 0 {
			continue
		}
		if !ok || d > date {
			date = d
			level = l
			ok = true
		}
	}
	return date, level, ok
}

// TotalLevels returns the sum of all valid entries.
func (r ProgressRecord) TotalLevels() int {
	total := 0
	for _, level := range r.Entries {
		if level >= 0 {
			total += level
		}
	}
	return total
}
