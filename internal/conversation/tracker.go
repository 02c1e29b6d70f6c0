// Package conversation tracks in-flight DM check-in conversations.
package conversation

import "sync"

// Stage is a user's position in the two-step check-in conversation.
type Stage int

const (
	// StageNone means no check-in is pending for the user.
	StageNone Stage = iota
	// StageAsked means the yes/no prompt was sent and not yet answered.
	StageAsked
	// StageAwaitingLevel means the user said yes and owes a number.
	StageAwaitingLevel
)

// Tracker holds the transient conversation state and the per-day prompt
// dedupe marker. Both maps are process-local and lost on restart: a user
// mid-conversation is simply asked again, and at worst one duplicate prompt
// can follow a restart. Handlers run on gateway goroutines, so access is
// serialized with a mutex, and Begin/MarkSent are test-and-set operations so
// callers can re-validate state after any store round-trip.
type Tracker struct {
	mu       sync.Mutex
	pending  map[string]Stage
	lastSent map[string]string
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		pending:  make(map[string]Stage),
		lastSent: make(map[string]string),
	}
}

// Begin starts a conversation for the user, returning false if one is
// already pending.
func (t *Tracker) Begin(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[userID]; exists {
		return false
	}
	t.pending[userID] = StageAsked
	return true
}

// Stage returns the user's current conversation stage.
func (t *Tracker) Stage(userID string) Stage {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.pending[userID]
}

// Advance moves the user from StageAsked to StageAwaitingLevel, returning
// false if they were not in StageAsked.
func (t *Tracker) Advance(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending[userID] != StageAsked {
		return false
	}
	t.pending[userID] = StageAwaitingLevel
	return true
}

// Clear ends the user's conversation.
func (t *Tracker) Clear(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pending, userID)
}

// MarkSent records that a prompt went out to the user on the given date,
// returning false if one was already recorded for that date.
func (t *Tracker) MarkSent(userID, date string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.lastSent[userID] == date {
		return false
	}
	t.lastSent[userID] = date
	return true
}

// LastSent returns the date of the most recent prompt sent to the user, or
// an empty string if none was recorded since startup.
func (t *Tracker) LastSent(userID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.lastSent[userID]
}
