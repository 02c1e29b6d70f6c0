package domain

import "time"

// Warning is one logged moderation warning.
type Warning struct {
	ID        string    `bson:"id" json:"id"`
	Reason    string    `bson:"reason" json:"reason"`
	AdminID   string    `bson:"admin_id" json:"admin_id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// WarningLog holds the append-only warning history for one user. It is only
// ever cleared wholesale by an admin.
type WarningLog struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	Username string    `bson:"username" json:"username"`
	Warnings []Warning `bson:"warnings" json:"warnings"`
}

// Override is an admin-set leaderboard value that replaces the computed
// all-time score for one user without touching their progress history.
type Override struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Username  string    `bson:"username" json:"username"`
	Level     int       `bson:"override_level" json:"override_level"`
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	AdminID   string    `bson:"admin_id" json:"admin_id"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
