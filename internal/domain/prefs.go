package domain

import "fmt"

// CheckinTime is a per-user daily prompt time. When AdminOverride is set the
// time was locked by an admin and the user cannot change it themselves.
type CheckinTime struct {
	Hour          int    `bson:"hour" json:"hour"`
	Minute        int    `bson:"minute" json:"minute"`
	Timezone      string `bson:"timezone,omitempty" json:"timezone,omitempty"`
	AdminOverride bool   `bson:"admin_override" json:"admin_override"`
}

// Validate checks that the hour and minute form a valid time of day.
func (t CheckinTime) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour must be between 0 and 23, got %d", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute must be between 0 and 59, got %d", t.Minute)
	}
	return nil
}

// Preferences holds a user's check-in preferences. Zero values mean "unset";
// defaults are applied by the preferences repository on read.
type Preferences struct {
	UserID   string       `bson:"user_id" json:"user_id"`
	OptIn    *bool        `bson:"opt_in,omitempty" json:"opt_in,omitempty"`
	Timezone string       `bson:"timezone,omitempty" json:"timezone,omitempty"`
	Checkin  *CheckinTime `bson:"checkin_time,omitempty" json:"checkin_time,omitempty"`
}

// OptedIn reports whether the user receives daily check-in prompts. Users are
// opted in by default.
func (p Preferences) OptedIn() bool {
	if p.OptIn == nil {
		return true
	}
	return *p.OptIn
}

// EffectiveCheckin resolves the prompt time for the user: the stored per-user
// time when present, otherwise the global default hour at minute zero. The
// returned timezone always carries a value (the user's zone, else fallbackZone).
func (p Preferences) EffectiveCheckin(defaultHour int, fallbackZone string) CheckinTime {
	zone := p.Timezone
	if zone == "" {
		zone = fallbackZone
	}

	if p.Checkin == nil {
		return CheckinTime{Hour: defaultHour, Timezone: zone}
	}

	ct := *p.Checkin
	if ct.Timezone == "" {
		ct.Timezone = zone
	}
	return ct
}
