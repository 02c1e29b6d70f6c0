// Package schedule drives the periodic check-in prompts and the weekly
// progress report.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"level_checkin_bot/internal/conversation"
	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
)

// promptWindow is how long after a user's check-in time a poll tick still
// counts as due. It must cover the poll interval so no tick is missed.
const promptWindow = 10 * time.Minute

// Member is a guild member as seen by the poller.
type Member struct {
	ID       string
	Username string
	Bot      bool
}

// MemberSource lists the guild members eligible for prompts.
type MemberSource interface {
	GuildMemberList(ctx context.Context) ([]Member, error)
}

// Prompter delivers the daily check-in DM.
type Prompter interface {
	SendCheckin(ctx context.Context, userID string) error
}

// prefsSource reads user preferences; satisfied by *prefs.Repository.
type prefsSource interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
}

// Poller walks the member list every tick and prompts users whose local
// check-in time falls inside the current window.
type Poller struct {
	members     MemberSource
	prefs       prefsSource
	tracker     *conversation.Tracker
	prompter    Prompter
	home        *time.Location
	defaultHour int
	clock       func() time.Time
	logger      *logrus.Entry
}

// NewPoller constructs a Poller.
func NewPoller(members MemberSource, prefs prefsSource, tracker *conversation.Tracker, prompter Prompter, home *time.Location, defaultHour int, logger *logrus.Entry) *Poller {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Poller{
		members:     members,
		prefs:       prefs,
		tracker:     tracker,
		prompter:    prompter,
		home:        home,
		defaultHour: defaultHour,
		clock:       time.Now,
		logger:      logger,
	}
}

// Poll runs one prompt pass. Per-user failures are logged and skipped; the
// pass itself fails only when the member list cannot be fetched.
func (p *Poller) Poll(ctx context.Context) error {
	if p == nil || p.members == nil {
		return errors.New("poller is not initialized")
	}

	members, err := p.members.GuildMemberList(ctx)
	if err != nil {
		return err
	}

	now := p.clock()
	today := domain.DateKey(now.In(p.home))

	for _, member := range members {
		if member.Bot {
			continue
		}

		userPrefs, err := p.prefs.Get(ctx, member.ID)
		if err != nil {
			p.logger.WithFields(logging.Fields{
				"event":   "poll_prefs_error",
				"user_id": member.ID,
			}).WithError(err).Warn("skipping user")
			continue
		}
		if !userPrefs.OptedIn() {
			continue
		}

		ct := userPrefs.EffectiveCheckin(p.defaultHour, p.home.String())
		loc, err := time.LoadLocation(ct.Timezone)
		if err != nil {
			p.logger.WithFields(logging.Fields{
				"event":   "poll_bad_timezone",
				"user_id": member.ID,
				"zone":    ct.Timezone,
			}).WithError(err).Warn("skipping user")
			continue
		}

		if !withinWindow(now.In(loc), ct) {
			continue
		}

		// MarkSent is the at-most-once-per-day gate; claim it before the
		// send so a concurrent tick cannot double-prompt.
		if !p.tracker.MarkSent(member.ID, today) {
			continue
		}
		if !p.tracker.Begin(member.ID) {
			continue
		}

		if err := p.prompter.SendCheckin(ctx, member.ID); err != nil {
			// The day stays claimed; retrying a user whose DMs are closed
			// would fail every tick until midnight anyway.
			p.tracker.Clear(member.ID)
			p.logger.WithFields(logging.Fields{
				"event":   "checkin_dm_failed",
				"user_id": member.ID,
			}).WithError(err).Warn("could not deliver check-in prompt")
			continue
		}

		p.logger.WithFields(logging.Fields{
			"event":   "checkin_prompt_sent",
			"user_id": member.ID,
			"zone":    ct.Timezone,
		}).Info("sent check-in prompt")
	}

	return nil
}

// withinWindow reports whether the user's local time is inside the prompt
// window starting at their configured check-in time. The offset is computed
// in minutes of day modulo 24h so a window opening late in an hour (or just
// before midnight) spans the boundary instead of truncating at it.
func withinWindow(nowUser time.Time, ct domain.CheckinTime) bool {
	const minutesPerDay = 24 * 60

	now := nowUser.Hour()*60 + nowUser.Minute()
	start := ct.Hour*60 + ct.Minute

	return (now-start+minutesPerDay)%minutesPerDay < int(promptWindow/time.Minute)
}
