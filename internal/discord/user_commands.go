package discord

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"level_checkin_bot/internal/chart"
	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/geo"
	"level_checkin_bot/internal/leaderboard"
	"level_checkin_bot/internal/logging"
	"level_checkin_bot/internal/prefs"
)

func (c *Client) handlePing(ctx context.Context, i *discordgo.InteractionCreate) {
	latency := c.session.HeartbeatLatency().Milliseconds()
	reply := fmt.Sprintf("🏓 Pong! Latency: %dms", latency)

	if c.stats != nil {
		if tracked, err := c.stats.CountTracked(ctx); err == nil {
			reply += fmt.Sprintf(" • tracking %d members", tracked)
		}
		if warned, err := c.stats.CountWarned(ctx); err == nil && warned > 0 {
			reply += fmt.Sprintf(" • %d warned", warned)
		}
	}

	c.respond(i, reply)
}

func helpText() string {
	var b strings.Builder
	b.WriteString("**Commands**\n")
	b.WriteString("`/checkin` start your daily check-in\n")
	b.WriteString("`/myprogress` get your week's chart by DM\n")
	b.WriteString("`/mystats` check-ins, streak, average, latest level\n")
	b.WriteString("`/myrank` your all-time leaderboard position\n")
	b.WriteString("`/leaderboard [period]` top members (all time / week / month)\n")
	b.WriteString("`/levelof <user>` someone's latest and peak level\n")
	b.WriteString("`/nextcheckin` when your next prompt arrives\n")
	b.WriteString("`/settimezone <city>` set your timezone from a city\n")
	b.WriteString("`/setcheckintime <hour> <minute>` when to be prompted\n")
	b.WriteString("`/optin` / `/optout` toggle daily prompts\n")
	b.WriteString("`/dailyfact` / `/motivation` a little extra\n")
	return b.String()
}

func (c *Client) handleMyProgress(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	record, err := c.progress.Get(ctx, caller.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load your progress right now.")
		return
	}

	week := domain.WeekDates(c.clock().In(c.home))
	series := leaderboard.WeekSeries(record, week)

	image, err := chart.RenderWeek("Your Week", week, []chart.Series{{Name: displayName(caller), Values: series}})
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			c.respond(i, "No entries this week yet. Use `/checkin` to record one!")
			return
		}
		c.logger.WithField("event", "myprogress_chart_failed").WithError(err).Warn("chart render failed")
		c.respond(i, "⚠️ Could not render your chart right now.")
		return
	}

	channel, err := c.session.UserChannelCreate(caller.ID)
	if err == nil {
		_, err = c.session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
			Content: "📈 Your week so far:",
			Files: []*discordgo.File{{
				Name:        "my_week.png",
				ContentType: "image/png",
				Reader:      image,
			}},
		})
	}
	if err != nil {
		c.respond(i, "❌ I couldn't DM you. Are your DMs open?")
		return
	}

	c.respond(i, "📬 Sent your weekly chart to your DMs!")
}

func (c *Client) handleMyStats(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	record, err := c.progress.Get(ctx, caller.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load your stats right now.")
		return
	}

	entries := record.ValidEntries()
	if len(entries) == 0 {
		c.respond(i, "No entries recorded yet. Use `/checkin` to get started!")
		return
	}

	values := make([]int, 0, len(entries))
	for _, level := range entries {
		values = append(values, level)
	}

	streak := leaderboard.Streak(leaderboard.SortedDates(record))
	date, latest, _ := record.LatestEntry()
	peak, _ := record.PeakLevel()

	c.respond(i, fmt.Sprintf(
		"📊 **Your stats**\nCheck-ins: %d\nCurrent streak: %d day(s)\nAverage level: %.1f\nLatest: %d (on %s)\nPeak: %d",
		len(entries), streak, leaderboard.Average(values), latest, date, peak,
	))
}

func (c *Client) handleMyRank(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	scores, err := c.allTimeScores(ctx)
	if err != nil {
		c.respond(i, "⚠️ Could not load the leaderboard right now.")
		return
	}

	rank, score, ok := leaderboard.Rank(scores, caller.ID)
	if !ok {
		c.respond(i, "You are not on the leaderboard yet. Use `/checkin` to get started!")
		return
	}

	c.respond(i, fmt.Sprintf("🏅 You are **#%d** of %d with **%d** total levels.", rank, len(scores), score.Total))
}

func (c *Client) handleLeaderboard(ctx context.Context, i *discordgo.InteractionCreate) {
	period := leaderboard.AllTime
	if opt, ok := options(i)["period"]; ok {
		switch opt.StringValue() {
		case "week":
			period = leaderboard.Week
		case "month":
			period = leaderboard.Month
		}
	}

	records, err := c.progress.All(ctx)
	if err != nil {
		c.respond(i, "⚠️ Could not load the leaderboard right now.")
		return
	}

	var overrides map[string]domain.Override
	if period == leaderboard.AllTime {
		if overrides, err = c.overrides.All(ctx); err != nil {
			c.logger.WithField("event", "leaderboard_overrides_failed").WithError(err).Warn("ranking without overrides")
			overrides = nil
		}
	}

	scores := leaderboard.Scores(records, period, c.clock().In(c.home), overrides)
	if len(scores) == 0 {
		c.respond(i, "No progress recorded yet.")
		return
	}

	content, components := c.pager.renderFirst(scores, period)
	err = c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	})
	if err != nil {
		c.logger.WithField("event", "leaderboard_respond_failed").WithError(err).Warn("could not answer interaction")
		return
	}

	// The pager is keyed by the reply's message ID so button presses can
	// find it.
	message, err := c.session.InteractionResponse(i.Interaction)
	if err != nil || message == nil {
		c.logger.WithField("event", "leaderboard_message_lookup_failed").WithError(err).Warn("pager buttons will be inert")
		return
	}
	c.pager.put(message.ID, scores, period, c.clock())
}

func (c *Client) handleLevelOf(ctx context.Context, i *discordgo.InteractionCreate) {
	opt, ok := options(i)["user"]
	if !ok {
		c.respond(i, "❌ Pick a member to look up.")
		return
	}
	target := resolvedUser(i, opt)

	record, err := c.progress.Get(ctx, target.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load that member's progress right now.")
		return
	}

	date, latest, ok := record.LatestEntry()
	if !ok {
		c.respond(i, fmt.Sprintf("No entries recorded for <@%s> yet.", target.ID))
		return
	}
	peak, _ := record.PeakLevel()

	c.respond(i, fmt.Sprintf("📊 <@%s> — latest: **%d** (on %s), peak: **%d**", target.ID, latest, date, peak))
}

func (c *Client) handleCheckin(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	if !c.tracker.Begin(caller.ID) {
		c.respond(i, "⏳ You already have a check-in in progress. Check your DMs!")
		return
	}

	if err := c.SendCheckin(ctx, caller.ID); err != nil {
		c.tracker.Clear(caller.ID)
		c.logger.WithFields(logging.Fields{
			"event":   "manual_checkin_dm_failed",
			"user_id": caller.ID,
		}).WithError(err).Warn("could not deliver manual check-in")
		c.respond(i, "❌ I couldn't DM you. Are your DMs open?")
		return
	}

	c.respond(i, "📬 Check your DMs!")
}

func (c *Client) handleNextCheckin(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	userPrefs, err := c.prefs.Get(ctx, caller.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load your preferences right now.")
		return
	}
	if !userPrefs.OptedIn() {
		c.respond(i, "🔕 You are opted out of daily check-ins. Use `/optin` to re-enable them.")
		return
	}

	ct := userPrefs.EffectiveCheckin(c.defaultHour, c.home.String())
	loc, err := time.LoadLocation(ct.Timezone)
	if err != nil {
		c.respond(i, fmt.Sprintf("⚠️ Your stored timezone %q is invalid. Use `/settimezone` to fix it.", ct.Timezone))
		return
	}

	now := c.clock().In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), ct.Hour, ct.Minute, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	c.respond(i, fmt.Sprintf("⏰ Your next check-in prompt: **%s** (%s)", next.Format("Mon Jan 2 at 15:04"), ct.Timezone))
}

func (c *Client) handleOptIn(ctx context.Context, i *discordgo.InteractionCreate, optIn bool) {
	caller := interactionUser(i)

	if err := c.prefs.SetOptIn(ctx, caller.ID, optIn); err != nil {
		c.respond(i, "⚠️ Could not update your preferences right now.")
		return
	}

	if optIn {
		c.respond(i, "🔔 Daily check-in prompts enabled.")
		return
	}
	c.respond(i, "🔕 Daily check-in prompts disabled. Use `/optin` to come back any time.")
}

func (c *Client) handleSetTimezone(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)

	opt, ok := options(i)["city"]
	if !ok {
		c.respond(i, "❌ Tell me a city, e.g. `/settimezone Berlin`.")
		return
	}
	city := opt.StringValue()

	// Geocoding goes over the network; defer so the token does not expire.
	if !c.deferReply(i) {
		return
	}

	zone, place, err := c.zones.Resolve(city)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrCityNotFound):
			c.followup(i, fmt.Sprintf("❌ I couldn't find %q. Try a bigger nearby city.", city))
		case errors.Is(err, geo.ErrZoneUnknown):
			c.followup(i, fmt.Sprintf("❌ I couldn't work out a timezone for %q.", city))
		default:
			c.logger.WithField("event", "settimezone_failed").WithError(err).Warn("timezone resolution failed")
			c.followup(i, "⚠️ Timezone lookup failed. Please try again later.")
		}
		return
	}

	if err := c.prefs.SetTimezone(ctx, caller.ID, zone); err != nil {
		c.followup(i, "⚠️ Could not save your timezone right now.")
		return
	}

	c.followup(i, fmt.Sprintf("🌍 Timezone set to **%s** (matched %s).", zone, place))
}

func (c *Client) handleSetCheckinTime(ctx context.Context, i *discordgo.InteractionCreate) {
	caller := interactionUser(i)
	opts := options(i)

	hourOpt, okH := opts["hour"]
	minuteOpt, okM := opts["minute"]
	if !okH || !okM {
		c.respond(i, "❌ Give me both an hour and a minute.")
		return
	}

	userPrefs, err := c.prefs.Get(ctx, caller.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load your preferences right now.")
		return
	}

	ct := domain.CheckinTime{
		Hour:     int(hourOpt.IntValue()),
		Minute:   int(minuteOpt.IntValue()),
		Timezone: userPrefs.EffectiveCheckin(c.defaultHour, c.home.String()).Timezone,
	}

	if err := c.prefs.SetCheckinTime(ctx, caller.ID, ct, false); err != nil {
		if errors.Is(err, prefs.ErrAdminLocked) {
			c.respond(i, "🚫 An admin has locked your check-in time. Ask them to change it.")
			return
		}
		c.respond(i, fmt.Sprintf("❌ %v", err))
		return
	}

	c.respond(i, fmt.Sprintf("⏰ Check-in time set to **%02d:%02d** (%s).", ct.Hour, ct.Minute, ct.Timezone))
}

func (c *Client) handleFlavor(i *discordgo.InteractionCreate, kind string) {
	switch kind {
	case "fact":
		c.respond(i, "💡 "+domain.DailyFacts[rand.Intn(len(domain.DailyFacts))])
	default:
		c.respond(i, "✨ "+domain.MotivationalQuotes[rand.Intn(len(domain.MotivationalQuotes))])
	}
}

func (c *Client) allTimeScores(ctx context.Context) ([]leaderboard.Score, error) {
	records, err := c.progress.All(ctx)
	if err != nil {
		return nil, err
	}

	overrides, err := c.overrides.All(ctx)
	if err != nil {
		c.logger.WithField("event", "overrides_load_failed").WithError(err).Warn("ranking without overrides")
		overrides = nil
	}

	return leaderboard.Scores(records, leaderboard.AllTime, c.clock().In(c.home), overrides), nil
}

func displayName(user *discordgo.User) string {
	if user == nil {
		return "unknown"
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
