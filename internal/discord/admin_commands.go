package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
)

// discordMessageLimit is the hard cap on message content length.
const discordMessageLimit = 2000

func (c *Client) handleSetLevel(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	userOpt, okU := opts["user"]
	levelOpt, okL := opts["level"]
	if !okU || !okL {
		c.respond(i, "❌ Give me a member and a level.")
		return
	}

	target := resolvedUser(i, userOpt)
	level := int(levelOpt.IntValue())

	if _, err := c.progress.SaveEntry(ctx, target.ID, displayName(target), &level); err != nil {
		c.respond(i, "⚠️ Could not save that level right now.")
		return
	}

	if c.tiers != nil && level > 0 {
		if err := c.tiers.Assign(target.ID, level); err != nil {
			c.logger.WithFields(logging.Fields{
				"event":   "setlevel_role_failed",
				"user_id": target.ID,
			}).WithError(err).Warn("level saved but role converge failed")
		}
	}

	c.respond(i, fmt.Sprintf("✅ Recorded level **%d** for <@%s> today.", level, target.ID))
}

func (c *Client) handleResetUser(ctx context.Context, i *discordgo.InteractionCreate) {
	userOpt, ok := options(i)["user"]
	if !ok {
		c.respond(i, "❌ Pick a member to reset.")
		return
	}
	target := resolvedUser(i, userOpt)

	if err := c.progress.Reset(ctx, target.ID); err != nil {
		c.respond(i, "⚠️ Could not reset that member right now.")
		return
	}

	c.tracker.Clear(target.ID)
	c.respond(i, fmt.Sprintf("🗑️ Cleared all progress for <@%s>.", target.ID))
}

func (c *Client) handleAnnounce(_ context.Context, i *discordgo.InteractionCreate) {
	opt, ok := options(i)["message"]
	if !ok {
		c.respond(i, "❌ Give me a message to announce.")
		return
	}

	content := "📢 **Announcement**\n" + opt.StringValue()
	if _, err := c.session.ChannelMessageSend(c.checkinChannelID, content); err != nil {
		c.logger.WithField("event", "announce_failed").WithError(err).Warn("could not post announcement")
		c.respond(i, "⚠️ Could not post the announcement.")
		return
	}

	c.respond(i, "✅ Announcement posted.")
}

func (c *Client) handleWarn(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	userOpt, okU := opts["user"]
	reasonOpt, okR := opts["reason"]
	if !okU || !okR {
		c.respond(i, "❌ Give me a member and a reason.")
		return
	}

	target := resolvedUser(i, userOpt)
	caller := interactionUser(i)

	warning, err := c.warnings.Add(ctx, target.ID, displayName(target), reasonOpt.StringValue(), caller.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not record the warning right now.")
		return
	}

	c.respond(i, fmt.Sprintf("⚠️ Warned <@%s>: %s", target.ID, warning.Reason))
}

func (c *Client) handleViewWarnings(ctx context.Context, i *discordgo.InteractionCreate) {
	userOpt, ok := options(i)["user"]
	if !ok {
		c.respond(i, "❌ Pick a member to inspect.")
		return
	}
	target := resolvedUser(i, userOpt)

	warnings, err := c.warnings.List(ctx, target.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load warnings right now.")
		return
	}
	if len(warnings) == 0 {
		c.respond(i, fmt.Sprintf("<@%s> has no warnings. 🎉", target.ID))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ **Warnings for <@%s>** (%d)\n", target.ID, len(warnings))
	for n, warning := range warnings {
		fmt.Fprintf(&b, "%d. %s — %s\n", n+1, warning.Timestamp.Format("2006-01-02"), warning.Reason)
	}

	c.respond(i, truncate(b.String(), discordMessageLimit))
}

func (c *Client) handleClearWarnings(ctx context.Context, i *discordgo.InteractionCreate) {
	userOpt, ok := options(i)["user"]
	if !ok {
		c.respond(i, "❌ Pick a member to clear.")
		return
	}
	target := resolvedUser(i, userOpt)

	if err := c.warnings.Clear(ctx, target.ID); err != nil {
		c.respond(i, "⚠️ Could not clear warnings right now.")
		return
	}

	c.respond(i, fmt.Sprintf("✅ Cleared all warnings for <@%s>.", target.ID))
}

func (c *Client) handleShoutout(_ context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	userOpt, okU := opts["user"]
	messageOpt, okM := opts["message"]
	if !okU || !okM {
		c.respond(i, "❌ Give me a member and a message.")
		return
	}
	target := resolvedUser(i, userOpt)

	content := fmt.Sprintf("🎉 Shoutout to <@%s>! %s", target.ID, messageOpt.StringValue())
	if _, err := c.session.ChannelMessageSend(c.checkinChannelID, content); err != nil {
		c.logger.WithField("event", "shoutout_failed").WithError(err).Warn("could not post shoutout")
		c.respond(i, "⚠️ Could not post the shoutout.")
		return
	}

	c.respond(i, "✅ Shoutout posted.")
}

func (c *Client) handleSyncRoles(ctx context.Context, i *discordgo.InteractionCreate) {
	if c.tiers == nil {
		c.respond(i, "⚠️ Role sync is not available.")
		return
	}

	// Converging every member takes a while; defer so the token stays valid.
	if !c.deferReply(i) {
		return
	}

	records, err := c.progress.All(ctx)
	if err != nil {
		c.followup(i, "⚠️ Could not load progress records.")
		return
	}
	if len(records) == 0 {
		c.followup(i, "No tracked members to sync.")
		return
	}

	report := c.tiers.SyncAll(records)
	summary := fmt.Sprintf("\nUpdated: %d • Failed: %d", report.Updated, report.Failed)
	c.followup(i, truncate(strings.Join(report.Lines, "\n")+summary, discordMessageLimit))
}

func (c *Client) handleSetOverride(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	userOpt, okU := opts["user"]
	levelOpt, okL := opts["level"]
	if !okU || !okL {
		c.respond(i, "❌ Give me a member and a level.")
		return
	}

	target := resolvedUser(i, userOpt)
	level := int(levelOpt.IntValue())

	reason := ""
	if reasonOpt, ok := opts["reason"]; ok {
		reason = reasonOpt.StringValue()
	}

	caller := interactionUser(i)
	if _, err := c.overrides.Set(ctx, target.ID, displayName(target), level, reason, caller.ID); err != nil {
		c.respond(i, "⚠️ Could not set the override right now.")
		return
	}

	c.respond(i, fmt.Sprintf("✅ Leaderboard override set: <@%s> → **%d**.", target.ID, level))
}

func (c *Client) handleClearOverride(ctx context.Context, i *discordgo.InteractionCreate) {
	userOpt, ok := options(i)["user"]
	if !ok {
		c.respond(i, "❌ Pick a member to clear.")
		return
	}
	target := resolvedUser(i, userOpt)

	if err := c.overrides.Clear(ctx, target.ID); err != nil {
		c.respond(i, "⚠️ Could not clear the override right now.")
		return
	}

	c.respond(i, fmt.Sprintf("✅ Override cleared for <@%s>; computed totals apply again.", target.ID))
}

func (c *Client) handleSetUserCheckin(ctx context.Context, i *discordgo.InteractionCreate) {
	opts := options(i)
	userOpt, okU := opts["user"]
	hourOpt, okH := opts["hour"]
	minuteOpt, okM := opts["minute"]
	if !okU || !okH || !okM {
		c.respond(i, "❌ Give me a member, an hour, and a minute.")
		return
	}
	target := resolvedUser(i, userOpt)

	targetPrefs, err := c.prefs.Get(ctx, target.ID)
	if err != nil {
		c.respond(i, "⚠️ Could not load that member's preferences right now.")
		return
	}

	ct := domain.CheckinTime{
		Hour:     int(hourOpt.IntValue()),
		Minute:   int(minuteOpt.IntValue()),
		Timezone: targetPrefs.EffectiveCheckin(c.defaultHour, c.home.String()).Timezone,
	}

	if err := c.prefs.SetCheckinTime(ctx, target.ID, ct, true); err != nil {
		c.respond(i, fmt.Sprintf("❌ %v", err))
		return
	}

	c.respond(i, fmt.Sprintf("⏰ Locked <@%s>'s check-in time to **%02d:%02d** (%s).", target.ID, ct.Hour, ct.Minute, ct.Timezone))
}

func (c *Client) handleForceSync(i *discordgo.InteractionCreate) {
	count, err := c.registerCommands()
	if err != nil {
		c.logger.WithField("event", "forcesync_failed").WithError(err).Warn("command re-registration failed")
		c.respond(i, "⚠️ Could not re-register commands.")
		return
	}

	c.respond(i, fmt.Sprintf("✅ Re-registered %d commands.", count))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	const marker = "\n…"
	cut := limit - len(marker)
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
