package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"level_checkin_bot/internal/logging"
)

const (
	handlerTimeout = 15 * time.Second
	noPermission   = "🚫 You don't have permission to use this command."
)

func (c *Client) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logging.Fields{
				"event": "handler_panic",
				"panic": r,
			}).Error("recovered from interaction handler panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.dispatchCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		c.handlePagerTurn(i)
	}
}

func (c *Client) dispatchCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	caller := interactionUser(i)
	if caller == nil {
		return
	}

	logger := c.logger.WithFields(logging.Fields{
		"event":   "command",
		"command": data.Name,
		"user_id": caller.ID,
	})

	if adminCommands[data.Name] && !c.isAdmin(i) {
		logger.Warn("rejected unauthorized admin command")
		c.respond(i, noPermission)
		return
	}

	logger.Info("handling command")

	switch data.Name {
	case "ping":
		c.handlePing(ctx, i)
	case "help":
		c.respond(i, helpText())
	case "myprogress":
		c.handleMyProgress(ctx, i)
	case "mystats":
		c.handleMyStats(ctx, i)
	case "myrank":
		c.handleMyRank(ctx, i)
	case "leaderboard":
		c.handleLeaderboard(ctx, i)
	case "levelof":
		c.handleLevelOf(ctx, i)
	case "checkin":
		c.handleCheckin(ctx, i)
	case "nextcheckin":
		c.handleNextCheckin(ctx, i)
	case "optin":
		c.handleOptIn(ctx, i, true)
	case "optout":
		c.handleOptIn(ctx, i, false)
	case "settimezone":
		c.handleSetTimezone(ctx, i)
	case "setcheckintime":
		c.handleSetCheckinTime(ctx, i)
	case "dailyfact":
		c.handleFlavor(i, "fact")
	case "motivation":
		c.handleFlavor(i, "quote")
	case "setlevel":
		c.handleSetLevel(ctx, i)
	case "resetuser":
		c.handleResetUser(ctx, i)
	case "announce":
		c.handleAnnounce(ctx, i)
	case "warn":
		c.handleWarn(ctx, i)
	case "viewwarnings":
		c.handleViewWarnings(ctx, i)
	case "clearwarnings":
		c.handleClearWarnings(ctx, i)
	case "shoutout":
		c.handleShoutout(ctx, i)
	case "syncroles":
		c.handleSyncRoles(ctx, i)
	case "setoverride":
		c.handleSetOverride(ctx, i)
	case "clearoverride":
		c.handleClearOverride(ctx, i)
	case "setusercheckin":
		c.handleSetUserCheckin(ctx, i)
	case "forcesync":
		c.handleForceSync(i)
	default:
		logger.Warn("unknown command")
	}
}

// isAdmin reports whether the calling member holds the configured admin role.
// DMs carry no member and are never admin.
func (c *Client) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}

	roles, err := c.session.GuildRoles(c.guildID)
	if err != nil {
		c.logger.WithField("event", "admin_check_failed").WithError(err).Warn("could not list guild roles")
		return false
	}

	return hasRoleNamed(roles, i.Member.Roles, c.adminRoleName)
}

// hasRoleNamed reports whether any of the held role IDs maps to the given
// role name.
func hasRoleNamed(roles []*discordgo.Role, heldIDs []string, name string) bool {
	if name == "" {
		return false
	}

	var wantID string
	for _, role := range roles {
		if role.Name == name {
			wantID = role.ID
			break
		}
	}
	if wantID == "" {
		return false
	}

	for _, id := range heldIDs {
		if id == wantID {
			return true
		}
	}
	return false
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func (c *Client) respond(i *discordgo.InteractionCreate, content string) {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		c.logger.WithField("event", "respond_failed").WithError(err).Warn("could not answer interaction")
	}
}

func (c *Client) deferReply(i *discordgo.InteractionCreate) bool {
	err := c.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		c.logger.WithField("event", "defer_failed").WithError(err).Warn("could not defer interaction")
		return false
	}
	return true
}

func (c *Client) followup(i *discordgo.InteractionCreate, content string) {
	if _, err := c.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: content}); err != nil {
		c.logger.WithField("event", "followup_failed").WithError(err).Warn("could not send followup")
	}
}

// resolvedUser returns the full user behind a user option. UserValue with a
// nil session yields only the bare ID; the interaction's resolved payload
// carries the username, so it is consulted first.
func resolvedUser(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.User {
	user := opt.UserValue(nil)
	if user == nil {
		return nil
	}

	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if full, ok := resolved.Users[user.ID]; ok && full != nil {
			return full
		}
	}

	return user
}

// options flattens the command options into a name-keyed map.
func options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	data := i.ApplicationCommandData()
	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		byName[opt.Name] = opt
	}
	return byName
}
