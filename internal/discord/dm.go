package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"level_checkin_bot/internal/conversation"
	"level_checkin_bot/internal/logging"
)

const (
	askLevelReply    = "📈 What level are you at now?"
	noLevelReply     = "👍 Got it! No level today."
	notANumberReply  = "❌ Please enter a number."
	saveFailedReply  = "⚠️ Something went wrong saving that. Please try again."
	negativeReply    = "❌ Levels can't be negative. Please enter a number."
	savedReplyFormat = "✅ Saved level %d for today!"
)

func (c *Client) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logging.Fields{
				"event": "handler_panic",
				"panic": r,
			}).Error("recovered from message handler panic")
		}
	}()

	// Only direct messages from humans feed the conversation.
	if m.Author == nil || m.Author.Bot || m.GuildID != "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	reply, ok := c.dmReply(ctx, m.Author.ID, displayName(m.Author), m.Content)
	if !ok {
		return
	}

	if _, err := c.session.ChannelMessageSend(m.ChannelID, reply); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "dm_reply_failed",
			"user_id": m.Author.ID,
		}).WithError(err).Warn("could not send dm reply")
	}
}

// dmReply advances the check-in conversation for one incoming DM and returns
// the reply, if any. Messages outside a conversation are ignored.
func (c *Client) dmReply(ctx context.Context, userID, username, content string) (string, bool) {
	switch c.tracker.Stage(userID) {
	case conversation.StageAsked:
		return c.dmAnswerYesNo(ctx, userID, username, content)
	case conversation.StageAwaitingLevel:
		return c.dmAnswerLevel(ctx, userID, username, content)
	default:
		return "", false
	}
}

func (c *Client) dmAnswerYesNo(ctx context.Context, userID, username, content string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "yes", "y":
		if !c.tracker.Advance(userID) {
			return "", false
		}
		return askLevelReply, true

	case "no", "n":
		if _, err := c.progress.SaveEntry(ctx, userID, username, nil); err != nil {
			c.logger.WithFields(logging.Fields{
				"event":   "no_report_save_failed",
				"user_id": userID,
			}).WithError(err).Warn("could not record no-report")
			return saveFailedReply, true
		}
		c.tracker.Clear(userID)
		return noLevelReply, true

	default:
		// Unrelated chatter; the question stays pending.
		return "", false
	}
}

func (c *Client) dmAnswerLevel(ctx context.Context, userID, username, content string) (string, bool) {
	level, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return notANumberReply, true
	}
	if level < 0 {
		return negativeReply, true
	}

	if _, err := c.progress.SaveEntry(ctx, userID, username, &level); err != nil {
		c.logger.WithFields(logging.Fields{
			"event":   "level_save_failed",
			"user_id": userID,
		}).WithError(err).Warn("could not save level")
		return saveFailedReply, true
	}
	c.tracker.Clear(userID)

	if c.tiers != nil && level > 0 {
		if err := c.tiers.Assign(userID, level); err != nil {
			c.logger.WithFields(logging.Fields{
				"event":   "checkin_role_failed",
				"user_id": userID,
			}).WithError(err).Warn("level saved but role converge failed")
		}
	}

	return fmt.Sprintf(savedReplyFormat, level), true
}
