// Package discord hosts the gateway client, slash-command routing, and
// handlers.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"level_checkin_bot/internal/config"
	"level_checkin_bot/internal/conversation"
	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/logging"
	"level_checkin_bot/internal/schedule"
	"level_checkin_bot/internal/tier"
)

// gatewaySession is the subset of *discordgo.Session the client uses,
// extracted for test stubbing.
type gatewaySession interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(interaction *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMembers(guildID, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	HeartbeatLatency() time.Duration
}

var createSession = func(token string) (gatewaySession, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return session, nil
}

// ProgressStore is the progress surface the handlers consume.
type ProgressStore interface {
	Get(ctx context.Context, userID string) (domain.ProgressRecord, error)
	SaveEntry(ctx context.Context, userID, username string, level *int) (domain.ProgressRecord, error)
	All(ctx context.Context) ([]domain.ProgressRecord, error)
	Reset(ctx context.Context, userID string) error
}

// PrefsStore is the preferences surface the handlers consume.
type PrefsStore interface {
	Get(ctx context.Context, userID string) (domain.Preferences, error)
	SetOptIn(ctx context.Context, userID string, optIn bool) error
	SetTimezone(ctx context.Context, userID, zone string) error
	SetCheckinTime(ctx context.Context, userID string, ct domain.CheckinTime, byAdmin bool) error
	ClearCheckinTime(ctx context.Context, userID string) error
}

// WarningStore is the warnings surface the handlers consume.
type WarningStore interface {
	Add(ctx context.Context, userID, username, reason, adminID string) (domain.Warning, error)
	List(ctx context.Context, userID string) ([]domain.Warning, error)
	Clear(ctx context.Context, userID string) error
}

// OverrideStore is the leaderboard-override surface the handlers consume.
type OverrideStore interface {
	Set(ctx context.Context, userID, username string, level int, reason, adminID string) (domain.Override, error)
	Get(ctx context.Context, userID string) (domain.Override, bool, error)
	All(ctx context.Context) (map[string]domain.Override, error)
	Clear(ctx context.Context, userID string) error
}

// RoleAssigner converges tier roles.
type RoleAssigner interface {
	Assign(userID string, level int) error
	SyncAll(records []domain.ProgressRecord) tier.Report
}

// ZoneResolver turns a city name into an IANA timezone.
type ZoneResolver interface {
	Resolve(city string) (zone, place string, err error)
}

// StatsSource supplies the counts shown by the ping diagnostics.
type StatsSource interface {
	CountTracked(ctx context.Context) (int64, error)
	CountWarned(ctx context.Context) (int64, error)
}

// Client wraps the gateway session and the stores the handlers need.
type Client struct {
	session gatewaySession

	guildID          string
	checkinChannelID string
	reportChannelID  string
	adminRoleName    string
	home             *time.Location
	defaultHour      int

	progress  ProgressStore
	prefs     PrefsStore
	warnings  WarningStore
	overrides OverrideStore
	tiers     RoleAssigner
	zones     ZoneResolver
	stats     StatsSource
	tracker   *conversation.Tracker

	pager  *pager
	logger *logrus.Entry
	clock  func() time.Time

	mu    sync.Mutex
	appID string
}

// Option configures a Client.
type Option func(*Client)

// WithProgress wires the progress store.
func WithProgress(store ProgressStore) Option { return func(c *Client) { c.progress = store } }

// WithPrefs wires the preferences store.
func WithPrefs(store PrefsStore) Option { return func(c *Client) { c.prefs = store } }

// WithModeration wires the warning and override stores.
func WithModeration(warnings WarningStore, overrides OverrideStore) Option {
	return func(c *Client) {
		c.warnings = warnings
		c.overrides = overrides
	}
}

// WithTiers wires the role reconciler.
func WithTiers(tiers RoleAssigner) Option { return func(c *Client) { c.tiers = tiers } }

// WithZones wires the city-to-timezone resolver.
func WithZones(zones ZoneResolver) Option { return func(c *Client) { c.zones = zones } }

// WithStats wires the diagnostics counters.
func WithStats(stats StatsSource) Option { return func(c *Client) { c.stats = stats } }

// WithTracker wires the conversation tracker.
func WithTracker(tracker *conversation.Tracker) Option {
	return func(c *Client) { c.tracker = tracker }
}

// SetTiers wires the role reconciler after construction; the reconciler
// itself is built around the live session, which only exists once the client
// does.
func (c *Client) SetTiers(tiers RoleAssigner) { c.tiers = tiers }

// Session exposes the raw gateway session for components that manage guild
// roles directly. It is nil when the session was stubbed.
func (c *Client) Session() *discordgo.Session {
	if raw, ok := c.session.(*discordgo.Session); ok {
		return raw
	}
	return nil
}

// NewClient initializes the gateway session and handler wiring.
func NewClient(cfg config.Config, logger *logrus.Entry, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return nil, errors.New("discord token is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	home, err := time.LoadLocation(cfg.HomeTimezone)
	if err != nil {
		return nil, fmt.Errorf("load home timezone: %w", err)
	}

	session, err := createSession(cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("init discord session: %w", err)
	}

	client := &Client{
		session:          session,
		guildID:          cfg.GuildID,
		checkinChannelID: cfg.CheckinChannelID,
		reportChannelID:  cfg.ReportChannelID,
		adminRoleName:    cfg.AdminRoleName,
		home:             home,
		defaultHour:      cfg.CheckinHour,
		tracker:          conversation.NewTracker(),
		pager:            newPager(),
		logger:           logger,
		clock:            time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Start opens the gateway connection and registers the slash commands once
// the ready event delivers the application ID.
func (c *Client) Start() error {
	c.session.AddHandler(c.onReady)
	c.session.AddHandler(c.onInteraction)
	c.session.AddHandler(c.onMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	c.logger.WithFields(logging.Fields{
		"event":    "gateway_connected",
		"guild_id": c.guildID,
	}).Info("discord gateway connected")

	return nil
}

// Stop closes the gateway connection.
func (c *Client) Stop() error {
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}

	c.logger.WithField("event", "gateway_closed").Info("discord gateway closed")
	return nil
}

func (c *Client) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.mu.Lock()
	c.appID = r.User.ID
	c.mu.Unlock()

	count, err := c.registerCommands()
	if err != nil {
		c.logger.WithField("event", "command_register_failed").WithError(err).Error("could not register slash commands")
		return
	}

	c.logger.WithFields(logging.Fields{
		"event":    "commands_registered",
		"commands": count,
	}).Info("slash commands registered")
}

func (c *Client) registerCommands() (int, error) {
	c.mu.Lock()
	appID := c.appID
	c.mu.Unlock()

	if appID == "" {
		return 0, errors.New("application id not known yet")
	}

	registered, err := c.session.ApplicationCommandBulkOverwrite(appID, c.guildID, commandDefinitions())
	if err != nil {
		return 0, fmt.Errorf("bulk overwrite commands: %w", err)
	}

	return len(registered), nil
}

// GuildMemberList pages through the guild's full member list.
func (c *Client) GuildMemberList(ctx context.Context) ([]schedule.Member, error) {
	const pageSize = 1000

	var members []schedule.Member
	after := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.session.GuildMembers(c.guildID, after, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list guild members: %w", err)
		}

		for _, member := range page {
			if member.User == nil {
				continue
			}
			members = append(members, schedule.Member{
				ID:       member.User.ID,
				Username: member.User.Username,
				Bot:      member.User.Bot,
			})
			after = member.User.ID
		}

		if len(page) < pageSize {
			return members, nil
		}
	}
}

const checkinPrompt = "👋 Hey! Did you do your check-in today? Reply **yes** or **no**."

// SendCheckin opens a DM with the user and delivers the daily prompt.
func (c *Client) SendCheckin(_ context.Context, userID string) error {
	channel, err := c.session.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}

	if _, err := c.session.ChannelMessageSend(channel.ID, checkinPrompt); err != nil {
		return fmt.Errorf("send check-in prompt: %w", err)
	}

	return nil
}

// SendReport posts the weekly report to the report channel, attaching the
// chart when one was rendered.
func (c *Client) SendReport(_ context.Context, content string, image *bytes.Buffer, filename string) error {
	send := &discordgo.MessageSend{Content: content}
	if image != nil && image.Len() > 0 {
		send.Files = []*discordgo.File{{
			Name:        filename,
			ContentType: "image/png",
			Reader:      image,
		}}
	}

	if _, err := c.session.ChannelMessageSendComplex(c.reportChannelID, send); err != nil {
		return fmt.Errorf("send weekly report: %w", err)
	}

	return nil
}
