package discord

import "github.com/bwmarrin/discordgo"

// adminCommands names the commands behind the admin role gate.
var adminCommands = map[string]bool{
	"setlevel":       true,
	"resetuser":      true,
	"announce":       true,
	"warn":           true,
	"viewwarnings":   true,
	"clearwarnings":  true,
	"shoutout":       true,
	"syncroles":      true,
	"setoverride":    true,
	"clearoverride":  true,
	"setusercheckin": true,
	"forcesync":      true,
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	userOption := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: desc,
			Required:    true,
		}
	}
	hourOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "hour",
		Description: "Hour of day (0-23).",
		Required:    true,
		MinValue:    float64Ptr(0),
		MaxValue:    23,
	}
	minuteOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "minute",
		Description: "Minute (0-59).",
		Required:    true,
		MinValue:    float64Ptr(0),
		MaxValue:    59,
	}

	return []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Check bot responsiveness and tracking stats."},
		{Name: "help", Description: "List available commands."},
		{Name: "myprogress", Description: "DM you a chart of your week."},
		{Name: "mystats", Description: "Your check-in count, streak, average, and latest level."},
		{Name: "myrank", Description: "Your position on the all-time leaderboard."},
		{
			Name:        "leaderboard",
			Description: "Show the level leaderboard.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "period",
				Description: "Ranking period.",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "All time", Value: "alltime"},
					{Name: "This week", Value: "week"},
					{Name: "This month", Value: "month"},
				},
			}},
		},
		{
			Name:        "levelof",
			Description: "Look up another member's level.",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to look up.")},
		},
		{Name: "checkin", Description: "Start your daily check-in now."},
		{Name: "nextcheckin", Description: "When your next check-in prompt arrives."},
		{Name: "optin", Description: "Receive daily check-in prompts."},
		{Name: "optout", Description: "Stop receiving daily check-in prompts."},
		{
			Name:        "settimezone",
			Description: "Set your timezone from a city name.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "city",
				Description: "City you live in, e.g. Berlin.",
				Required:    true,
			}},
		},
		{
			Name:        "setcheckintime",
			Description: "Set your daily check-in prompt time.",
			Options:     []*discordgo.ApplicationCommandOption{hourOption, minuteOption},
		},
		{Name: "dailyfact", Description: "A random daily fact."},
		{Name: "motivation", Description: "A random motivational quote."},

		{
			Name:        "setlevel",
			Description: "Admin: record today's level for a member.",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to update."),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Level value.",
					Required:    true,
					MinValue:    float64Ptr(0),
				},
			},
		},
		{
			Name:        "resetuser",
			Description: "Admin: delete all progress for a member.",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to reset.")},
		},
		{
			Name:        "announce",
			Description: "Admin: post an announcement to the check-in channel.",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message",
				Description: "Announcement text.",
				Required:    true,
			}},
		},
		{
			Name:        "warn",
			Description: "Admin: record a warning for a member.",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to warn."),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the warning.",
					Required:    true,
				},
			},
		},
		{
			Name:        "viewwarnings",
			Description: "Admin: list a member's warnings.",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to inspect.")},
		},
		{
			Name:        "clearwarnings",
			Description: "Admin: clear a member's warnings.",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to clear.")},
		},
		{
			Name:        "shoutout",
			Description: "Admin: celebrate a member in the check-in channel.",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to celebrate."),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "message",
					Description: "What they did.",
					Required:    true,
				},
			},
		},
		{Name: "syncroles", Description: "Admin: reconcile every member's tier role."},
		{
			Name:        "setoverride",
			Description: "Admin: pin a member's all-time leaderboard value.",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to override."),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Pinned leaderboard value.",
					Required:    true,
					MinValue:    float64Ptr(0),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why the override exists.",
				},
			},
		},
		{
			Name:        "clearoverride",
			Description: "Admin: remove a member's leaderboard override.",
			Options:     []*discordgo.ApplicationCommandOption{userOption("Member to clear.")},
		},
		{
			Name:        "setusercheckin",
			Description: "Admin: lock a member's check-in prompt time.",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("Member to update."),
				hourOption,
				minuteOption,
			},
		},
		{Name: "forcesync", Description: "Admin: re-register slash commands."},
	}
}

func float64Ptr(v float64) *float64 { return &v }
