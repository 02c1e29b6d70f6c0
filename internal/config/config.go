// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyDiscordToken     = "DISCORD_TOKEN"
	KeyGuildID          = "GUILD_ID"
	KeyCheckinChannelID = "CHECKIN_CHANNEL_ID"
	KeyReportChannelID  = "REPORT_CHANNEL_ID"
	KeyAdminRoleName    = "ADMIN_ROLE_NAME"
	KeyMongoURI         = "MONGO_URI"
	KeyMongoDB          = "MONGO_DB"
	KeyAppEnv           = "APP_ENV"
	KeyLogLevel         = "LOG_LEVEL"
	KeyHTTPPort         = "HTTP_PORT"
	KeyCheckinHour      = "CHECKIN_HOUR"
	KeyHomeTimezone     = "HOME_TIMEZONE"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Defaults for optional settings.
	DefaultAppEnv       = EnvProduction
	DefaultLogLevel     = "info"
	DefaultHTTPPort     = 8080
	DefaultCheckinHour  = 20
	DefaultHomeTimezone = "America/New_York"

	// Recommended database names by environment.
	DefaultMongoDBProd = "level_bot"
	DefaultMongoDBDev  = "level_bot_dev"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyDiscordToken,
		Example:     "MTA4...token",
		Required:    true,
		Description: "Discord bot token issued by the developer portal.",
	},
	{
		Key:         KeyGuildID,
		Example:     "123456789012345678",
		Required:    true,
		Description: "Snowflake ID of the guild the bot serves.",
	},
	{
		Key:         KeyCheckinChannelID,
		Example:     "123456789012345678",
		Required:    true,
		Description: "Channel for announcements and shoutouts.",
	},
	{
		Key:         KeyReportChannelID,
		Example:     "123456789012345678",
		Required:    true,
		Description: "Channel for the weekly progress report.",
	},
	{
		Key:         KeyAdminRoleName,
		Example:     "Moderator",
		Required:    true,
		Description: "Role name that grants access to admin commands.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Required:    true,
		Description: "MongoDB connection string.",
	},
	{
		Key:         KeyMongoDB,
		Example:     DefaultMongoDBProd + " / " + DefaultMongoDBDev,
		Required:    true,
		Description: "MongoDB database name.",
		Notes:       "Recommended: production=" + DefaultMongoDBProd + ", development=" + DefaultMongoDBDev + ".",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP liveness/diagnostics port.",
	},
	{
		Key:         KeyCheckinHour,
		Example:     strconv.Itoa(DefaultCheckinHour),
		Default:     strconv.Itoa(DefaultCheckinHour),
		Description: "Default daily check-in hour (0-23) for users without a custom time.",
	},
	{
		Key:         KeyHomeTimezone,
		Example:     DefaultHomeTimezone,
		Default:     DefaultHomeTimezone,
		Description: "IANA reference zone for canonical date keys and report windows.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	DiscordToken     string
	GuildID          string
	CheckinChannelID string
	ReportChannelID  string
	AdminRoleName    string
	MongoURI         string
	MongoDB          string
	AppEnv           string
	LogLevel         string
	HTTPPort         int
	CheckinHour      int
	HomeTimezone     string
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:           firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		DiscordToken:     strings.TrimSpace(os.Getenv(KeyDiscordToken)),
		GuildID:          strings.TrimSpace(os.Getenv(KeyGuildID)),
		CheckinChannelID: strings.TrimSpace(os.Getenv(KeyCheckinChannelID)),
		ReportChannelID:  strings.TrimSpace(os.Getenv(KeyReportChannelID)),
		AdminRoleName:    strings.TrimSpace(os.Getenv(KeyAdminRoleName)),
		MongoURI:         strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:          strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:         firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		HTTPPort:         DefaultHTTPPort,
		CheckinHour:      DefaultCheckinHour,
		HomeTimezone:     firstNonEmpty(strings.TrimSpace(os.Getenv(KeyHomeTimezone)), DefaultHomeTimezone),
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.DiscordToken == "" {
		missing = append(missing, KeyDiscordToken)
	}
	if cfg.AdminRoleName == "" {
		missing = append(missing, KeyAdminRoleName)
	}
	if cfg.MongoURI == "" {
		missing = append(missing, KeyMongoURI)
	}
	if cfg.MongoDB == "" {
		missing = append(missing, KeyMongoDB)
	}

	for _, snowflake := range []struct {
		key   string
		value string
	}{
		{KeyGuildID, cfg.GuildID},
		{KeyCheckinChannelID, cfg.CheckinChannelID},
		{KeyReportChannelID, cfg.ReportChannelID},
	} {
		if snowflake.value == "" {
			missing = append(missing, snowflake.key)
			continue
		}
		if !isSnowflake(snowflake.value) {
			return Config{}, fmt.Errorf("invalid %s: must be a numeric snowflake ID", snowflake.key)
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	httpPortRaw := strings.TrimSpace(os.Getenv(KeyHTTPPort))
	if httpPortRaw != "" {
		port, parseErr := strconv.Atoi(httpPortRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyHTTPPort, parseErr)
		}
		if port <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than 0", KeyHTTPPort)
		}
		cfg.HTTPPort = port
	}

	checkinHourRaw := strings.TrimSpace(os.Getenv(KeyCheckinHour))
	if checkinHourRaw != "" {
		hour, parseErr := strconv.Atoi(checkinHourRaw)
		if parseErr != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", KeyCheckinHour, parseErr)
		}
		if hour < 0 || hour > 23 {
			return Config{}, fmt.Errorf("%s must be between 0 and 23", KeyCheckinHour)
		}
		cfg.CheckinHour = hour
	}

	if _, err := time.LoadLocation(cfg.HomeTimezone); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyHomeTimezone, err)
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// FormatRedacted renders the resolved configuration with secrets masked, for
// the --config-only startup check.
func FormatRedacted(cfg Config) string {
	var b strings.Builder

	write := func(key, value string) {
		fmt.Fprintf(&b, "%s=%s\n", key, value)
	}

	write(KeyAppEnv, cfg.AppEnv)
	write(KeyDiscordToken, redact(cfg.DiscordToken))
	write(KeyGuildID, cfg.GuildID)
	write(KeyCheckinChannelID, cfg.CheckinChannelID)
	write(KeyReportChannelID, cfg.ReportChannelID)
	write(KeyAdminRoleName, cfg.AdminRoleName)
	write(KeyMongoURI, redact(cfg.MongoURI))
	write(KeyMongoDB, cfg.MongoDB)
	write(KeyLogLevel, cfg.LogLevel)
	write(KeyHTTPPort, strconv.Itoa(cfg.HTTPPort))
	write(KeyCheckinHour, strconv.Itoa(cfg.CheckinHour))
	write(KeyHomeTimezone, cfg.HomeTimezone)

	return strings.TrimRight(b.String(), "\n")
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "***"
}

func isSnowflake(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
