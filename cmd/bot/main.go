package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"level_checkin_bot/internal/config"
	"level_checkin_bot/internal/conversation"
	"level_checkin_bot/internal/discord"
	"level_checkin_bot/internal/geo"
	"level_checkin_bot/internal/health"
	"level_checkin_bot/internal/logging"
	"level_checkin_bot/internal/moderation"
	"level_checkin_bot/internal/prefs"
	"level_checkin_bot/internal/progress"
	"level_checkin_bot/internal/schedule"
	"level_checkin_bot/internal/store"
	"level_checkin_bot/internal/tier"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	healthShutdownTimeout  = 5 * time.Second
)

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"mongo_db": cfg.MongoDB,
		"guild_id": cfg.GuildID,
	}).Info("configuration loaded")

	home, err := time.LoadLocation(cfg.HomeTimezone)
	if err != nil {
		logger.WithError(err).Error("home timezone error")
		fmt.Fprintf(os.Stderr, "home timezone error: %v\n", err)
		os.Exit(1)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	progressRepo := progress.NewRepository(mongoManager.Progress(), home, logger)
	prefsRepo := prefs.NewRepository(mongoManager.Prefs(), logger)
	warnings := moderation.NewWarnings(mongoManager.Warnings(), logger)
	overrides := moderation.NewOverrides(mongoManager.Overrides(), logger)
	statsProvider := store.NewStatsProvider(mongoManager.Progress(), mongoManager.Warnings())
	tracker := conversation.NewTracker()

	zoneResolver, err := geo.NewResolver()
	if err != nil {
		logger.WithError(err).Error("timezone resolver setup error")
		fmt.Fprintf(os.Stderr, "timezone resolver setup error: %v\n", err)
		os.Exit(1)
	}

	botClient, err := discord.NewClient(cfg, logger,
		discord.WithProgress(progressRepo),
		discord.WithPrefs(prefsRepo),
		discord.WithModeration(warnings, overrides),
		discord.WithZones(zoneResolver),
		discord.WithStats(statsProvider),
		discord.WithTracker(tracker),
	)
	if err != nil {
		logger.WithError(err).Error("discord client setup error")
		fmt.Fprintf(os.Stderr, "discord client setup error: %v\n", err)
		os.Exit(1)
	}

	reconciler := tier.NewReconciler(botClient.Session(), cfg.GuildID, logger)
	botClient.SetTiers(reconciler)

	if err := botClient.Start(); err != nil {
		logger.WithError(err).Error("discord gateway error")
		fmt.Fprintf(os.Stderr, "discord gateway error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "discord_ready").Info("discord client started")

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	poller := schedule.NewPoller(botClient, prefsRepo, tracker, botClient, home, cfg.CheckinHour, logger)
	reporter := schedule.NewReporter(progressRepo, overrides, botClient, home, logger)

	jobs, err := schedule.Start(jobCtx, poller, reporter, home, logger)
	if err != nil {
		cancelJobs()
		logger.WithError(err).Error("scheduler setup error")
		fmt.Fprintf(os.Stderr, "scheduler setup error: %v\n", err)
		os.Exit(1)
	}

	healthServer := health.NewServer(cfg.HTTPPort, mongoManager, logger)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil {
			logger.WithError(err).Error("health server error")
		}
	}()

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-signalCtx.Done()
	logger.WithField("event", "shutdown_signal").Info("received termination signal, shutting down")

	cancelJobs()
	if err := jobs.Stop(); err != nil {
		logger.WithError(err).Error("scheduler shutdown error")
	}

	if err := botClient.Stop(); err != nil {
		logger.WithError(err).Error("discord shutdown error")
	}

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), healthShutdownTimeout)
	if err := healthServer.Shutdown(healthCtx); err != nil {
		logger.WithError(err).Error("health server shutdown error")
	}
	cancelHealth()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}
