package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"level_checkin_bot/internal/logging"
)

const pollInterval = 10 * time.Minute

// Jobs owns the cron scheduler running the prompt poller and the weekly
// reporter.
type Jobs struct {
	scheduler gocron.Scheduler
	logger    *logrus.Entry
}

// Start wires the poller and reporter into a scheduler and starts it. The
// poll job fires every ten minutes; the report job fires Mondays at noon in
// the home timezone.
func Start(ctx context.Context, poller *Poller, reporter *Reporter, home *time.Location, logger *logrus.Entry) (*Jobs, error) {
	if logger == nil {
		logger = logging.Logger()
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(home))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(pollInterval),
		gocron.NewTask(func() {
			if err := poller.Poll(ctx); err != nil {
				logger.WithFields(logging.Fields{
					"event": "poll_failed",
				}).WithError(err).Error("check-in poll failed")
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule poll job: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.WeeklyJob(1, gocron.NewWeekdays(time.Monday), gocron.NewAtTimes(gocron.NewAtTime(12, 0, 0))),
		gocron.NewTask(func() {
			if err := reporter.Run(ctx); err != nil {
				logger.WithFields(logging.Fields{
					"event": "weekly_report_failed",
				}).WithError(err).Error("weekly report failed")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule report job: %w", err)
	}

	scheduler.Start()
	logger.WithFields(logging.Fields{
		"event": "scheduler_started",
		"zone":  home.String(),
	}).Info("scheduler running")

	return &Jobs{scheduler: scheduler, logger: logger}, nil
}

// Stop shuts the scheduler down, waiting for running jobs to finish.
func (j *Jobs) Stop() error {
	if j == nil || j.scheduler == nil {
		return nil
	}

	if err := j.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}

	j.logger.WithFields(logging.Fields{
		"event": "scheduler_stopped",
	}).Info("scheduler stopped")

	return nil
}
