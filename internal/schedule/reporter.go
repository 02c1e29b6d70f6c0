package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"level_checkin_bot/internal/chart"
	"level_checkin_bot/internal/domain"
	"level_checkin_bot/internal/leaderboard"
	"level_checkin_bot/internal/logging"
)

// ReportSender posts the weekly report to the report channel.
type ReportSender interface {
	SendReport(ctx context.Context, content string, image *bytes.Buffer, filename string) error
}

// progressSource lists all tracked records; satisfied by *progress.Repository.
type progressSource interface {
	All(ctx context.Context) ([]domain.ProgressRecord, error)
}

// overrideSource lists leaderboard overrides; satisfied by *moderation.Overrides.
type overrideSource interface {
	All(ctx context.Context) (map[string]domain.Override, error)
}

// Reporter assembles and posts the weekly progress report: a chart of the
// past week, the most improved users, and the all-time top five.
type Reporter struct {
	progress  progressSource
	overrides overrideSource
	sender    ReportSender
	home      *time.Location
	clock     func() time.Time
	logger    *logrus.Entry
}

// NewReporter constructs a Reporter.
func NewReporter(progress progressSource, overrides overrideSource, sender ReportSender, home *time.Location, logger *logrus.Entry) *Reporter {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Reporter{
		progress:  progress,
		overrides: overrides,
		sender:    sender,
		home:      home,
		clock:     time.Now,
		logger:    logger,
	}
}

// Run builds and sends one weekly report.
func (r *Reporter) Run(ctx context.Context) error {
	if r == nil || r.progress == nil {
		return errors.New("reporter is not initialized")
	}

	records, err := r.progress.All(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	overrides, err := r.overrides.All(ctx)
	if err != nil {
		r.logger.WithFields(logging.Fields{
			"event": "report_overrides_error",
		}).WithError(err).Warn("building report without overrides")
		overrides = nil
	}

	now := r.clock().In(r.home)
	content := r.buildContent(records, overrides, now)

	image, err := r.buildChart(records, now)
	if err != nil && !errors.Is(err, chart.ErrNoData) {
		r.logger.WithFields(logging.Fields{
			"event": "report_chart_error",
		}).WithError(err).Warn("sending report without chart")
		image = nil
	}

	if err := r.sender.SendReport(ctx, content, image, "weekly_progress.png"); err != nil {
		return fmt.Errorf("send report: %w", err)
	}

	r.logger.WithFields(logging.Fields{
		"event": "weekly_report_sent",
		"users": len(records),
	}).Info("posted weekly report")

	return nil
}

func (r *Reporter) buildContent(records []domain.ProgressRecord, overrides map[string]domain.Override, now time.Time) string {
	var b strings.Builder
	b.WriteString("📊 **Weekly Progress Report**\n")

	week := domain.WeekDates(now)

	var gains []leaderboard.Gain
	for _, record := range records {
		series := leaderboard.WeekSeries(record, week)
		name := record.Username
		if name == "" {
			name = record.UserID
		}
		gains = append(gains, leaderboard.Gain{Username: name, Amount: leaderboard.WeeklyGain(series)})
	}

	top := leaderboard.TopGains(gains, 5)
	if len(top) > 0 {
		b.WriteString("\n**Most Improved This Week**\n")
		medals := []string{"🥇", "🥈", "🥉"}
		for i, gain := range top {
			if i < len(medals) {
				b.WriteString(fmt.Sprintf("%s %s: +%d levels\n", medals[i], gain.Username, gain.Amount))
				continue
			}
			b.WriteString(fmt.Sprintf("%d. %s: +%d levels\n", i+1, gain.Username, gain.Amount))
		}
	}

	scores := leaderboard.Scores(records, leaderboard.AllTime, now, overrides)
	if len(scores) > 0 {
		b.WriteString("\n**All-Time Top 5**\n")
		for i, score := range scores {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, score.Username, score.Total))
		}
	} else {
		b.WriteString("\nNo progress recorded yet.\n")
	}

	return b.String()
}

func (r *Reporter) buildChart(records []domain.ProgressRecord, now time.Time) (*bytes.Buffer, error) {
	week := domain.WeekDates(now)

	var series []chart.Series
	for _, record := range records {
		name := record.Username
		if name == "" {
			name = record.UserID
		}
		series = append(series, chart.Series{
			Name:   name,
			Values: leaderboard.WeekSeries(record, week),
		})
	}

	return chart.RenderWeek("Weekly Progress", week, series)
}
