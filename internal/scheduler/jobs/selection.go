package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/scheduler"
	"github.com/wonny/itrading/pkg/logger"
)

// Job names
const (
	PreOpenSelection = "preopen_selection"
	OpenSelection    = "open_selection"
)

// Runner executes one selection run
type Runner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// SelectionJob runs the selection pipeline on trading days
// ⭐ SSOT: 장전/장중 선정 스케줄은 이 Job에서만
type SelectionJob struct {
	name     string
	schedule string
	runner   Runner
	calendar *calendar.Calendar
	logger   *logger.Logger
	now      func() time.Time
}

// NewSelectionJob creates a selection job with the given name and cron schedule
func NewSelectionJob(name, schedule string, runner Runner, cal *calendar.Calendar, log *logger.Logger) *SelectionJob {
	return &SelectionJob{
		name:     name,
		schedule: schedule,
		runner:   runner,
		calendar: cal,
		logger:   log.Component(name),
		now:      time.Now,
	}
}

// Name returns the job name
func (j *SelectionJob) Name() string {
	return j.name
}

// Schedule returns the cron schedule (with seconds, Asia/Shanghai)
func (j *SelectionJob) Schedule() string {
	return j.schedule
}

// Run executes one selection; non-trading days are skipped
func (j *SelectionJob) Run(ctx context.Context) error {
	now := j.now()
	if !j.calendar.IsTradingDay(now) {
		return fmt.Errorf("%w: %s is not a trading day",
			scheduler.ErrSkipped, calendar.FormatTradeDate(now.In(j.calendar.Location())))
	}

	j.logger.WithField("session", j.calendar.Session(now)).Info("Starting scheduled selection")

	result, err := j.runner.Run(ctx, brain.RunConfig{
		Date:    now,
		Trigger: brain.TriggerScheduler,
	})
	if err != nil {
		return fmt.Errorf("selection run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   result.Run.RunID,
		"selected": len(result.Run.Selection),
		"reason":   result.Run.Stats.Reason,
	}).Info("Scheduled selection completed")

	return nil
}

// SelectionJobs builds the pre-open and open jobs from their schedules
func SelectionJobs(preOpen, open string, runner Runner, cal *calendar.Calendar, log *logger.Logger) []scheduler.Job {
	return []scheduler.Job{
		NewSelectionJob(PreOpenSelection, preOpen, runner, cal, log),
		NewSelectionJob(OpenSelection, open, runner, cal, log),
	}
}
