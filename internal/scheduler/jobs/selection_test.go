package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/scheduler"
	"github.com/wonny/itrading/pkg/logger"
)

type stubRunner struct {
	configs []brain.RunConfig
	err     error
}

func (r *stubRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	r.configs = append(r.configs, cfg)
	if r.err != nil {
		return nil, r.err
	}
	return &brain.RunResult{Run: &contracts.RunRecord{RunID: "run-1"}}, nil
}

func newJob(runner Runner, now time.Time) *SelectionJob {
	j := NewSelectionJob(OpenSelection, "0 0 10 * * 1-5", runner, calendar.Default(), logger.NewNop())
	j.now = func() time.Time { return now }
	return j
}

func shanghai(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, calendar.Shanghai())
}

func TestSelectionJob_RunsOnTradingDay(t *testing.T) {
	runner := &stubRunner{}
	now := shanghai(2025, 1, 6, 10, 0) // Monday

	require.NoError(t, newJob(runner, now).Run(context.Background()))

	require.Len(t, runner.configs, 1)
	assert.Equal(t, brain.TriggerScheduler, runner.configs[0].Trigger)
	assert.True(t, now.Equal(runner.configs[0].Date))
}

func TestSelectionJob_SkipsNonTradingDays(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{"weekend", shanghai(2025, 1, 4, 10, 0)},
		{"holiday", shanghai(2025, 1, 1, 10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			err := newJob(runner, tt.now).Run(context.Background())
			assert.True(t, errors.Is(err, scheduler.ErrSkipped))
			assert.Empty(t, runner.configs)
		})
	}
}

func TestSelectionJob_RunnerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("all sources failed")}

	err := newJob(runner, shanghai(2025, 1, 6, 9, 26)).Run(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, scheduler.ErrSkipped))
}

func TestSelectionJobs_RegisterWithScheduler(t *testing.T) {
	s := scheduler.New(logger.NewNop())
	for _, job := range SelectionJobs("0 26 9 * * 1-5", "0 0 10 * * 1-5", &stubRunner{}, calendar.Default(), logger.NewNop()) {
		require.NoError(t, s.AddJob(job))
	}

	assert.Equal(t, []string{OpenSelection, PreOpenSelection}, s.GetAllJobs())
}
