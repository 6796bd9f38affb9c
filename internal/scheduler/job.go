package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrSkipped is returned (wrapped) by a job that decided not to run,
// e.g. on a non-trading day. It counts as success and is never retried.
var ErrSkipped = errors.New("job skipped")

// ErrJobRunning is returned when a job is triggered while it is still running
var ErrJobRunning = errors.New("job already running")

// Job is a unit of scheduled work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error
	// Schedule is a six-field cron spec evaluated in Asia/Shanghai, e.g. "0 26 9 * * 1-5"
	Schedule() string
}

// Status is the outcome of one job execution
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// JobResult records one execution (all retry attempts included)
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"`
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
}

// Status classifies the result
func (r JobResult) Status() Status {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Success:
		return StatusSuccess
	default:
		return StatusFailed
	}
}

// maxHistory bounds the per-job result history
const maxHistory = 100

// JobHistory keeps the latest maxHistory results of a job, oldest first.
// Access is guarded by the scheduler's lock.
type JobHistory struct {
	Results []JobResult
}

// Add appends a result, dropping the oldest beyond maxHistory
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// Latest returns up to n most recent results
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// Count returns how many results have the given status
func (h *JobHistory) Count(status Status) int {
	n := 0
	for _, r := range h.Results {
		if r.Status() == status {
			n++
		}
	}
	return n
}

// Last returns the most recent result with the given status, or nil
func (h *JobHistory) Last(status Status) *JobResult {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Status() == status {
			r := h.Results[i]
			return &r
		}
	}
	return nil
}

// SuccessRate is the share of non-failed runs (skips count as success)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return 1 - float64(h.Count(StatusFailed))/float64(len(h.Results))
}
