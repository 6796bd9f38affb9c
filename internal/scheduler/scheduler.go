package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/pkg/logger"
)

// Scheduler manages scheduled jobs. Cron expressions are evaluated in Asia/Shanghai.
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	running map[string]bool
	mu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Retry configuration
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets the retry policy: maxRetries extra attempts, the first after delay, then doubling
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a new scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:       cron.New(cron.WithSeconds(), cron.WithLocation(calendar.Shanghai())),
		logger:     log.Component("scheduler"),
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		running:    make(map[string]bool),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 2,
		retryDelay: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.onTick(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job and its cron entry
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[jobName]; !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(s.entries[jobName])
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the cron loop, cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	ctx := s.cron.Stop()
	s.cancel()
	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// NextRun returns the next activation time of a job (zero before Start)
func (s *Scheduler) NextRun(jobName string) (time.Time, error) {
	s.mu.RLock()
	id, exists := s.entries[jobName]
	s.mu.RUnlock()
	if !exists {
		return time.Time{}, fmt.Errorf("job %s not found", jobName)
	}
	return s.cron.Entry(id).Next, nil
}

// RunJob runs a specific job immediately in the background
func (s *Scheduler) RunJob(jobName string) error {
	job, err := s.job(jobName)
	if err != nil {
		return err
	}
	if !s.acquire(jobName) {
		return fmt.Errorf("job %s: %w", jobName, ErrJobRunning)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(jobName)
		s.execute(s.ctx, job)
	}()
	return nil
}

// RunJobNow runs a job synchronously and returns its result.
// It fails with ErrJobRunning when the same job is already in flight.
func (s *Scheduler) RunJobNow(ctx context.Context, jobName string) (JobResult, error) {
	job, err := s.job(jobName)
	if err != nil {
		return JobResult{}, err
	}
	if !s.acquire(jobName) {
		return JobResult{}, fmt.Errorf("job %s: %w", jobName, ErrJobRunning)
	}
	defer s.release(jobName)

	s.wg.Add(1)
	defer s.wg.Done()
	return s.execute(ctx, job), nil
}

// IsRunning reports whether a job is currently executing
func (s *Scheduler) IsRunning(jobName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running[jobName]
}

func (s *Scheduler) job(jobName string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}
	return job, nil
}

// onTick is the cron callback. A tick that lands while the previous run is
// still going is dropped, so two selections never overlap.
func (s *Scheduler) onTick(job Job) {
	if !s.acquire(job.Name()) {
		s.logger.WithField("job", job.Name()).Warn("Previous run still in progress, tick dropped")
		return
	}
	defer s.release(job.Name())

	s.wg.Add(1)
	defer s.wg.Done()
	s.execute(s.ctx, job)
}

func (s *Scheduler) acquire(jobName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[jobName] {
		return false
	}
	s.running[jobName] = true
	return true
}

func (s *Scheduler) release(jobName string) {
	s.mu.Lock()
	delete(s.running, jobName)
	s.mu.Unlock()
}

// execute runs a job with retries and records the result
func (s *Scheduler) execute(ctx context.Context, job Job) JobResult {
	log := s.logger.WithField("job", job.Name())
	log.Info("Job started")

	result := JobResult{JobName: job.Name(), StartTime: time.Now()}
	err := s.attempt(ctx, job, &result)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	switch {
	case err == nil:
		result.Success = true
	case errors.Is(err, ErrSkipped):
		result.Success, result.Skipped = true, true
	default:
		result.Error = err.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[job.Name()]; exists {
		history.Add(result)
	}
	s.mu.Unlock()

	fields := map[string]interface{}{
		"status":   result.Status(),
		"attempts": result.Attempts,
		"duration": result.Duration,
	}
	switch result.Status() {
	case StatusFailed:
		log.WithFields(fields).WithError(err).Error("Job failed after all retries")
	case StatusSkipped:
		log.WithFields(fields).WithField("reason", err.Error()).Info("Job skipped")
	default:
		log.WithFields(fields).Info("Job completed")
	}

	return result
}

// attempt calls job.Run up to 1+maxRetries times. The delay doubles after
// every failure. Skips and cancellation end the loop at once.
func (s *Scheduler) attempt(ctx context.Context, job Job, result *JobResult) error {
	delay := s.retryDelay
	var err error

	for result.Attempts <= s.maxRetries {
		result.Attempts++

		err = job.Run(ctx)
		if err == nil || errors.Is(err, ErrSkipped) || ctx.Err() != nil {
			return err
		}
		if result.Attempts > s.maxRetries {
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":      job.Name(),
			"attempt":  result.Attempts,
			"retry_in": delay,
		}).WithError(err).Warn("Job execution failed, retrying")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}

// GetJobHistory returns the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)
	for jobName, job := range s.jobs {
		history := s.history[jobName]
		failed := history.Count(StatusFailed)

		st := JobStats{
			JobName:      jobName,
			Schedule:     job.Schedule(),
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - failed,
			SkippedCount: history.Count(StatusSkipped),
			FailureCount: failed,
			SuccessRate:  history.SuccessRate(),
		}

		if latest := history.Latest(1); len(latest) == 1 {
			st.LastRun = &latest[0].StartTime
		}
		for _, status := range []Status{StatusSuccess, StatusSkipped} {
			if r := history.Last(status); r != nil && (st.LastSuccess == nil || r.StartTime.After(*st.LastSuccess)) {
				st.LastSuccess = &r.StartTime
			}
		}
		if r := history.Last(StatusFailed); r != nil {
			st.LastFailure = &r.StartTime
		}

		stats[jobName] = st
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"` // skipped runs included
	SkippedCount int        `json:"skipped_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
