package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/scheduler"
	"github.com/wonny/itrading/internal/scheduler/jobs"
	"github.com/wonny/itrading/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "선정 스케줄러 관리",
	Long: `장전/장중 선정 Job 을 cron 으로 실행합니다 (Asia/Shanghai 기준).

Jobs:
  preopen_selection  - 장전 선정 (기본 09:26, schedule.pre_open)
  open_selection     - 장중 선정 (기본 10:00, schedule.open)

휴장일에는 Job 이 실행되지 않고 skipped 로 기록됩니다.

Example:
  go run ./cmd/picker scheduler start
  go run ./cmd/picker scheduler list
  go run ./cmd/picker scheduler run open_selection
  go run ./cmd/picker scheduler status`,
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "스케줄러 시작",
	RunE:  runScheduler,
}

var schedulerListCmd = &cobra.Command{
	Use:   "list",
	Short: "등록된 Job 목록",
	RunE:  listJobs,
}

var schedulerRunCmd = &cobra.Command{
	Use:   "run [job-name]",
	Short: "Job 즉시 실행",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Job 실행 통계",
	RunE:  showStatus,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== A-share Picker Scheduler ===")

	_, comp, log, err := assemble(context.Background())
	if err != nil {
		return err
	}
	defer comp.Close()

	sched, err := newScheduler(comp, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// Start scheduler
	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	_, comp, log, err := assemble(context.Background())
	if err != nil {
		return err
	}
	defer comp.Close()

	sched, err := newScheduler(comp, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, comp, log, err := assemble(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()

	sched, err := newScheduler(comp, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	switch {
	case result.Skipped:
		PrintInfo(fmt.Sprintf("Job skipped: %s", result.Error))
	case result.Success:
		PrintSuccess(fmt.Sprintf("Job completed in %s (attempts: %d)", result.Duration, result.Attempts))
	default:
		PrintError(fmt.Sprintf("Job failed after %d attempts: %s", result.Attempts, result.Error))
		return errors.New(result.Error)
	}
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	_, comp, log, err := assemble(context.Background())
	if err != nil {
		return err
	}
	defer comp.Close()

	sched, err := newScheduler(comp, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Skipped: %d (휴장일)\n", stat.SkippedCount)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

// newScheduler registers the selection jobs on a fresh scheduler
func newScheduler(comp *brain.Components, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	schedule := comp.Strategy.Schedule
	for _, job := range jobs.SelectionJobs(schedule.PreOpen, schedule.Open, comp.Orchestrator, comp.Calendar, log) {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

// printJobs lists the jobs; next activation is known only once started
func printJobs(sched *scheduler.Scheduler) {
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, err := sched.NextRun(jobName)
		if err != nil || next.IsZero() {
			fmt.Printf("  - %s\n", jobName)
			continue
		}
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
}
