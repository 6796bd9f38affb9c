package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/itrading/internal/api"
	"github.com/wonny/itrading/internal/api/handlers"
	"github.com/wonny/itrading/internal/scheduler"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API + WebSocket 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 선정 실행/조회 엔드포인트 제공
- 실행 완료 시 WebSocket 으로 결과 브로드캐스트

Endpoints:
  GET  /health                   - Health check
  POST /api/selection/run        - 선정 실행
  GET  /api/selection/latest     - 최근 실행 결과
  GET  /api/selection/runs/{id}  - 실행 결과 조회
  GET  /api/profiles/{mode}      - 모드별 선정 기준
  GET  /api/calendar/{date}      - 거래일 조회 (YYYYMMDD | today)
  GET  /ws/selection             - 실행 결과 스트림

Example:
  go run ./cmd/picker api
  go run ./cmd/picker api --port 8080 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: $PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "장전/장중 선정 스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== A-share Picker API Server ===")

	cfg, comp, log, err := assemble(context.Background())
	if err != nil {
		return err
	}
	defer comp.Close()

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// WebSocket 허브: 모든 실행 결과 (API, 스케줄러) 를 브로드캐스트
	hub := handlers.NewStreamHub(log)
	comp.Orchestrator.SetBroadcaster(hub)

	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(comp.Orchestrator.Store(), log).WithCache(comp.Redis),
		Selection: handlers.NewSelectionHandler(comp.Orchestrator, log),
		Calendar:  handlers.NewCalendarHandler(comp.Calendar, log),
		Stream:    hub,
	}, log)

	server := api.New(cfg, log, router)

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched, err = newScheduler(comp, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/selection/run")
	fmt.Println("  GET  /api/selection/latest")
	fmt.Println("  GET  /api/selection/runs/{id}")
	fmt.Println("  GET  /api/profiles/{mode}")
	fmt.Println("  GET  /api/calendar/{date}")
	fmt.Println("  GET  /ws/selection")
	if sched != nil {
		fmt.Println("\nScheduled jobs:")
		for _, name := range sched.GetAllJobs() {
			fmt.Printf("  - %s\n", name)
		}
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
