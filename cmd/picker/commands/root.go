package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	env          string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picker",
	Short: "A주 종목 선정 · 스코어링 파이프라인",
	Long: `A-share Picker Unified CLI

실시간 시세 스냅샷 → 시장 판단 → 필터 → 스코어링 → AI 보강.
CLI, REST API, 스케줄러 모두 동일한 파이프라인을 사용합니다.

Usage:
  go run ./cmd/picker [command]

Examples:
  go run ./cmd/picker pick
  go run ./cmd/picker pick --mode bull --max 10 --out picks.csv
  go run ./cmd/picker api --port 8080
  go run ./cmd/picker scheduler start
  go run ./cmd/picker calendar check 20250101
  go run ./cmd/picker config validate config/strategy/a_share_picker.yaml`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default: $STRATEGY_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
}
