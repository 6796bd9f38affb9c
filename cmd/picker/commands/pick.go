package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/recorder"
	"github.com/wonny/itrading/internal/selection"
)

// pickCmd runs one selection from the command line
var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "종목 선정 1회 실행",
	Long: `시세 스냅샷을 받아 선정 파이프라인을 1회 실행합니다.

이 명령어는:
- 설정된 소스 순서대로 스냅샷 수집 (eastmoney → quotepage → mock)
- 시장 판단 후 필터 · 스코어링
- AI 보강 (enrichment.enabled 일 때)
- 실행 결과 저장 (STORE_DRIVER)

Example:
  go run ./cmd/picker pick
  go run ./cmd/picker pick --mode bull --max 10
  go run ./cmd/picker pick --basic --skip-enrich --out picks.csv`,
	RunE: runPick,
}

var (
	pickDate       string
	pickMode       string
	pickBasic      bool
	pickNoAdjust   bool
	pickMax        int
	pickOut        string
	pickSkipEnrich bool
)

func init() {
	rootCmd.AddCommand(pickCmd)

	// Flags
	pickCmd.Flags().StringVar(&pickDate, "date", "", "거래일 (YYYYMMDD, 기본: 현재 세션)")
	pickCmd.Flags().StringVar(&pickMode, "mode", "", "시장 모드 (normal|bull|bear|volatile)")
	pickCmd.Flags().BoolVar(&pickBasic, "basic", false, "리스크/기술적 필터 없이 기본 경로 실행")
	pickCmd.Flags().BoolVar(&pickNoAdjust, "no-auto-adjust", false, "시장 판단에 따른 모드 재선택 비활성화")
	pickCmd.Flags().IntVar(&pickMax, "max", 0, "최대 선정 종목 수 (0 = 설정값)")
	pickCmd.Flags().StringVar(&pickOut, "out", "", "CSV 저장 경로")
	pickCmd.Flags().BoolVar(&pickSkipEnrich, "skip-enrich", false, "AI 보강 생략")
}

func runPick(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, comp, log, err := assemble(ctx)
	if err != nil {
		return err
	}
	defer comp.Close()

	orch := comp.Orchestrator
	opts := orch.Options()
	if pickMode != "" {
		mode, err := selection.ParseMode(pickMode)
		if err != nil {
			return err
		}
		opts.Mode = mode
	}
	if pickBasic {
		opts.Advanced = false
	}
	if pickNoAdjust {
		opts.AutoAdjust = false
	}
	if pickMax < 0 {
		return fmt.Errorf("--max must be >= 0")
	}
	if pickMax > 0 {
		opts.MaxStocks = pickMax
	}

	var date time.Time
	if pickDate != "" {
		date, err = calendar.ParseTradeDate(pickDate)
		if err != nil {
			return err
		}
	}

	PrintHeader("A-share Selection",
		fmt.Sprintf("Mode      : %s (advanced=%v, auto_adjust=%v)", opts.Mode, opts.Advanced, opts.AutoAdjust),
		fmt.Sprintf("Strategy  : %s v%s", comp.Strategy.Meta.StrategyID, comp.Strategy.Meta.Version),
		fmt.Sprintf("Timestamp : %s", time.Now().In(calendar.Shanghai()).Format("2006-01-02 15:04:05")),
	)

	result, err := orch.Run(ctx, brain.RunConfig{
		Date:       date,
		Trigger:    brain.TriggerCLI,
		Options:    &opts,
		SkipEnrich: pickSkipEnrich,
	})
	if err != nil {
		log.WithError(err).Error("Selection failed")
		PrintError(err.Error())
		return err
	}

	sel := result.Selection
	fmt.Println()
	PrintKeyValue("Run ID", result.Run.RunID, 10)
	PrintKeyValue("Source", result.Run.Source, 10)
	PrintKeyValue("Trade Date", result.Run.TradeDate, 10)
	PrintKeyValue("Summary", sel.Describe(), 10)
	fmt.Println()

	if len(sel.Selection) == 0 {
		PrintWarning(fmt.Sprintf("No securities selected (reason: %s)", sel.Reason))
		return nil
	}

	PrintSelection(sel.Selection, sel.PriceField)

	if len(result.Run.Enriched) > 0 {
		fmt.Println()
		PrintEnriched(result.Run.Enriched)
	}

	if pickOut != "" {
		if err := recorder.ExportCSV(pickOut, sel.Selection, sel.PriceField); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		fmt.Println()
		PrintSuccess(fmt.Sprintf("Saved %d picks to %s", len(sel.Selection), pickOut))
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Completed in %.2fs", result.Duration.Seconds()))
	return nil
}
