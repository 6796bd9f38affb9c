package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/itrading/internal/calendar"
)

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "거래일 조회",
	Long: `A주 거래일 캘린더를 조회합니다 (주말 + 휴장일 제외, Asia/Shanghai).

날짜는 YYYYMMDD 형식이며, 생략 시 오늘 기준입니다.

Example:
  go run ./cmd/picker calendar check 20250101
  go run ./cmd/picker calendar next
  go run ./cmd/picker calendar last 20250106`,
}

var calendarCheckCmd = &cobra.Command{
	Use:   "check [date]",
	Short: "거래일 여부 확인",
	Args:  cobra.MaximumNArgs(1),
	RunE:  checkTradingDay,
}

var calendarNextCmd = &cobra.Command{
	Use:   "next [date]",
	Short: "다음 거래일",
	Args:  cobra.MaximumNArgs(1),
	RunE:  nextTradingDay,
}

var calendarLastCmd = &cobra.Command{
	Use:   "last [date]",
	Short: "직전 거래일 (당일 포함)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  lastTradingDay,
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.AddCommand(calendarCheckCmd)
	calendarCmd.AddCommand(calendarNextCmd)
	calendarCmd.AddCommand(calendarLastCmd)
}

func checkTradingDay(cmd *cobra.Command, args []string) error {
	cal, day, err := calendarArgs(args)
	if err != nil {
		return err
	}

	label := calendar.FormatTradeDate(day)
	switch {
	case cal.IsTradingDay(day):
		PrintSuccess(fmt.Sprintf("%s is a trading day", label))
	case cal.IsHoliday(day):
		PrintInfo(fmt.Sprintf("%s is a market holiday", label))
	default:
		PrintInfo(fmt.Sprintf("%s is a weekend", label))
	}

	if len(args) == 0 {
		PrintKeyValue("Session", string(cal.Session(time.Now())), 8)
	}
	return nil
}

func nextTradingDay(cmd *cobra.Command, args []string) error {
	cal, day, err := calendarArgs(args)
	if err != nil {
		return err
	}

	next, err := cal.NextTradingDay(day)
	if err != nil {
		return err
	}
	fmt.Println(calendar.FormatTradeDate(next))
	return nil
}

func lastTradingDay(cmd *cobra.Command, args []string) error {
	cal, day, err := calendarArgs(args)
	if err != nil {
		return err
	}

	last, err := cal.LastTradingDay(day)
	if err != nil {
		return err
	}
	fmt.Println(calendar.FormatTradeDate(last))
	return nil
}

// calendarArgs builds the configured calendar and parses the optional date argument
func calendarArgs(args []string) (*calendar.Calendar, time.Time, error) {
	_, strat, _, err := loadSettings()
	if err != nil {
		return nil, time.Time{}, err
	}

	cal, err := strat.TradingCalendar()
	if err != nil {
		return nil, time.Time{}, err
	}

	if len(args) == 0 {
		return cal, time.Now().In(cal.Location()), nil
	}

	day, err := calendar.ParseTradeDate(args[0])
	if err != nil {
		return nil, time.Time{}, err
	}
	return cal, day, nil
}
