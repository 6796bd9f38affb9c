package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/itrading/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 검증/조회",
	Long: `전략 YAML 을 검증하고, 기본값이 적용된 최종 설정을 출력합니다.

Example:
  go run ./cmd/picker config validate config/strategy/a_share_picker.yaml
  go run ./cmd/picker config show
  go run ./cmd/picker config show --format json`,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "전략 YAML 검증",
	Args:  cobra.MaximumNArgs(1),
	RunE:  validateConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "최종 설정 출력",
	RunE:  showConfig,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "출력 형식 (yaml|json)")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	path := strategyFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = os.Getenv("STRATEGY_CONFIG")
	}
	if path == "" {
		return fmt.Errorf("no strategy file given (argument, --strategy or STRATEGY_CONFIG)")
	}

	cfg, data, err := strategyconfig.Load(path)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s is valid", path))
	PrintKeyValue("Strategy", fmt.Sprintf("%s v%s", cfg.Meta.StrategyID, cfg.Meta.Version), 8)
	PrintKeyValue("Size", fmt.Sprintf("%d bytes", len(data)), 8)
	PrintKeyValue("Hash", hash, 8)

	warnings := strategyconfig.Warn(cfg)
	if len(warnings) > 0 {
		fmt.Println()
		for _, w := range warnings {
			PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
		}
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	_, strat, _, err := loadSettings()
	if err != nil {
		return err
	}

	var out []byte
	switch configFormat {
	case "json":
		out, err = json.MarshalIndent(strat, "", "  ")
	case "yaml":
		out, err = yaml.Marshal(strat)
	default:
		return fmt.Errorf("unknown format %q", configFormat)
	}
	if err != nil {
		return err
	}

	fmt.Println(string(out))
	return nil
}
