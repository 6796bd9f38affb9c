package commands

import (
	"context"
	"fmt"

	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/strategyconfig"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/logger"
)

// loadSettings reads the environment config and the strategy YAML,
// applying the global flags on top.
func loadSettings() (*config.Config, *strategyconfig.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.StrategyConfigPath = strategyFile
	}

	log := logger.New(cfg)

	strat, err := strategyconfig.LoadOrDefault(cfg.StrategyConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load strategy config: %w", err)
	}

	for _, w := range strategyconfig.Warn(strat) {
		log.WithFields(map[string]interface{}{
			"code": w.Code,
		}).Warn(w.Message)
	}

	return cfg, strat, log, nil
}

// assemble loads settings and wires the orchestrator
func assemble(ctx context.Context) (*config.Config, *brain.Components, *logger.Logger, error) {
	cfg, strat, log, err := loadSettings()
	if err != nil {
		return nil, nil, nil, err
	}

	comp, err := brain.Assemble(ctx, cfg, strat, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("assemble: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": strat.Meta.StrategyID,
		"config_hash": comp.ConfigHash[:12],
	}).Debug("Components assembled")

	return cfg, comp, log, nil
}
