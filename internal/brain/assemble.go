package brain

import (
	"context"
	"fmt"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/enrichment"
	"github.com/wonny/itrading/internal/marketdata"
	"github.com/wonny/itrading/internal/recorder"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/internal/strategyconfig"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/logger"
	"github.com/wonny/itrading/pkg/redis"
)

// Components bundles the wired services shared by the CLI, API and scheduler
type Components struct {
	Orchestrator *Orchestrator
	Calendar     *calendar.Calendar
	Strategy     *strategyconfig.Config
	ConfigHash   string
	Redis        *redis.Client

	closers []func() error
}

// Close releases the store and Redis connections
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Assemble wires sources, pipeline, enrichment and the run store from settings
func Assemble(ctx context.Context, cfg *config.Config, strat *strategyconfig.Config, log *logger.Logger) (*Components, error) {
	comp := &Components{Strategy: strat}

	hash, err := strategyconfig.Hash(strat)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}
	comp.ConfigHash = hash

	cal, err := strat.TradingCalendar()
	if err != nil {
		return nil, err
	}
	comp.Calendar = cal

	// Redis 는 선택 사항: 연결 실패 시 캐시/레이트리밋 없이 진행
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = redis.Disabled()
	}
	comp.Redis = rdb
	comp.closers = append(comp.closers, rdb.Close)

	order := cfg.Sources.Order
	if len(strat.Sources.Order) > 0 {
		order = strat.Sources.Order
	}
	sources, err := marketdata.BuildSources(order, cfg, rdb, log)
	if err != nil {
		comp.Close()
		return nil, err
	}
	fetcher := marketdata.NewFetcher(sources, redis.NewCache(rdb, "picker"), cfg.Sources.SnapshotCacheTTL, log)

	pipelineCfg, err := strat.PipelineConfig()
	if err != nil {
		comp.Close()
		return nil, err
	}
	opts, err := strat.RunOptions()
	if err != nil {
		comp.Close()
		return nil, err
	}

	var enricher *enrichment.Enricher
	if strat.Enrichment.Enabled {
		annotator, err := NewAnnotator(ctx, strat.Enrichment.Provider, cfg.Gemini, rdb, log)
		if err != nil {
			comp.Close()
			return nil, err
		}
		enricher = enrichment.NewEnricher(annotator, strat.FinalWeights(), log)
	}

	store, closeStore, err := recorder.Open(ctx, cfg, log)
	if err != nil {
		comp.Close()
		return nil, err
	}
	comp.closers = append(comp.closers, closeStore)

	comp.Orchestrator = NewOrchestrator(
		fetcher,
		selection.NewPipeline(pipelineCfg, log),
		enricher,
		store,
		opts,
		hash,
		log,
	)

	log.WithFields(map[string]interface{}{
		"sources":     fetcher.Sources(),
		"store":       cfg.Store.Driver,
		"enrichment":  strat.Enrichment.Enabled,
		"config_hash": hash[:12],
	}).Info("Components assembled")

	return comp, nil
}

// NewAnnotator picks the annotator for provider.
// auto uses Gemini when an API key is configured and the rule annotator otherwise.
func NewAnnotator(ctx context.Context, provider string, gemini config.GeminiConfig, rdb *redis.Client, log *logger.Logger) (contracts.Annotator, error) {
	switch provider {
	case strategyconfig.ProviderRule:
		return enrichment.NewRuleAnnotator(log), nil
	case strategyconfig.ProviderGemini:
		return newGemini(ctx, gemini, rdb, log)
	case strategyconfig.ProviderAuto, "":
		if gemini.APIKey == "" {
			log.Info("GEMINI_API_KEY not set, using rule annotator")
			return enrichment.NewRuleAnnotator(log), nil
		}
		return newGemini(ctx, gemini, rdb, log)
	default:
		return nil, fmt.Errorf("unknown enrichment provider: %s", provider)
	}
}

func newGemini(ctx context.Context, gemini config.GeminiConfig, rdb *redis.Client, log *logger.Logger) (contracts.Annotator, error) {
	annotator, err := enrichment.NewGeminiAnnotator(ctx, gemini, redis.NewCache(rdb, "picker"), log)
	if err != nil {
		return nil, err
	}
	return annotator, nil
}
