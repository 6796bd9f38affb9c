package brain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/enrichment"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/pkg/logger"
)

// Fetcher supplies the market snapshot of a run
type Fetcher interface {
	Fetch(ctx context.Context, date time.Time) (*contracts.MarketSnapshot, error)
}

// Broadcaster receives every completed run (e.g. the WebSocket hub)
type Broadcaster interface {
	BroadcastRun(run *contracts.RunRecord)
}

// Trigger values recorded on each run
const (
	TriggerCLI       = "cli"
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// Orchestrator coordinates fetch → selection → enrichment → persistence
// ⭐ SSOT: 선정 실행 조율은 여기서만
type Orchestrator struct {
	fetcher    Fetcher
	pipeline   *selection.Pipeline
	enricher   *enrichment.Enricher // nil 이면 보강 생략
	store      contracts.RunStore
	options    selection.Options
	configHash string

	mu          sync.RWMutex
	broadcaster Broadcaster

	logger *logger.Logger
}

// RunConfig holds per-run settings
type RunConfig struct {
	Date       time.Time          // zero = current session
	Trigger    string             // cli, api, scheduler
	Options    *selection.Options // nil = configured defaults
	SkipEnrich bool
}

// RunResult holds the outcome of one run
type RunResult struct {
	Run             *contracts.RunRecord
	Selection       *selection.Result
	CompletedStages []string
	Duration        time.Duration
}

// NewOrchestrator creates a new orchestrator. enricher may be nil.
func NewOrchestrator(
	fetcher Fetcher,
	pipeline *selection.Pipeline,
	enricher *enrichment.Enricher,
	store contracts.RunStore,
	options selection.Options,
	configHash string,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		pipeline:   pipeline,
		enricher:   enricher,
		store:      store,
		options:    options,
		configHash: configHash,
		logger:     log.Component("brain"),
	}
}

// SetBroadcaster registers the receiver of completed runs
func (o *Orchestrator) SetBroadcaster(b Broadcaster) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.broadcaster = b
}

// Options returns the configured default run options
func (o *Orchestrator) Options() selection.Options {
	return o.options
}

// Pipeline returns the selection pipeline
func (o *Orchestrator) Pipeline() *selection.Pipeline {
	return o.pipeline
}

// Store returns the run store
func (o *Orchestrator) Store() contracts.RunStore {
	return o.store
}

// Run executes one selection run.
// Only a failed fetch, a cancelled context or a failed save return an error;
// an empty selection is a normal outcome carrying a reason in its statistics.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	start := time.Now()
	opts := o.options
	if cfg.Options != nil {
		opts = *cfg.Options
	}

	o.logger.WithFields(map[string]interface{}{
		"date":     formatDate(cfg.Date),
		"trigger":  cfg.Trigger,
		"mode":     opts.Mode,
		"advanced": opts.Advanced,
	}).Info("Starting selection run")

	result := &RunResult{CompletedStages: make([]string, 0, 4)}

	// 1. Fetch
	snap, err := o.fetcher.Fetch(ctx, cfg.Date)
	if err != nil {
		return result, fmt.Errorf("fetch failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, "fetch")

	// 2. Selection
	sel, err := o.pipeline.Run(ctx, snap, opts)
	if err != nil {
		return result, fmt.Errorf("selection failed: %w", err)
	}
	result.Selection = sel
	result.CompletedStages = append(result.CompletedStages, "selection")

	run := &contracts.RunRecord{
		RunID:      sel.Stats.RunID,
		TradeDate:  sel.Stats.TradeDate,
		Source:     snap.Source,
		Trigger:    cfg.Trigger,
		ConfigHash: o.configHash,
		Stats:      sel.Stats,
		Selection:  sel.Selection,
		CreatedAt:  time.Now(),
	}
	if run.TradeDate == "" {
		run.TradeDate = formatDate(cfg.Date)
	}
	result.Run = run

	// 3. Enrichment
	if o.enricher != nil && !cfg.SkipEnrich && len(sel.Selection) > 0 {
		enriched, err := o.enricher.Enrich(ctx, sel.Selection)
		if err != nil {
			o.logger.WithRun(run.RunID, run.TradeDate).WithError(err).Error("Enrichment failed")
			return result, fmt.Errorf("enrichment failed: %w", err)
		}
		run.Enriched = enriched
		result.CompletedStages = append(result.CompletedStages, "enrichment")
	}

	// 4. Persist
	if err := o.store.SaveRun(ctx, run); err != nil {
		return result, fmt.Errorf("save run failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, "store")

	o.mu.RLock()
	b := o.broadcaster
	o.mu.RUnlock()
	if b != nil {
		b.BroadcastRun(run)
	}

	result.Duration = time.Since(start)

	o.logger.WithRun(run.RunID, run.TradeDate).WithFields(map[string]interface{}{
		"source":   run.Source,
		"mode":     run.Stats.MarketMode,
		"selected": len(run.Selection),
		"enriched": len(run.Enriched),
		"reason":   run.Stats.Reason,
		"duration": result.Duration.String(),
	}).Info("Selection run completed")

	return result, nil
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		d = time.Now()
	}
	return calendar.FormatTradeDate(d.In(calendar.Shanghai()))
}
